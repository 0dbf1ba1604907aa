/*
NAME
  wav.go

DESCRIPTION
  wav.go writes a decoded PCM audio.Stream out as a standard 44-byte
  RIFF/WAVE header plus raw samples, always little-endian (spec.md §4.10).

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wav writes decoded PCM audio streams as RIFF/WAVE files.
package wav

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/Jba03/libhx2/audio"
)

// bitsPerSample is fixed: every hx audio format decodes to 16-bit PCM.
const bitsPerSample = 16

const headerSize = 44

// ErrNotPCM is returned when Write is given a stream whose format isn't
// audio.PCM.
var ErrNotPCM = errors.New("wav: stream is not pcm encoded")

// ErrNoSampleRate is returned when a stream has no sample rate set.
var ErrNoSampleRate = errors.New("wav: invalid or no sample rate defined")

// ErrNoChannels is returned when a stream has no channel count set.
var ErrNoChannels = errors.New("wav: invalid or no number of channels defined")

// Write returns s encoded as a complete RIFF/WAVE file: the 44-byte
// header followed by the raw sample bytes. s must carry PCM data.
func Write(s *audio.Stream) ([]byte, error) {
	if s.Info.Format != audio.PCM {
		return nil, ErrNotPCM
	}
	if s.Info.SampleRate == 0 {
		return nil, ErrNoSampleRate
	}
	if s.Info.NumChannels == 0 {
		return nil, ErrNoChannels
	}

	data := s.Data
	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(data)+headerSize-8))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], uint16(audio.PCM))
	binary.LittleEndian.PutUint16(header[22:24], uint16(s.Info.NumChannels))
	binary.LittleEndian.PutUint32(header[24:28], s.Info.SampleRate)

	bytesPerSecond := uint32(s.Info.SampleRate) * uint32(s.Info.NumChannels) * bitsPerSample / 8
	binary.LittleEndian.PutUint32(header[28:32], bytesPerSecond)

	blockAlign := uint16(s.Info.NumChannels) * bitsPerSample / 8
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(data)))

	out := make([]byte, 0, headerSize+len(data))
	out = append(out, header...)
	out = append(out, data...)
	return out, nil
}
