/*
NAME
  psx.go

DESCRIPTION
  psx.go implements the PlayStation ADPCM ("PSX") decoder: 16-byte/28-sample
  frames, a fixed 5-entry predictor coefficient table, and no persistent
  per-channel header (unlike DSP, history starts at zero for every stream).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psx provides a decoder for Sony PlayStation ADPCM audio, as
// embedded in HX2 hxaudio containers.
package psx

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/Jba03/libhx2/audio"
)

const (
	// SamplesPerFrame is the number of PCM samples produced by one 16-byte
	// PSX ADPCM frame.
	SamplesPerFrame = 28
	frameBytes      = 16
)

// ErrPredictorOutOfRange is returned when a frame's predictor nibble
// exceeds 4, the highest valid index into the coefficient table.
var ErrPredictorOutOfRange = errors.New("psx: predictor index out of range")

// ErrShortStream is returned when a PSX stream ends mid-frame.
var ErrShortStream = errors.New("psx: stream too short")

// coefficients is the fixed PSX ADPCM predictor table, scaled by 64 (i.e.
// the true coefficient is coefficients[n][k]/64.0).
var coefficients = [5][2]int32{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
	{122, -60},
}

// Decode decodes a PSX ADPCM stream (in.Info.Format must be audio.PSX)
// into 16-bit PCM. Sample count is derived from the buffer size, and
// per-channel history starts at zero (there is no per-channel header).
func Decode(in *audio.Stream) (*audio.Stream, error) {
	numChannels := int(in.Info.NumChannels)
	if numChannels == 0 {
		numChannels = 1
	}

	numSamples := uint32(len(in.Data) / numChannels / frameBytes * SamplesPerFrame)

	out := &audio.Stream{
		Info: audio.StreamInfo{
			NumChannels: in.Info.NumChannels,
			Endianness:  audio.LittleEndian,
			SampleRate:  in.Info.SampleRate,
			NumSamples:  numSamples,
			Format:      audio.PCM,
		},
	}
	out.Data = make([]byte, int(numSamples)*numChannels*2)

	hist1 := make([]int32, numChannels)
	hist2 := make([]int32, numChannels)

	numFrames := int(len(in.Data)) / (numChannels * frameBytes)
	pos := 0
	for f := 0; f < numFrames; f++ {
		for c := 0; c < numChannels; c++ {
			if pos+frameBytes > len(in.Data) {
				return nil, ErrShortStream
			}
			header := in.Data[pos]
			// flags byte (in.Data[pos+1]) is not required to be any
			// particular value and is ignored for decode.
			data := in.Data[pos+2 : pos+frameBytes]
			pos += frameBytes

			predictor := int((header >> 4) & 0xF)
			shift := uint(header & 0xF)
			if predictor > 4 {
				return nil, ErrPredictorOutOfRange
			}

			c0 := coefficients[predictor][0]
			c1 := coefficients[predictor][1]
			h1, h2 := hist1[c], hist2[c]

			for s := 0; s < SamplesPerFrame; s++ {
				byteIdx := s / 2
				var nibble byte
				if s%2 == 0 {
					nibble = data[byteIdx] & 0xF
				} else {
					nibble = (data[byteIdx] >> 4) & 0xF
				}
				t := int32(int16(uint16(nibble) << 12))
				pred := (h1*c0 + h2*c1 + 32) >> 6
				sample := (t >> shift) + pred
				if sample < math.MinInt16 {
					sample = math.MinInt16
				} else if sample > math.MaxInt16 {
					sample = math.MaxInt16
				}
				h2 = h1
				h1 = sample

				dstIdx := (s*numChannels + c) * 2
				offset := f*SamplesPerFrame*numChannels*2 + dstIdx
				binary.LittleEndian.PutUint16(out.Data[offset:], uint16(int16(sample)))
			}

			hist1[c], hist2[c] = h1, h2
		}
	}

	return out, nil
}
