/*
NAME
  waveformat.go

DESCRIPTION
  waveformat.go implements the fixed 44-byte RIFF/WAVE format header
  embedded in every WaveFileIdObj entry body (distinct from codec/wav's
  output writer: this header is the on-disk prelude to the embedded
  sample data, not a standalone .wav file).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "github.com/pkg/errors"

const waveFormatHeaderSize = 44

const (
	riffCode = 0x46464952 // "RIFF"
	waveCode = 0x45564157 // "WAVE"
	fmtCode  = 0x20746D66 // "fmt "
	dataCode = 0x61746164 // "data"
	datxCode = 0x78746164 // "datx"
)

// WaveFormatHeader is the container's embedded RIFF/WAVE format prelude.
type WaveFormatHeader struct {
	RiffCode       uint32
	RiffLength     uint32
	WaveCode       uint32
	FmtCode        uint32
	ChunkSize      uint32
	Format         uint16
	Channels       uint16
	SampleRate     uint32
	BytesPerSecond uint32
	Alignment      uint16
	BitsPerSample  uint16
	DataCode       uint32
	DataLength     uint32
}

func defaultWaveFormatHeader() WaveFormatHeader {
	return WaveFormatHeader{
		RiffCode:      riffCode,
		WaveCode:      waveCode,
		FmtCode:       fmtCode,
		ChunkSize:     16,
		Alignment:     16,
		BitsPerSample: 16,
		DataCode:      dataCode,
	}
}

// serialize reads or writes h's fields through s, then validates the
// three fixed magic codes.
func (h *WaveFormatHeader) serialize(s *Stream) error {
	if err := s.U32(&h.RiffCode); err != nil {
		return err
	}
	if err := s.U32(&h.RiffLength); err != nil {
		return err
	}
	if err := s.U32(&h.WaveCode); err != nil {
		return err
	}
	if err := s.U32(&h.FmtCode); err != nil {
		return err
	}
	if err := s.U32(&h.ChunkSize); err != nil {
		return err
	}
	if err := s.U16(&h.Format); err != nil {
		return err
	}
	if err := s.U16(&h.Channels); err != nil {
		return err
	}
	if err := s.U32(&h.SampleRate); err != nil {
		return err
	}
	if err := s.U32(&h.BytesPerSecond); err != nil {
		return err
	}
	if err := s.U16(&h.Alignment); err != nil {
		return err
	}
	if err := s.U16(&h.BitsPerSample); err != nil {
		return err
	}
	if err := s.U32(&h.DataCode); err != nil {
		return err
	}
	if err := s.U32(&h.DataLength); err != nil {
		return err
	}

	if h.RiffCode != riffCode || h.WaveCode != waveCode || h.FmtCode != fmtCode {
		return errors.Wrapf(ErrInvalidWaveHeader, "got riff=%X wave=%X fmt=%X", h.RiffCode, h.WaveCode, h.FmtCode)
	}
	return nil
}
