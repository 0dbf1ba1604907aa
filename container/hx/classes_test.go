/*
NAME
  classes_test.go

DESCRIPTION
  classes_test.go tests the per-class entry serializers, in particular
  WaveFileIdObj's extra-wave-data corruption detection.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildWaveFileIdObjBytes hand-builds the wire bytes for a non-external,
// non-HXG WaveFileIdObj body: a 9-byte IdObjPtr, a 44-byte wave format
// header with the given riffLength and dataLength, followed by
// dataLength zero bytes.
func buildWaveFileIdObjBytes(riffLength, dataLength uint32) []byte {
	order := binary.LittleEndian
	b := make([]byte, 9)
	order.PutUint32(b[0:4], 0)             // ID
	order.PutUint32(b[4:8], 0)             // Unknown (f32 bits)
	b[8] = 0                               // Flags (not external)

	hdr := make([]byte, waveFormatHeaderSize)
	order.PutUint32(hdr[0:4], riffCode)
	order.PutUint32(hdr[4:8], riffLength)
	order.PutUint32(hdr[8:12], waveCode)
	order.PutUint32(hdr[12:16], fmtCode)
	order.PutUint32(hdr[16:20], 16) // ChunkSize
	order.PutUint16(hdr[20:22], 0)  // Format
	order.PutUint16(hdr[22:24], 1)  // Channels
	order.PutUint32(hdr[24:28], 0)  // SampleRate
	order.PutUint32(hdr[28:32], 0)  // BytesPerSecond
	order.PutUint16(hdr[32:34], 0)  // Alignment
	order.PutUint16(hdr[34:36], 16) // BitsPerSample
	order.PutUint32(hdr[36:40], dataCode)
	order.PutUint32(hdr[40:44], dataLength)

	out := append(b, hdr...)
	out = append(out, make([]byte, dataLength)...)
	return out
}

func TestWaveFileIdObjCorruptExtraWaveData(t *testing.T) {
	// A riff length wildly inconsistent with the data actually present
	// computes an extra-wave-data length that overruns the remaining
	// stream: this must be reported as corruption, not a generic
	// stream overrun.
	buf := buildWaveFileIdObjBytes(0xFFFFFFF0, 0)
	s := NewReader(buf, binary.LittleEndian)
	ctx := NewContext(HXC)
	e := &Entry{Class: ClassWaveFileIdObj}

	err := classTable[ClassWaveFileIdObj].serialize(ctx, e, s, len(buf))
	if !errors.Is(err, ErrCorruptExtraWaveData) {
		t.Fatalf("serialize() error = %v, want ErrCorruptExtraWaveData", err)
	}
}

func TestWaveFileIdObjNoExtraWaveData(t *testing.T) {
	// riffLength consistent with an empty data chunk and no trailing
	// bytes: extra wave data length computes to <= 0 and is skipped.
	buf := buildWaveFileIdObjBytes(waveFormatHeaderSize-8, 0)
	s := NewReader(buf, binary.LittleEndian)
	ctx := NewContext(HXC)
	e := &Entry{Class: ClassWaveFileIdObj}

	if err := classTable[ClassWaveFileIdObj].serialize(ctx, e, s, len(buf)); err != nil {
		t.Fatalf("serialize() = %v, want nil", err)
	}
	d := e.Data.(*WaveFileIdObj)
	if len(d.ExtraWaveData) != 0 {
		t.Errorf("ExtraWaveData = %d bytes, want 0", len(d.ExtraWaveData))
	}
}
