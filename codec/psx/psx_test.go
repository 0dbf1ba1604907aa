/*
NAME
  psx_test.go

DESCRIPTION
  psx_test.go tests the PlayStation ADPCM decoder boundary behavior:
  all-zero frames, predictor range validation, the ignored flags byte,
  and saturation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psx

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Jba03/libhx2/audio"
)

func buildFrame(header, flags byte, nibbles [28]byte) []byte {
	f := make([]byte, frameBytes)
	f[0] = header
	f[1] = flags
	for i, n := range nibbles {
		byteIdx := 2 + i/2
		if i%2 == 0 {
			f[byteIdx] = (f[byteIdx] &^ 0x0F) | (n & 0xF)
		} else {
			f[byteIdx] = (f[byteIdx] &^ 0xF0) | (n << 4)
		}
	}
	return f
}

func TestDecodeAllZeroFrame(t *testing.T) {
	var nibbles [28]byte
	frame := buildFrame(0x00, 0x00, nibbles)

	in := &audio.Stream{
		Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
		Data: frame,
	}
	out, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode() = %v, want nil", err)
	}
	if out.Info.NumSamples != SamplesPerFrame {
		t.Fatalf("NumSamples = %d, want %d", out.Info.NumSamples, SamplesPerFrame)
	}
	for i := 0; i < SamplesPerFrame; i++ {
		v := int16(binary.LittleEndian.Uint16(out.Data[i*2:]))
		if v != 0 {
			t.Errorf("sample %d = %d, want 0", i, v)
		}
	}
}

func TestDecodePredictorOutOfRange(t *testing.T) {
	var nibbles [28]byte
	// predictor nibble 5 (> 4, the highest valid table index).
	frame := buildFrame(0x50, 0x00, nibbles)

	in := &audio.Stream{
		Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
		Data: frame,
	}
	_, err := Decode(in)
	if !errors.Is(err, ErrPredictorOutOfRange) {
		t.Fatalf("Decode() error = %v, want ErrPredictorOutOfRange", err)
	}
}

func TestDecodeFlagsByteIgnored(t *testing.T) {
	var nibbles [28]byte
	nibbles[0] = 3
	nibbles[5] = 7

	for _, flags := range []byte{0x00, 0x01, 0x04, 0xFF} {
		frame := buildFrame(0x10, flags, nibbles)
		in := &audio.Stream{
			Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
			Data: frame,
		}
		out, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode() flags=%#x: %v, want nil", flags, err)
		}
		if flags == 0x00 {
			continue
		}
		base, err := Decode(&audio.Stream{
			Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
			Data: buildFrame(0x10, 0x00, nibbles),
		})
		if err != nil {
			t.Fatalf("Decode() baseline: %v, want nil", err)
		}
		for i := range out.Data {
			if out.Data[i] != base.Data[i] {
				t.Fatalf("flags=%#x changed decoded output at byte %d: %d != %d", flags, i, out.Data[i], base.Data[i])
			}
		}
	}
}

func TestDecodeSaturation(t *testing.T) {
	// Large positive residuals against a strongly predictive coefficient
	// table entry must clamp to int16 max rather than wrap.
	var nibbles [28]byte
	for i := range nibbles {
		nibbles[i] = 7 // maximum positive 4-bit residual
	}
	frame := buildFrame(0x40, 0x00, nibbles) // predictor 4, shift 0

	in := &audio.Stream{
		Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
		Data: frame,
	}
	out, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode() = %v, want nil", err)
	}
	last := int16(binary.LittleEndian.Uint16(out.Data[(SamplesPerFrame-1)*2:]))
	if last != math.MaxInt16 {
		t.Errorf("last sample = %d, want %d (int16 saturation)", last, math.MaxInt16)
	}
}

func TestDecodeTrailingPartialFrameDropped(t *testing.T) {
	// A buffer shorter than one full frame decodes to zero samples
	// rather than erroring: frame count is derived by flooring the
	// buffer size, so a partial trailing frame is silently dropped.
	in := &audio.Stream{
		Info: audio.StreamInfo{NumChannels: 1, Format: audio.PSX},
		Data: make([]byte, frameBytes/2),
	}
	out, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode() = %v, want nil", err)
	}
	if out.Info.NumSamples != 0 {
		t.Errorf("NumSamples = %d, want 0", out.Info.NumSamples)
	}
}

func TestDecodeMultiChannelInterleave(t *testing.T) {
	var nibbles [28]byte
	nibbles[0] = 1
	left := buildFrame(0x00, 0x00, nibbles)
	right := buildFrame(0x00, 0x00, nibbles)

	in := &audio.Stream{
		Info: audio.StreamInfo{NumChannels: 2, Format: audio.PSX},
		Data: append(left, right...),
	}
	out, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode() = %v, want nil", err)
	}
	if out.Info.NumSamples != SamplesPerFrame {
		t.Fatalf("NumSamples = %d, want %d", out.Info.NumSamples, SamplesPerFrame)
	}
	if len(out.Data) != SamplesPerFrame*2*2 {
		t.Fatalf("decoded byte length = %d, want %d", len(out.Data), SamplesPerFrame*2*2)
	}
}
