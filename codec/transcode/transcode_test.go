/*
NAME
  transcode_test.go

DESCRIPTION
  transcode_test.go tests the format conversion façade's dispatch table:
  every supported (in, out) pair reaches its codec, and unsupported pairs
  report ErrUnsupported rather than silently passing data through.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package transcode

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Jba03/libhx2/audio"
)

func TestToPCMPassesThroughPCM(t *testing.T) {
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.PCM}, Data: []byte{1, 2, 3, 4}}
	out, err := ToPCM(in)
	if err != nil {
		t.Fatalf("ToPCM() = %v, want nil", err)
	}
	if out != in {
		t.Error("ToPCM() on a PCM stream should return the same value, not a copy")
	}
}

func TestToPCMUnsupportedFormat(t *testing.T) {
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.MP3}, Data: []byte{1, 2, 3, 4}}
	_, err := ToPCM(in)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("ToPCM() error = %v, want ErrUnsupported", err)
	}
}

func TestFromPCMRejectsNonPCMSource(t *testing.T) {
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.DSP}, Data: []byte{1, 2, 3, 4}}
	_, err := FromPCM(in, audio.DSP, [16]int16{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("FromPCM() error = %v, want ErrUnsupported", err)
	}
}

func TestFromPCMUnsupportedTarget(t *testing.T) {
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.PCM, NumChannels: 1}, Data: make([]byte, 8)}
	_, err := FromPCM(in, audio.PSX, [16]int16{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("FromPCM() error = %v, want ErrUnsupported", err)
	}
}

func TestConvertPSXToPCM(t *testing.T) {
	// A single all-zero PSX frame (16 bytes) decodes to 28 zero samples.
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.PSX, NumChannels: 1}, Data: make([]byte, 16)}
	out, err := Convert(in, audio.PCM, [16]int16{})
	if err != nil {
		t.Fatalf("Convert() = %v, want nil", err)
	}
	if out.Info.Format != audio.PCM {
		t.Errorf("Format = %v, want PCM", out.Info.Format)
	}
	if out.Info.NumSamples != 28 {
		t.Errorf("NumSamples = %d, want 28", out.Info.NumSamples)
	}
}

func TestConvertPCMToIMAAndBack(t *testing.T) {
	samples := make([]byte, 40)
	for i := 0; i < 20; i++ {
		binary.LittleEndian.PutUint16(samples[i*2:], uint16(int16(i*100)))
	}
	in := &audio.Stream{Info: audio.StreamInfo{Format: audio.PCM, NumChannels: 1, SampleRate: 22050}, Data: samples}

	encoded, err := Convert(in, audio.IMA, [16]int16{})
	if err != nil {
		t.Fatalf("Convert() to IMA = %v, want nil", err)
	}
	if encoded.Info.Format != audio.IMA {
		t.Fatalf("Format = %v, want IMA", encoded.Info.Format)
	}

	decoded, err := ToPCM(encoded)
	if err != nil {
		t.Fatalf("ToPCM() = %v, want nil", err)
	}
	if decoded.Info.Format != audio.PCM {
		t.Errorf("Format = %v, want PCM", decoded.Info.Format)
	}
}
