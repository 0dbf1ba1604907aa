/*
NAME
  transcode.go

DESCRIPTION
  transcode.go provides the audio stream conversion façade: it maps an
  (input format, output format) pair onto the concrete codec it requires,
  without codec/dsp, codec/psx or codec/ima ever importing each other.
  This package sits above them and above audio so that none of the codec
  packages need to know about the others.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package transcode converts audio.Stream values between the sample
// formats used by hx2/hxaudio containers (PCM, PSX ADPCM, GameCube DSP
// ADPCM, IMA ADPCM).
package transcode

import (
	"github.com/pkg/errors"

	"github.com/Jba03/libhx2/audio"
	"github.com/Jba03/libhx2/codec/dsp"
	"github.com/Jba03/libhx2/codec/ima"
	"github.com/Jba03/libhx2/codec/psx"
)

// ErrUnsupported is returned by Convert when no codec path exists between
// the requested input and output formats.
var ErrUnsupported = errors.New("transcode: unsupported conversion")

// ToPCM decodes in into 16-bit PCM, regardless of its current format.
// PCM input is returned unchanged.
func ToPCM(in *audio.Stream) (*audio.Stream, error) {
	switch in.Info.Format {
	case audio.PCM:
		return in, nil
	case audio.PSX:
		return psx.Decode(in)
	case audio.DSP:
		return dsp.Decode(in)
	case audio.IMA:
		return ima.Decode(in)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "decode from %v", in.Info.Format)
	}
}

// FromPCM encodes a 16-bit PCM stream into out's format. coef supplies the
// GameCube DSP predictor coefficients and is ignored for every other
// target format.
func FromPCM(in *audio.Stream, out audio.Format, coef [16]int16) (*audio.Stream, error) {
	if in.Info.Format != audio.PCM {
		return nil, errors.Wrapf(ErrUnsupported, "encode source is %v, not PCM", in.Info.Format)
	}
	switch out {
	case audio.PCM:
		return in, nil
	case audio.DSP:
		return dsp.Encode(in, coef)
	case audio.IMA:
		return ima.Encode(in)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "encode to %v", out)
	}
}

// Convert decodes in to PCM and, if out differs from audio.PCM, re-encodes
// it to out. coef is only consulted when out is audio.DSP.
func Convert(in *audio.Stream, out audio.Format, coef [16]int16) (*audio.Stream, error) {
	pcm, err := ToPCM(in)
	if err != nil {
		return nil, err
	}
	if out == audio.PCM {
		return pcm, nil
	}
	return FromPCM(pcm, out, coef)
}
