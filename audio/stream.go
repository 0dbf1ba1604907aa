/*
NAME
  stream.go

DESCRIPTION
  stream.go defines the audio stream data model shared by the container
  codec and the ADPCM codecs: the sample format tag, the stream metadata,
  and the stream itself.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audio defines the audio stream data model used across the
// container codec and the ADPCM codecs. The format conversion façade that
// dispatches between the codecs lives in codec/transcode.
package audio

// Format identifies the on-disk encoding of an audio stream's sample data.
type Format uint32

// Audio formats accepted by one or more hx container versions.
const (
	PCM Format = 0x01
	UBI Format = 0x02
	PSX Format = 0x03
	DSP Format = 0x04
	IMA Format = 0x05
	MP3 Format = 0x55
)

// String returns the canonical short name for f.
func (f Format) String() string {
	switch f {
	case PCM:
		return "PCM"
	case UBI:
		return "UBI"
	case PSX:
		return "PSX"
	case DSP:
		return "DSP"
	case IMA:
		return "IMA"
	case MP3:
		return "MP3"
	default:
		return "Unknown"
	}
}

// Endianness of a stream's sample data, independent of the container's own
// endianness (a stream's samples may be byte-swapped relative to the
// container they're embedded in).
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// CUUID is defined by the container package; streams only need to carry
// it, so we accept it here as a plain uint64 to avoid an import cycle.
// See container/hx.CUUID for the canonical type and its semantics.
type CUUID = uint64

// StreamInfo is the format metadata that accompanies a Stream's raw sample
// bytes.
type StreamInfo struct {
	NumChannels  uint8
	Endianness   Endianness
	SampleRate   uint32
	NumSamples   uint32
	Format       Format
	WaveFileCUUID CUUID
}

// Stream is a raw audio sample buffer plus its format metadata. A Stream
// owns Data: freeing the owning entry releases it.
type Stream struct {
	Info StreamInfo
	Data []byte
}

// Size returns the number of sample bytes the stream carries.
func (s *Stream) Size() uint32 {
	if s == nil {
		return 0
	}
	return uint32(len(s.Data))
}
