/*
NAME
  ima.go

DESCRIPTION
  ima.go implements IMA ADPCM encode/decode (audio.IMA), adapted from the
  teacher library's standalone streaming adpcm.Encoder/Decoder into a
  single-shot codec operating on audio.Stream, matching the calling
  convention of codec/dsp and codec/psx. The per-nibble quantizer and the
  index/step tables are unchanged from the original.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ima provides an IMA ADPCM encoder/decoder for the audio.IMA
// format.
package ima

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/Jba03/libhx2/audio"
)

const (
	byteDepth = 2 // 16-bit samples.
	initSamps = 2
	initSize  = initSamps * byteDepth
	headSize  = 8
)

// ErrTooShort is returned when there isn't enough PCM data to seed the
// encoder's initial estimate.
var ErrTooShort = errors.New("ima: input too short to encode")

// indexTable is the table of step-index adjustments driven by each
// 4-bit nibble.
var indexTable = []int16{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

// stepTable is the quantizer step size table.
var stepTable = []int16{
	7, 8, 9, 10, 11, 12, 13, 14,
	16, 17, 19, 21, 23, 25, 28, 31,
	34, 37, 41, 45, 50, 55, 60, 66,
	73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658,
	724, 796, 876, 963, 1060, 1166, 1282, 1411,
	1552, 1707, 1878, 2066, 2272, 2499, 2749, 3024,
	3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484,
	7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794,
	32767,
}

func capAdd16(a, b int16) int16 {
	c := int32(a) + int32(b)
	switch {
	case c < math.MinInt16:
		return math.MinInt16
	case c > math.MaxInt16:
		return math.MaxInt16
	default:
		return int16(c)
	}
}

type coder struct {
	est  int16
	idx  int16
	step int16
}

func (c *coder) encodeSample(sample int16) byte {
	delta := capAdd16(sample, -c.est)

	var nib byte
	if delta < 0 {
		nib = 8
		delta = -delta
	}

	step := stepTable[c.idx]
	diff := step >> 3
	var mask byte = 4

	for i := 0; i < 3; i++ {
		if delta > step {
			nib |= mask
			delta = capAdd16(delta, -step)
			diff = capAdd16(diff, step)
		}
		mask >>= 1
		step >>= 1
	}

	if nib&8 != 0 {
		diff = -diff
	}

	c.est = capAdd16(c.est, diff)
	c.idx += indexTable[nib&7]
	if c.idx < 0 {
		c.idx = 0
	} else if c.idx > int16(len(stepTable)-1) {
		c.idx = int16(len(stepTable) - 1)
	}

	return nib
}

func (c *coder) decodeSample(nibble byte) int16 {
	var diff int16
	if nibble&4 != 0 {
		diff = capAdd16(diff, c.step)
	}
	if nibble&2 != 0 {
		diff = capAdd16(diff, c.step>>1)
	}
	if nibble&1 != 0 {
		diff = capAdd16(diff, c.step>>2)
	}
	diff = capAdd16(diff, c.step>>3)

	if nibble&8 != 0 {
		diff = -diff
	}

	c.est = capAdd16(c.est, diff)
	c.idx += indexTable[nibble]
	if c.idx < 0 {
		c.idx = 0
	} else if c.idx > int16(len(stepTable)-1) {
		c.idx = int16(len(stepTable) - 1)
	}
	c.step = stepTable[c.idx]

	return c.est
}

// initEstimate picks the initial estimate and step index from the first
// two PCM samples: the estimate is the first sample, and the index is
// the closest step-table entry to half the absolute difference of the
// first two samples.
func initEstimate(samples []byte) (est, idx int16) {
	s0 := int16(binary.LittleEndian.Uint16(samples[:byteDepth]))
	s1 := int16(binary.LittleEndian.Uint16(samples[byteDepth:initSize]))
	est = s0

	halfDiff := math.Abs(float64(s0)-float64(s1)) / 2
	closest := math.Abs(float64(stepTable[0]) - halfDiff)
	for i, step := range stepTable {
		if d := math.Abs(float64(step) - halfDiff); d < closest {
			closest = d
			idx = int16(i)
		}
	}
	return est, idx
}

// EncBytes returns the number of IMA ADPCM bytes produced when encoding n
// bytes of 16-bit PCM.
func EncBytes(n int) int {
	const (
		samplesPerEnc = 2
		bytesPerEnc   = samplesPerEnc * byteDepth
		compFact      = 4
	)
	if n%bytesPerEnc == 0 {
		return (n-byteDepth)/compFact + headSize + 1
	}
	return (n-byteDepth)/compFact + headSize
}

// Encode encodes a 16-bit mono PCM stream into IMA ADPCM: a 4-byte chunk
// length, the uncompressed first sample, the initial step index, a
// padding flag, then one byte per two samples (two nibbles).
func Encode(in *audio.Stream) (*audio.Stream, error) {
	b := in.Data
	if len(b) < initSize {
		return nil, ErrTooShort
	}

	const (
		samplesPerEnc = 2
		bytesPerEnc   = samplesPerEnc * byteDepth
	)
	pad := (len(b)-byteDepth)%bytesPerEnc != 0

	out := make([]byte, 0, EncBytes(len(b))+4)
	chunkLen := EncBytes(len(b))
	chunkLenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(chunkLenBytes, uint32(chunkLen))
	out = append(out, chunkLenBytes...)

	est, idx := initEstimate(b[:initSize])
	c := &coder{est: est, idx: idx}

	out = append(out, b[0:byteDepth]...)
	out = append(out, byte(int16(c.idx)))
	if pad {
		out = append(out, 0x01)
	} else {
		out = append(out, 0x00)
	}

	for i := byteDepth; i+bytesPerEnc-1 < len(b); i += bytesPerEnc {
		nib1 := c.encodeSample(int16(binary.LittleEndian.Uint16(b[i : i+byteDepth])))
		nib2 := c.encodeSample(int16(binary.LittleEndian.Uint16(b[i+byteDepth : i+bytesPerEnc])))
		out = append(out, (nib2<<4)|nib1)
	}
	if pad {
		nib := c.encodeSample(int16(binary.LittleEndian.Uint16(b[len(b)-byteDepth:])))
		out = append(out, nib)
	}

	return &audio.Stream{
		Info: audio.StreamInfo{
			NumChannels: 1,
			Endianness:  audio.LittleEndian,
			SampleRate:  in.Info.SampleRate,
			NumSamples:  uint32(len(b) / byteDepth),
			Format:      audio.IMA,
		},
		Data: out,
	}, nil
}

// Decode decodes an IMA ADPCM stream of one or more length-prefixed
// chunks into 16-bit mono PCM.
func Decode(in *audio.Stream) (*audio.Stream, error) {
	b := in.Data
	out := make([]byte, 0, len(b)*4)

	var chunkLen int
	for off := 0; off+headSize <= len(b); off += chunkLen {
		chunkLen = int(binary.LittleEndian.Uint32(b[off : off+4]))
		if off+chunkLen > len(b) {
			break
		}

		c := &coder{
			est:  int16(binary.LittleEndian.Uint16(b[off+4 : off+4+byteDepth])),
			idx:  int16(b[off+4+byteDepth]),
		}
		c.step = stepTable[c.idx]
		out = append(out, b[off+4:off+4+byteDepth]...)

		padFlag := b[off+7]
		for i := off + headSize; i < off+chunkLen-int(padFlag); i++ {
			twoNibs := b[i]
			nib2 := twoNibs >> 4
			nib1 := (nib2 << 4) ^ twoNibs

			s1 := make([]byte, byteDepth)
			binary.LittleEndian.PutUint16(s1, uint16(c.decodeSample(nib1)))
			out = append(out, s1...)

			s2 := make([]byte, byteDepth)
			binary.LittleEndian.PutUint16(s2, uint16(c.decodeSample(nib2)))
			out = append(out, s2...)
		}
		if padFlag == 0x01 {
			padNib := b[off+chunkLen-1]
			s := make([]byte, byteDepth)
			binary.LittleEndian.PutUint16(s, uint16(c.decodeSample(padNib)))
			out = append(out, s...)
		}
	}

	return &audio.Stream{
		Info: audio.StreamInfo{
			NumChannels: 1,
			Endianness:  audio.LittleEndian,
			SampleRate:  in.Info.SampleRate,
			NumSamples:  uint32(len(out) / byteDepth),
			Format:      audio.PCM,
		},
		Data: out,
	}, nil
}
