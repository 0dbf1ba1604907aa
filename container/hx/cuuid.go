/*
NAME
  cuuid.go

DESCRIPTION
  cuuid.go defines CUUID, the 64-bit cross-file object identifier used to
  tag every entry and every reference between entries.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "fmt"

// CUUID is a 64-bit opaque object identifier. The zero value is reserved
// to mean "invalid/null". On disk it is stored as two 32-bit halves, upper
// half first, each subject to the stream's endianness.
type CUUID uint64

// NilCUUID is the reserved invalid/null identifier.
const NilCUUID CUUID = 0

// Tag returns the top 32 bits of the CUUID, which conventionally carry a
// type tag (e.g. 3 marks a WavResData link embedded in a program blob).
func (c CUUID) Tag() uint32 {
	return uint32(c >> 32)
}

// Valid reports whether c is non-zero.
func (c CUUID) Valid() bool {
	return c != NilCUUID
}

func (c CUUID) String() string {
	return fmt.Sprintf("%016X", uint64(c))
}

// byteSwapHalves byte-swaps each of c's two 32-bit halves independently,
// leaving their upper/lower position unchanged. This is required when
// resolving CUUIDs scanned out of a ProgramResData blob on HX2 (see
// serializeProgramResData): a wire-level quirk, not an algorithm choice.
func byteSwapHalves(c CUUID) CUUID {
	hi := uint32(c >> 32)
	lo := uint32(c)
	return CUUID(uint64(bswap32(hi))<<32 | uint64(bswap32(lo)))
}

func bswap32(v uint32) uint32 {
	return (v&0x000000FF)<<24 | (v&0x0000FF00)<<8 | (v&0x00FF0000)>>8 | (v&0xFF000000)>>24
}
