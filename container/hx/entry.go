/*
NAME
  entry.go

DESCRIPTION
  entry.go defines Entry, the container's unit record, the index-level
  link records it carries, and the six class payload types (including the
  two superclass fragments WavResObj and IdObjPtr shared by more than one
  class).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "github.com/Jba03/libhx2/audio"

// LanguageLink is an index-level {language, unknown, cuuid} record, only
// present for index_type 2 containers.
type LanguageLink struct {
	Language Language
	Unknown  uint32
	CUUID    CUUID
}

// Entry is the container's unit record: a CUUID-identified, class-tagged
// payload plus the outgoing CUUID references the index carries for it.
type Entry struct {
	CUUID CUUID
	Class Class
	Data  any

	Links         []CUUID
	LanguageLinks []LanguageLink

	fileOffset uint32
	fileSize   uint32
}

// EventResData triggers playback and carries a link to the WavResData (or
// other entry) it names.
type EventResData struct {
	Type  uint32
	Name  string
	Flags uint32
	Link  CUUID
	C     [4]float32
}

// WavResObjFlagMultiple marks a WavResObj whose WavResData carries more
// than one localized link.
const WavResObjFlagMultiple = 1 << 1

// WavResObj is the superclass fragment shared by WavResData: an id, a
// size/name field pair whose presence depends on version, three floats,
// and a flags byte.
type WavResObj struct {
	ID    uint32
	Size  uint32
	C0    float32
	C1    float32
	C2    float32
	Flags uint8
	Name  string
}

// WavResDataLink pairs a localized audio link with its language.
type WavResDataLink struct {
	Language Language
	CUUID    CUUID
}

// WavResData names and localizes a set of WaveFileIdObj entries.
type WavResData struct {
	Parent       WavResObj
	DefaultCUUID CUUID
	Links        []WavResDataLink
}

// SwitchResDataLink pairs a case index with the resource it selects.
type SwitchResDataLink struct {
	CaseIndex uint32
	CUUID     CUUID
}

// SwitchResData selects among its links by case index.
type SwitchResData struct {
	Flag       uint32
	U1         uint32
	U2         uint32
	StartIndex uint32
	Links      []SwitchResDataLink
}

// RandomResDataLink pairs a linked resource with its play probability.
type RandomResDataLink struct {
	Probability float32
	CUUID       CUUID
}

// RandomResData randomly selects among its links, or plays nothing with
// ThrowProbability.
type RandomResData struct {
	Flags           uint32
	Offset          float32
	ThrowProbability float32
	Links           []RandomResDataLink
}

// ProgramResDataLinkTag is the CUUID top-32-bit tag that marks a
// WavResData link embedded in a ProgramResData blob.
const ProgramResDataLinkTag = 3

// ProgramResData is an opaque interpreted-bytecode blob. Links are not
// stored on disk; they are recovered on read by scanning Data for CUUIDs
// tagged ProgramResDataLinkTag. On write Data is emitted verbatim and
// Links is not consulted.
type ProgramResData struct {
	Data  []byte
	Links []CUUID
}

// IdObjPtrFlagExternal marks a WaveFileIdObj whose sample data lives in an
// external "big file" fetched via the read callback.
const IdObjPtrFlagExternal = 1 << 0

// IdObjPtr is the superclass fragment shared by WaveFileIdObj. On HXG,
// Flags and Unknown2 are full 32-bit words; on every other version, Flags
// is a single byte and Unknown2 does not exist on disk.
type IdObjPtr struct {
	ID      uint32
	Unknown float32
	Flags   uint32
	Unknown2 uint32
}

// WaveFileIdObj wraps one audio resource: its external-stream pointer (if
// any), its embedded RIFF/WAVE header, and the decoded audio stream.
type WaveFileIdObj struct {
	IDObj IdObjPtr

	ExtStreamFilename string
	ExtStreamSize     uint32
	ExtStreamOffset   uint32

	WaveHeader WaveFormatHeader

	// AudioStream is the entry's owned sample buffer and format metadata.
	AudioStream audio.Stream

	// ExtraWaveData is the trailing bytes after the header/data chunk,
	// preserved verbatim: the source's length formula carries
	// special-case +4/+1 adjustments that are not derived from a stated
	// invariant, so trailing bytes round-trip byte-for-byte rather than
	// being recomputed.
	ExtraWaveData []byte

	// Name is not serialized; it is populated by the post-read naming
	// pass from a WavResData's language links (and, on HXG, from a
	// companion EventResData).
	Name string
}
