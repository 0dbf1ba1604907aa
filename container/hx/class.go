/*
NAME
  class.go

DESCRIPTION
  class.go implements the class dispatch table: the compile-time mapping
  from a class tag to its canonical on-disk name, its cross-version bit,
  and its read/write serializer, plus the class-name string <-> tag
  conversions used by the index and by each entry's body prelude.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "strings"

// Class tags an Entry's payload kind.
type Class int

const (
	ClassEventResData Class = iota
	ClassWavResData
	ClassSwitchResData
	ClassRandomResData
	ClassProgramResData
	ClassWaveFileIdObj
	ClassInvalid
)

func (c Class) String() string {
	if int(c) < 0 || int(c) >= len(classTable) {
		return "Invalid"
	}
	return classTable[c].name
}

// serializeFunc reads or writes one entry's payload through s, depending
// on s.Mode(). bodySize is the number of payload bytes the index declared
// for this entry (valid in ModeRead only; classes without a variable-length
// opaque tail ignore it).
type serializeFunc func(ctx *Context, e *Entry, s *Stream, bodySize int) error

type classTableEntry struct {
	name         string
	crossversion bool
	serialize    serializeFunc
}

// classTable is the compile-time class dispatch table: indexed by Class,
// it carries each class's canonical name, its cross-version bit, and its
// serializer. The on-disk class string is "C" + (platform prefix, unless
// crossversion) + name.
var classTable = [...]classTableEntry{
	ClassEventResData:   {"EventResData", true, serializeEventResData},
	ClassWavResData:     {"WavResData", false, serializeWavResData},
	ClassSwitchResData:  {"SwitchResData", true, serializeSwitchResData},
	ClassRandomResData:  {"RandomResData", true, serializeRandomResData},
	ClassProgramResData: {"ProgramResData", true, serializeProgramResData},
	ClassWaveFileIdObj:  {"WaveFileIdObj", false, serializeWaveFileIdObj},
}

var platformPrefixes = []string{"PC", "GC", "PS2", "PS3", "XBox"}

// classFromString parses an on-disk class name (e.g. "CGCWavResData") into
// its Class tag, returning ClassInvalid for anything unrecognized.
func classFromString(name string) Class {
	if !strings.HasPrefix(name, "C") {
		return ClassInvalid
	}
	name = name[1:]
	for _, p := range platformPrefixes {
		if strings.HasPrefix(name, p) {
			name = name[len(p):]
			break
		}
	}
	for c := Class(0); int(c) < len(classTable); c++ {
		if name == classTable[c].name {
			return c
		}
	}
	return ClassInvalid
}

// classToString forms the on-disk class name for c under version v.
func classToString(c Class, v Version) string {
	if int(c) < 0 || int(c) >= len(classTable) {
		return ""
	}
	entry := classTable[c]
	if entry.crossversion {
		return "C" + entry.name
	}
	return "C" + v.Platform() + entry.name
}
