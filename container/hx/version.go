/*
NAME
  version.go

DESCRIPTION
  version.go enumerates the container's platform/dialect tags and the
  per-version table of extension, platform name, endianness, and accepted
  audio formats.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package hx reads, edits, and writes hx2/hxaudio resource containers:
// the byte stream, the class serializers, and the context/index engine
// described by the ubi hxaudio family (.hxd, .hxc, .hx2, .hxg, .hxx, .hx3).
package hx

import (
	"encoding/binary"

	"github.com/Jba03/libhx2/audio"
)

// Version identifies a container's platform/dialect.
type Version int

const (
	HXD Version = iota // Rayman M/Arena, PC (legacy).
	HXC                // Rayman 3, PC.
	HX2                // Rayman 3, PlayStation 2.
	HXG                // Rayman 3, GameCube.
	HXX                // Rayman 3, Xbox (+HD).
	HX3                // Rayman 3, PlayStation 3 (HD).
	VersionInvalid
)

type versionInfo struct {
	ext          string
	platform     string
	order        binary.ByteOrder
	acceptedFmts []audio.Format
}

var versionTable = [...]versionInfo{
	HXD: {"hxd", "PC", binary.BigEndian, nil},
	HXC: {"hxc", "PC", binary.LittleEndian, []audio.Format{audio.PCM, audio.UBI}},
	HX2: {"hx2", "PS2", binary.LittleEndian, []audio.Format{audio.PSX}},
	HXG: {"hxg", "GC", binary.BigEndian, []audio.Format{audio.DSP}},
	HXX: {"hxx", "XBox", binary.BigEndian, nil},
	HX3: {"hx3", "PS3", binary.LittleEndian, nil},
}

// Ext returns the canonical lowercase file extension for v (without a
// leading dot).
func (v Version) Ext() string {
	if v < 0 || int(v) >= len(versionTable) {
		return ""
	}
	return versionTable[v].ext
}

// Platform returns the class-name platform prefix for v (e.g. "GC", "PS2").
func (v Version) Platform() string {
	if v < 0 || int(v) >= len(versionTable) {
		return ""
	}
	return versionTable[v].platform
}

// ByteOrder returns the wire byte order mandated for v.
func (v Version) ByteOrder() binary.ByteOrder {
	if v < 0 || int(v) >= len(versionTable) {
		return binary.LittleEndian
	}
	return versionTable[v].order
}

// AcceptsFormat reports whether v's platform accepts audio format f.
func (v Version) AcceptsFormat(f audio.Format) bool {
	if v < 0 || int(v) >= len(versionTable) {
		return false
	}
	for _, a := range versionTable[v].acceptedFmts {
		if a == f {
			return true
		}
	}
	return false
}

// VersionFromExt returns the Version whose extension matches ext
// (case-insensitive, with or without a leading dot), or VersionInvalid.
func VersionFromExt(ext string) Version {
	for len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	for v, info := range versionTable {
		if equalFold(info.ext, ext) {
			return Version(v)
		}
	}
	return VersionInvalid
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (v Version) String() string {
	if v < 0 || int(v) >= len(versionTable) {
		return "Invalid"
	}
	return versionTable[v].ext
}
