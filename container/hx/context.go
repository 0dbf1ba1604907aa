/*
NAME
  context.go

DESCRIPTION
  context.go implements the context/index engine: opening a container,
  validating the index magic and type, walking entries and dispatching
  their class serializers, resolving cross-entry references during
  post-read, and writing a container back out with a freshly built index.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import (
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

const (
	indexMagic      = 0x58444E49 // "INDX"
	indexTypeShort  = 1
	indexTypeLong   = 2
	platformTailLen = 32 // zero padding HXG/HX2 append after the index.
)

// ReadCallback reads up to size bytes of filename starting at pos, and
// returns exactly what was read. The library owns the returned buffer.
type ReadCallback func(filename string, pos, size int64) ([]byte, error)

// WriteCallback writes data to filename at pos.
type WriteCallback func(filename string, data []byte, pos int64) error

// Context is a container instance: its version, its entry sequence, and
// the caller-supplied I/O callbacks. A Context is not safe for concurrent
// use from multiple goroutines.
type Context struct {
	Version Version
	Entries []*Entry

	ReadCallback  ReadCallback
	WriteCallback WriteCallback
	ErrorCallback ErrorCallback

	// Log, if set, receives a structured record of every reported error
	// alongside the ErrorCallback notification. Optional.
	Log logging.Logger

	// IndexType selects the index record layout written by Write; Open
	// preserves whatever the source file used. Defaults to 2.
	IndexType uint32

	// Provenance, if non-empty, is a short ASCII string appended after
	// the trailing padding on write (an implementer's-choice marker, not
	// part of the read contract).
	Provenance string
}

// NewContext allocates an empty Context for version v.
func NewContext(v Version) *Context {
	return &Context{Version: v, IndexType: indexTypeLong}
}

func (ctx *Context) reportError(err error) error {
	if err == nil {
		return nil
	}
	if ctx.ErrorCallback != nil {
		ctx.ErrorCallback("[libhx2] " + err.Error())
	}
	if ctx.Log != nil {
		ctx.Log.Error(err.Error())
	}
	return err
}

// EntryLookup finds the entry with the given CUUID, or nil.
func (ctx *Context) EntryLookup(cuuid CUUID) *Entry {
	for _, e := range ctx.Entries {
		if e.CUUID == cuuid {
			return e
		}
	}
	return nil
}

// Open parses buf as a container file of the Context's Version.
func (ctx *Context) Open(buf []byte) error {
	if ctx.Version == VersionInvalid || int(ctx.Version) >= len(versionTable) {
		return ctx.reportError(ErrUnsupportedVersion)
	}

	s := NewReader(buf, ctx.Version.ByteOrder())

	var indexOffset uint32
	if err := s.U32(&indexOffset); err != nil {
		return ctx.reportError(err)
	}
	s.Seek(int(indexOffset))

	var indexCode, indexType, numEntries uint32
	if err := s.U32(&indexCode); err != nil {
		return ctx.reportError(err)
	}
	if indexCode != indexMagic {
		return ctx.reportError(errors.Wrapf(ErrInvalidIndexHeader, "got %X at offset %d", indexCode, indexOffset))
	}
	if err := s.U32(&indexType); err != nil {
		return ctx.reportError(err)
	}
	if indexType != indexTypeShort && indexType != indexTypeLong {
		return ctx.reportError(errors.Wrapf(ErrInvalidIndexType, "got %d", indexType))
	}
	if err := s.U32(&numEntries); err != nil {
		return ctx.reportError(err)
	}
	if numEntries == 0 {
		return ctx.reportError(ErrEmptyFile)
	}

	ctx.IndexType = indexType
	ctx.Entries = make([]*Entry, numEntries)
	seen := make(map[CUUID]bool, numEntries)

	for i := uint32(0); i < numEntries; i++ {
		e := &Entry{}
		ctx.Entries[i] = e

		var classNameLen uint32
		if err := s.U32(&classNameLen); err != nil {
			return ctx.reportError(err)
		}
		var className string
		if err := s.FixedString(&className, int(classNameLen)); err != nil {
			return ctx.reportError(err)
		}
		e.Class = classFromString(className)
		if e.Class == ClassInvalid {
			ctx.reportError(errors.Wrapf(ErrUnknownClassName, "%q", className))
		}

		var zero uint32
		if err := s.CUUID(&e.CUUID); err != nil {
			return ctx.reportError(err)
		}
		if err := s.U32(&e.fileOffset); err != nil {
			return ctx.reportError(err)
		}
		if err := s.U32(&e.fileSize); err != nil {
			return ctx.reportError(err)
		}
		if err := s.U32(&zero); err != nil {
			return ctx.reportError(err)
		}
		if zero != 0 {
			return ctx.reportError(errors.Errorf("hx: index record %d: reserved field is %d, want 0", i, zero))
		}

		var numLinks uint32
		if err := s.U32(&numLinks); err != nil {
			return ctx.reportError(err)
		}

		if indexType == indexTypeLong {
			e.Links = make([]CUUID, numLinks)
			for j := range e.Links {
				if err := s.CUUID(&e.Links[j]); err != nil {
					return ctx.reportError(err)
				}
			}

			var numLanguages uint32
			if err := s.U32(&numLanguages); err != nil {
				return ctx.reportError(err)
			}
			e.LanguageLinks = make([]LanguageLink, numLanguages)
			for j := range e.LanguageLinks {
				var code string
				if err := s.FixedString(&code, 4); err != nil {
					return ctx.reportError(err)
				}
				e.LanguageLinks[j].Language = languageFromCode(code)
				if err := s.U32(&e.LanguageLinks[j].Unknown); err != nil {
					return ctx.reportError(err)
				}
				if err := s.CUUID(&e.LanguageLinks[j].CUUID); err != nil {
					return ctx.reportError(err)
				}
			}
		}

		if seen[e.CUUID] {
			return ctx.reportError(errors.Wrapf(ErrDuplicateCUUID, "%v", e.CUUID))
		}
		seen[e.CUUID] = true
	}

	for i, e := range ctx.Entries {
		if e.Class == ClassInvalid {
			continue
		}
		savedPos := s.Pos()
		s.Seek(int(e.fileOffset))
		if err := ctx.readEntryBody(e, s); err != nil {
			return ctx.reportError(errors.Wrapf(err, "entry %d (%v)", i, e.CUUID))
		}
		s.Seek(savedPos)
	}

	ctx.postRead()
	return nil
}

// readEntryBody re-reads the class name and CUUID prelude as a
// redundancy check against the index record, then dispatches the class
// serializer for the payload.
func (ctx *Context) readEntryBody(e *Entry, s *Stream) error {
	var classNameLen uint32
	if err := s.U32(&classNameLen); err != nil {
		return err
	}
	var className string
	if err := s.FixedString(&className, int(classNameLen)); err != nil {
		return err
	}
	if classFromString(className) != e.Class {
		return errors.Wrapf(ErrClassMismatch, "index=%v body=%q", e.Class, className)
	}

	var cuuid CUUID
	if err := s.CUUID(&cuuid); err != nil {
		return err
	}
	if cuuid != e.CUUID {
		return errors.Wrapf(ErrCuuidMismatch, "index=%v body=%v", e.CUUID, cuuid)
	}

	bodySize := int(e.fileSize) - (4 + int(classNameLen) + 8)
	return classTable[e.Class].serialize(ctx, e, s, bodySize)
}

// writeEntryBody writes the class name + CUUID prelude, then dispatches
// the class serializer, recording the entry's resulting file offset and
// size.
func (ctx *Context) writeEntryBody(e *Entry, s *Stream) error {
	e.fileOffset = uint32(s.Pos())

	className := classToString(e.Class, ctx.Version)
	nameLen := uint32(len(className))
	if err := s.U32(&nameLen); err != nil {
		return err
	}
	if err := s.FixedString(&className, len(className)); err != nil {
		return err
	}
	cuuid := e.CUUID
	if err := s.CUUID(&cuuid); err != nil {
		return err
	}

	if err := classTable[e.Class].serialize(ctx, e, s, 0); err != nil {
		return err
	}
	e.fileSize = uint32(s.Pos()) - e.fileOffset
	return nil
}

// postRead runs the deterministic second pass over the fully constructed
// entry sequence: HXG event-name propagation, then language-link naming.
func (ctx *Context) postRead() {
	if ctx.Version == HXG {
		for _, e := range ctx.Entries {
			ev, ok := e.Data.(*EventResData)
			if !ok {
				continue
			}
			target := ctx.EntryLookup(ev.Link)
			if target == nil {
				continue
			}
			if wav, ok := target.Data.(*WavResData); ok {
				wav.Parent.Name = ev.Name
			}
		}
	}

	for _, e := range ctx.Entries {
		wav, ok := e.Data.(*WavResData)
		if !ok {
			continue
		}
		for _, link := range wav.Links {
			target := ctx.EntryLookup(link.CUUID)
			if target == nil {
				continue
			}
			wfo, ok := target.Data.(*WaveFileIdObj)
			if !ok {
				continue
			}
			wfo.Name = wav.Parent.Name + "_" + link.Language.Abbrev()
		}
	}
}

// Write serializes ctx back into a container file image.
func (ctx *Context) Write() ([]byte, error) {
	order := ctx.Version.ByteOrder()
	body := NewWriter(order)
	body.Advance(4) // reserve the index offset slot.

	index := NewWriter(order)
	indexType := ctx.IndexType
	if indexType == 0 {
		indexType = indexTypeLong
	}
	magic := uint32(indexMagic)
	var numEntries uint32
	for _, e := range ctx.Entries {
		if e.Class != ClassInvalid {
			numEntries++
		}
	}
	if err := index.U32(&magic); err != nil {
		return nil, ctx.reportError(err)
	}
	if err := index.U32(&indexType); err != nil {
		return nil, ctx.reportError(err)
	}
	if err := index.U32(&numEntries); err != nil {
		return nil, ctx.reportError(err)
	}

	for i, e := range ctx.Entries {
		// Invalid entries (those whose class could not be recognized on
		// read) are dropped on write: no body bytes, no index record.
		if e.Class == ClassInvalid {
			continue
		}
		if err := ctx.writeEntryBody(e, body); err != nil {
			return nil, ctx.reportError(errors.Wrapf(err, "entry %d (%v)", i, e.CUUID))
		}

		className := classToString(e.Class, ctx.Version)
		nameLen := uint32(len(className))
		if err := index.U32(&nameLen); err != nil {
			return nil, err
		}
		if err := index.FixedString(&className, len(className)); err != nil {
			return nil, err
		}
		cuuid := e.CUUID
		if err := index.CUUID(&cuuid); err != nil {
			return nil, err
		}
		fileOffset, fileSize := e.fileOffset, e.fileSize
		if err := index.U32(&fileOffset); err != nil {
			return nil, err
		}
		if err := index.U32(&fileSize); err != nil {
			return nil, err
		}
		var zero uint32
		if err := index.U32(&zero); err != nil {
			return nil, err
		}
		numLinks := uint32(len(e.Links))
		if err := index.U32(&numLinks); err != nil {
			return nil, err
		}

		if indexType == indexTypeLong {
			for j := range e.Links {
				link := e.Links[j]
				if err := index.CUUID(&link); err != nil {
					return nil, err
				}
			}
			numLanguages := uint32(len(e.LanguageLinks))
			if err := index.U32(&numLanguages); err != nil {
				return nil, err
			}
			for j := range e.LanguageLinks {
				ll := e.LanguageLinks[j]
				code := languageToCode(ll.Language)
				if err := index.FixedString(&code, 4); err != nil {
					return nil, err
				}
				if err := index.U32(&ll.Unknown); err != nil {
					return nil, err
				}
				if err := index.CUUID(&ll.CUUID); err != nil {
					return nil, err
				}
			}
		}
	}

	indexOffset := uint32(body.Pos())
	if err := body.RWBytes(index.Bytes()); err != nil {
		return nil, err
	}

	if ctx.Version == HXG || ctx.Version == HX2 {
		if err := body.RWBytes(make([]byte, platformTailLen)); err != nil {
			return nil, err
		}
	}
	if ctx.Provenance != "" {
		if err := body.RWBytes([]byte(ctx.Provenance)); err != nil {
			return nil, err
		}
	}

	body.Seek(0)
	if err := body.U32(&indexOffset); err != nil {
		return nil, err
	}

	return body.Bytes(), nil
}
