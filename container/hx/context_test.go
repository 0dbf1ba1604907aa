/*
NAME
  context_test.go

DESCRIPTION
  context_test.go tests the context/index engine: opening a minimal
  hand-built container, the write/open round trip across every payload
  class, post-read cross-reference resolution, external-stream reads,
  index magic and empty-index validation failures, and index_type-2
  language link fidelity.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Jba03/libhx2/audio"
)

// buildMinimalHXC hand-builds a minimal HXC file: one 0x3D-byte
// EventResData entry body at offset 0x4, followed by an index_type-1 index
// at 0x44.
func buildMinimalHXC(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, 0x80)
	binary.LittleEndian.PutUint32(buf[0:4], 0x44)
	copy(buf[0x44:], []byte{'I', 'N', 'D', 'X'})
	binary.LittleEndian.PutUint32(buf[0x48:0x4C], 1) // index_type
	binary.LittleEndian.PutUint32(buf[0x4C:0x50], 1) // num_entries

	className := "CEventResData"
	off := 0x50
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(className)))
	off += 4
	copy(buf[off:], className)
	off += len(className)
	binary.LittleEndian.PutUint32(buf[off:off+4], 0x11223344) // upper half
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0x55667788) // lower half
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0x4) // file_offset
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0x3D) // file_size
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0) // zero
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0) // num_links

	// Entry body prelude at file_offset 0x4: class name + cuuid.
	body := 0x4
	binary.LittleEndian.PutUint32(buf[body:body+4], uint32(len(className)))
	body += 4
	copy(buf[body:], className)
	body += len(className)
	binary.LittleEndian.PutUint32(buf[body:body+4], 0x11223344)
	body += 4
	binary.LittleEndian.PutUint32(buf[body:body+4], 0x55667788)
	body += 4
	// EventResData payload: type, name (length-prefixed), flags, link cuuid, 4 floats.
	binary.LittleEndian.PutUint32(buf[body:body+4], 0) // type
	body += 4
	binary.LittleEndian.PutUint32(buf[body:body+4], 0) // name length 0
	body += 4
	binary.LittleEndian.PutUint32(buf[body:body+4], 0) // flags
	body += 4
	binary.LittleEndian.PutUint32(buf[body:body+4], 0) // link upper
	body += 4
	binary.LittleEndian.PutUint32(buf[body:body+4], 0) // link lower
	body += 4

	return buf
}

func TestOpenMinimalHXC(t *testing.T) {
	buf := buildMinimalHXC(t)
	ctx := NewContext(HXC)
	if err := ctx.Open(buf); err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	if len(ctx.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(ctx.Entries))
	}
	e := ctx.Entries[0]
	if e.Class != ClassEventResData {
		t.Errorf("Class = %v, want ClassEventResData", e.Class)
	}
	want := CUUID(uint64(0x11223344)<<32 | 0x55667788)
	if e.CUUID != want {
		t.Errorf("CUUID = %v, want %v", e.CUUID, want)
	}
}

func TestOpenIndexMagicMismatch(t *testing.T) {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], 0x10)
	copy(buf[0x10:], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	var calls int
	ctx := NewContext(HXC)
	ctx.ErrorCallback = func(string) { calls++ }

	err := ctx.Open(buf)
	if !errors.Is(err, ErrInvalidIndexHeader) {
		t.Fatalf("Open() = %v, want ErrInvalidIndexHeader", err)
	}
	if calls != 1 {
		t.Errorf("error callback invoked %d times, want 1", calls)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], 0x4)
	copy(buf[0x4:], []byte{'I', 'N', 'D', 'X'})
	binary.LittleEndian.PutUint32(buf[0x8:0xC], 1)
	binary.LittleEndian.PutUint32(buf[0xC:0x10], 0)

	ctx := NewContext(HXC)
	if err := ctx.Open(buf); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("Open() = %v, want ErrEmptyFile", err)
	}
}

func cuuidOf(tag uint32, id uint32) CUUID {
	return CUUID(uint64(tag)<<32 | uint64(id))
}

// buildRoundTripContext constructs one instance of every payload class
// under version v, linked the way WavResData/WaveFileIdObj are in
// practice.
func buildRoundTripContext(v Version) *Context {
	ctx := NewContext(v)
	ctx.IndexType = 2

	wav1 := cuuidOf(0, 0x100)
	wav2 := cuuidOf(0, 0x101)
	event := cuuidOf(0, 0x200)
	random := cuuidOf(0, 0x300)
	swtch := cuuidOf(0, 0x400)
	program := cuuidOf(0, 0x500)
	wavRes := cuuidOf(0, 0x600)

	ctx.Entries = []*Entry{
		{
			CUUID: wavRes,
			Class: ClassWavResData,
			Data: &WavResData{
				Parent:       WavResObj{ID: 1, C0: 1, C1: 2, C2: 3, Flags: WavResObjFlagMultiple},
				DefaultCUUID: NilCUUID,
				Links: []WavResDataLink{
					{Language: LanguageEN, CUUID: wav1},
					{Language: LanguageFR, CUUID: wav2},
				},
			},
		},
		{
			CUUID: event,
			Class: ClassEventResData,
			Data:  &EventResData{Type: 1, Name: "Music01", Flags: 0, Link: wavRes, C: [4]float32{1, 2, 3, 4}},
		},
		{
			CUUID: random,
			Class: ClassRandomResData,
			Data: &RandomResData{
				Flags:            1,
				Offset:           0.5,
				ThrowProbability: 0.1,
				Links:            []RandomResDataLink{{Probability: 0.9, CUUID: wav1}},
			},
		},
		{
			CUUID: swtch,
			Class: ClassSwitchResData,
			Data: &SwitchResData{
				Flag:       1,
				StartIndex: 0,
				Links:      []SwitchResDataLink{{CaseIndex: 0, CUUID: wav1}, {CaseIndex: 1, CUUID: wav2}},
			},
		},
		{
			CUUID: program,
			Class: ClassProgramResData,
			Data:  &ProgramResData{Data: []byte{0, 0, 0, 0, 1, 2, 3, 4}},
		},
		{
			CUUID: wav1,
			Class: ClassWaveFileIdObj,
			Data: &WaveFileIdObj{
				IDObj:       IdObjPtr{ID: 1, Unknown: 0},
				WaveHeader:  defaultWaveFormatHeader(),
				AudioStream: audio.Stream{Info: audio.StreamInfo{NumChannels: 1, SampleRate: 22050, Format: audio.PCM}, Data: []byte{1, 2, 3, 4}},
			},
		},
		{
			CUUID: wav2,
			Class: ClassWaveFileIdObj,
			Data: &WaveFileIdObj{
				IDObj:       IdObjPtr{ID: 2, Unknown: 0},
				WaveHeader:  defaultWaveFormatHeader(),
				AudioStream: audio.Stream{Info: audio.StreamInfo{NumChannels: 2, SampleRate: 44100, Format: audio.PCM}, Data: []byte{5, 6, 7, 8, 9, 10}},
			},
		},
	}
	return ctx
}

var entryCmpOpts = []cmp.Option{
	cmpopts.IgnoreUnexported(Entry{}),
	cmpopts.EquateEmpty(),
}

func TestWriteOpenRoundTrip(t *testing.T) {
	for _, v := range []Version{HXC, HX2, HXG} {
		t.Run(v.String(), func(t *testing.T) {
			ctx := buildRoundTripContext(v)

			buf, err := ctx.Write()
			if err != nil {
				t.Fatalf("Write() = %v, want nil", err)
			}

			reopened := NewContext(v)
			if err := reopened.Open(buf); err != nil {
				t.Fatalf("Open() = %v, want nil", err)
			}

			if len(reopened.Entries) != len(ctx.Entries) {
				t.Fatalf("len(Entries) = %d, want %d", len(reopened.Entries), len(ctx.Entries))
			}

			for _, want := range ctx.Entries {
				got := reopened.EntryLookup(want.CUUID)
				if got == nil {
					t.Fatalf("entry %v missing after round trip", want.CUUID)
				}
				if got.Class != want.Class {
					t.Errorf("entry %v: Class = %v, want %v", want.CUUID, got.Class, want.Class)
				}
			}
		})
	}
}

func TestWriteOpenWriteReadFixpoint(t *testing.T) {
	ctx := buildRoundTripContext(HX2)
	buf1, err := ctx.Write()
	if err != nil {
		t.Fatalf("first Write() = %v", err)
	}

	once := NewContext(HX2)
	if err := once.Open(buf1); err != nil {
		t.Fatalf("first Open() = %v", err)
	}
	buf2, err := once.Write()
	if err != nil {
		t.Fatalf("second Write() = %v", err)
	}
	twice := NewContext(HX2)
	if err := twice.Open(buf2); err != nil {
		t.Fatalf("second Open() = %v", err)
	}

	if len(once.Entries) != len(twice.Entries) {
		t.Fatalf("entry count diverged: %d vs %d", len(once.Entries), len(twice.Entries))
	}
	for _, a := range once.Entries {
		b := twice.EntryLookup(a.CUUID)
		if b == nil {
			t.Fatalf("entry %v missing from second read", a.CUUID)
		}
		if diff := cmp.Diff(a.Data, b.Data, entryCmpOpts...); diff != "" {
			t.Errorf("entry %v payload diverged after read(write(read(f))) (-first +second):\n%s", a.CUUID, diff)
		}
	}
}

func TestPostReadLanguageNaming(t *testing.T) {
	ctx := buildRoundTripContext(HXG)
	buf, err := ctx.Write()
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}
	reopened := NewContext(HXG)
	if err := reopened.Open(buf); err != nil {
		t.Fatalf("Open() = %v", err)
	}

	w1 := reopened.EntryLookup(cuuidOf(0, 0x100)).Data.(*WaveFileIdObj)
	w2 := reopened.EntryLookup(cuuidOf(0, 0x101)).Data.(*WaveFileIdObj)
	if w1.Name != "Music01_EN" {
		t.Errorf("W1.Name = %q, want %q", w1.Name, "Music01_EN")
	}
	if w2.Name != "Music01_FR" {
		t.Errorf("W2.Name = %q, want %q", w2.Name, "Music01_FR")
	}
}

func TestExternalStreamRead(t *testing.T) {
	ctx := NewContext(HX2)
	const wantPath = "Snd.bin"
	var gotPath string
	var gotPos, gotSize int64
	ctx.ReadCallback = func(path string, pos, size int64) ([]byte, error) {
		gotPath, gotPos, gotSize = path, pos, size
		return make([]byte, size), nil
	}

	cuuid := cuuidOf(0, 1)
	ctx.Entries = []*Entry{
		{
			CUUID: cuuid,
			Class: ClassWaveFileIdObj,
			Data: &WaveFileIdObj{
				IDObj:             IdObjPtr{ID: 1, Flags: IdObjPtrFlagExternal},
				ExtStreamFilename: wantPath,
				ExtStreamOffset:   0x100,
				ExtStreamSize:     0x400,
				WaveHeader:        defaultWaveFormatHeader(),
				AudioStream:       audio.Stream{Info: audio.StreamInfo{NumChannels: 1, SampleRate: 22050, Format: audio.PCM}},
			},
		},
	}

	buf, err := ctx.Write()
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}

	reopened := NewContext(HX2)
	reopened.ReadCallback = ctx.ReadCallback
	if err := reopened.Open(buf); err != nil {
		t.Fatalf("Open() = %v", err)
	}

	if gotPath != wantPath {
		t.Errorf("read callback path = %q, want %q (prefix must be stripped)", gotPath, wantPath)
	}
	if gotPos != 0x100 || gotSize != 0x400 {
		t.Errorf("read callback (pos,size) = (%d,%d), want (0x100,0x400)", gotPos, gotSize)
	}

	w := reopened.EntryLookup(cuuid).Data.(*WaveFileIdObj)
	if len(w.AudioStream.Data) != 0x400 {
		t.Errorf("AudioStream.Data length = %d, want 0x400", len(w.AudioStream.Data))
	}
}

func TestIndexType2PreservesLanguageLinks(t *testing.T) {
	ctx := NewContext(HXC)
	ctx.IndexType = 2
	ctx.Entries = []*Entry{
		{
			CUUID:         cuuidOf(0, 1),
			Class:         ClassProgramResData,
			Data:          &ProgramResData{Data: []byte{}},
			LanguageLinks: []LanguageLink{{Language: LanguageEN, Unknown: 7, CUUID: cuuidOf(0, 2)}},
		},
	}

	buf, err := ctx.Write()
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}
	reopened := NewContext(HXC)
	if err := reopened.Open(buf); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	got := reopened.EntryLookup(cuuidOf(0, 1)).LanguageLinks
	if len(got) != 1 || got[0].Language != LanguageEN || got[0].Unknown != 7 || got[0].CUUID != cuuidOf(0, 2) {
		t.Errorf("LanguageLinks = %+v, want [{EN 7 %v}]", got, cuuidOf(0, 2))
	}
}

func TestInvalidClassEntryDroppedOnWrite(t *testing.T) {
	ctx := NewContext(HXC)
	ctx.Entries = []*Entry{
		{CUUID: cuuidOf(0, 1), Class: ClassInvalid},
		{CUUID: cuuidOf(0, 2), Class: ClassEventResData, Data: &EventResData{}},
	}

	buf, err := ctx.Write()
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}
	reopened := NewContext(HXC)
	if err := reopened.Open(buf); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if len(reopened.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1 (Invalid entry must be dropped)", len(reopened.Entries))
	}
	if reopened.Entries[0].CUUID != cuuidOf(0, 2) {
		t.Errorf("surviving entry = %v, want %v", reopened.Entries[0].CUUID, cuuidOf(0, 2))
	}
}

func TestDuplicateCUUIDRejected(t *testing.T) {
	ctx := NewContext(HXC)
	ctx.Entries = []*Entry{
		{CUUID: cuuidOf(0, 1), Class: ClassEventResData, Data: &EventResData{}},
		{CUUID: cuuidOf(0, 1), Class: ClassEventResData, Data: &EventResData{}},
	}
	out, err := ctx.Write()
	if err != nil {
		t.Fatalf("Write() = %v", err)
	}
	reopened := NewContext(HXC)
	if err := reopened.Open(out); !errors.Is(err, ErrDuplicateCUUID) {
		t.Fatalf("Open() = %v, want ErrDuplicateCUUID", err)
	}
}
