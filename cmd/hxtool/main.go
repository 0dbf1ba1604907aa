/*
NAME
  hxtool: hx audio stream extraction tool

DESCRIPTION
  hxtool opens an hx2/hxaudio container and reports on, lists, or
  extracts the audio streams it carries.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// hxtool is a command-line front end for reading, listing, and extracting
// audio from hx2/hxaudio container files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Jba03/libhx2/codec/transcode"
	"github.com/Jba03/libhx2/codec/wav"
	"github.com/Jba03/libhx2/container/hx"
)

// Logging related constants, following the teacher's cmd/looper.
const (
	logPath      = "hxtool.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logVerbosity = logging.Debug
	logSuppress  = false
)

var log logging.Logger

func main() {
	infoFlag := flag.Bool("info", false, "print information about the input file")
	listFlag := flag.Bool("list", false, "list entry data")
	extractFlag := flag.String("extract", "", "extract a single audio stream by its 64-bit hex cuuid")
	extractArchiveFlag := flag.Bool("extract-archive", false, "extract every audio stream in the input file")
	outDirFlag := flag.String("outdir", "Output", "directory extracted .wav files are written to")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge}
	log = logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	v := hx.VersionFromExt(filepath.Ext(inputPath))
	if v == hx.VersionInvalid {
		log.Error("unrecognized container extension", "path", inputPath)
		os.Exit(1)
	}

	buf, err := os.ReadFile(inputPath)
	if err != nil {
		log.Error("reading input file failed", "path", inputPath, "error", err.Error())
		os.Exit(1)
	}

	ctx := hx.NewContext(v)
	ctx.Log = log
	ctx.ReadCallback = fileReadCallback(filepath.Dir(inputPath))

	if err := ctx.Open(buf); err != nil {
		log.Error("opening container failed", "path", inputPath, "error", err.Error())
		os.Exit(1)
	}
	log.Info("opened container", "path", inputPath, "version", v.String(), "entries", len(ctx.Entries))

	switch {
	case *infoFlag:
		fmt.Printf("Number of entries: %d\n", len(ctx.Entries))

	case *listFlag:
		listEntries(ctx)

	case *extractFlag != "":
		cuuid, err := parseCUUID(*extractFlag)
		if err != nil {
			log.Error("invalid cuuid", "value", *extractFlag, "error", err.Error())
			os.Exit(1)
		}
		entry := ctx.EntryLookup(cuuid)
		if entry == nil {
			log.Error("no entry with that cuuid", "cuuid", *extractFlag)
			os.Exit(1)
		}
		if err := extractEntry(entry, *outDirFlag); err != nil {
			log.Error("extraction failed", "cuuid", *extractFlag, "error", err.Error())
			os.Exit(1)
		}
		fmt.Println("Done.")

	case *extractArchiveFlag:
		written := 0
		for _, e := range ctx.Entries {
			if err := extractEntry(e, *outDirFlag); err != nil {
				log.Warning("skipped entry during archive extraction", "cuuid", e.CUUID.String(), "error", err.Error())
				continue
			}
			if e.Class == hx.ClassWaveFileIdObj {
				written++
			}
		}
		fmt.Printf("Done - wrote %d entries.\n", written)

	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("usage: hxtool [options] infile")
	fmt.Println()
	fmt.Println("  -info              print information about the input file")
	fmt.Println("  -list              list entry data")
	fmt.Println("  -extract <cuuid>   extract a single audio stream (64-bit hex cuuid)")
	fmt.Println("  -extract-archive   extract every audio stream in the input file")
	fmt.Println("  -outdir <dir>      directory extracted .wav files are written to (default Output)")
}

func parseCUUID(s string) (hx.CUUID, error) {
	var v uint64
	if _, err := fmt.Sscanf(s, "%016X", &v); err != nil {
		return 0, err
	}
	return hx.CUUID(v), nil
}

// fileReadCallback resolves an hx external-stream filename relative to
// dir, the input container's own directory, matching hxtool.c's
// read_callback. Every call opens the file, reads from it and closes it
// again; there is no shared handle for RAYMAN3.HST/Data.hst as in
// hxtool.c. A short read returns only the bytes actually read.
func fileReadCallback(dir string) hx.ReadCallback {
	return func(filename string, pos, size int64) ([]byte, error) {
		f, err := os.Open(filepath.Join(dir, filename))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf := make([]byte, size)
		n, err := f.ReadAt(buf, pos)
		if err != nil && err != io.EOF {
			return nil, err
		}
		return buf[:n], nil
	}
}

func listEntries(ctx *hx.Context) {
	for i, e := range ctx.Entries {
		fmt.Printf("%s %s (%d)\n", e.Class, e.CUUID, i)
		switch d := e.Data.(type) {
		case *hx.EventResData:
			fmt.Printf("  Name  = %s\n", d.Name)
			fmt.Printf("  Link  = %s\n", d.Link)
		case *hx.WaveFileIdObj:
			external := "no"
			if d.IDObj.Flags&hx.IdObjPtrFlagExternal != 0 {
				external = d.ExtStreamFilename
			}
			fmt.Printf("  External: %s\n", external)
			fmt.Printf("  Channels: %d\n", d.AudioStream.Info.NumChannels)
			fmt.Printf("  Sample rate: %.3fkHz\n", float64(d.AudioStream.Info.SampleRate)/1000)
			fmt.Printf("  Format: %s\n", d.AudioStream.Info.Format)
		}
		fmt.Println()
	}
}

// extractEntry decodes a WaveFileIdObj's audio to PCM and writes it as a
// .wav file under dir, following hxtool.c's extract_entry: named
// EXT-<CUUID>.wav for external streams, <CUUID>.wav otherwise.
func extractEntry(e *hx.Entry, dir string) error {
	d, ok := e.Data.(*hx.WaveFileIdObj)
	if !ok {
		return nil
	}

	pcm, err := transcode.ToPCM(&d.AudioStream)
	if err != nil {
		return err
	}
	out, err := wav.Write(pcm)
	if err != nil {
		return err
	}

	name := e.CUUID.String() + ".wav"
	if d.IDObj.Flags&hx.IdObjPtrFlagExternal != 0 {
		name = "EXT-" + name
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), out, 0o644)
}
