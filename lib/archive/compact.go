// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/termplex-foundation/termplex/tcap"
)

// Compact archives the capture at prefix: the raw logs and binary
// sidecars are compressed with method, the JSON sidecars are digested
// in place, and the manifest is written to the prefix's archive path.
// Files that do not shrink under compression are kept uncompressed
// and recorded with method "none". When removeOriginals is set, each
// successfully compressed file's original is deleted.
//
// The session must not be running; Compact reads every file to the
// end and assumes it is no longer growing.
func Compact(prefix string, method Method, removeOriginals bool) (Manifest, error) {
	if method != MethodZstd && method != MethodLZ4 {
		return Manifest{}, fmt.Errorf("compact method must be zstd or lz4, got %q", method)
	}
	paths := tcap.SessionPaths(prefix)
	if _, err := os.Stat(paths.Output); err != nil {
		return Manifest{}, fmt.Errorf("no capture at prefix %s: %w", prefix, err)
	}

	manifest := Manifest{
		Version:           manifestVersion,
		Method:            method.String(),
		CreatedAtUnixNano: time.Now().UnixNano(),
	}

	// Raw logs first, binary sidecars after; a failure partway leaves
	// originals intact because removal happens only after the whole
	// manifest is durably written.
	var compressed []string
	for _, path := range []string{paths.Input, paths.Output, paths.InputTiming, paths.OutputTiming, paths.OutputEvents} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		entry, err := compressFile(path, method)
		if err != nil {
			return Manifest{}, err
		}
		manifest.Files = append(manifest.Files, entry)
		if entry.Method != MethodNone.String() {
			compressed = append(compressed, path)
		}
	}
	for _, path := range []string{paths.Meta, paths.WS} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		entry, err := plainEntry(path)
		if err != nil {
			return Manifest{}, err
		}
		manifest.Files = append(manifest.Files, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode archive manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(paths.Archive, data, 0644); err != nil {
		return Manifest{}, fmt.Errorf("write archive manifest: %w", err)
	}

	if removeOriginals {
		for _, path := range compressed {
			if err := os.Remove(path); err != nil {
				return manifest, fmt.Errorf("remove original %s: %w", path, err)
			}
		}
	}
	return manifest, nil
}

// compressFile writes path's content compressed to path+suffix while
// digesting the original bytes. An output at least as large as the
// input is discarded in favor of keeping the original, recorded as
// method "none".
func compressFile(path string, method Method) (FileEntry, error) {
	in, err := os.Open(path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	stored := path + method.suffix()
	out, err := os.OpenFile(stored, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return FileEntry{}, fmt.Errorf("create %s: %w", stored, err)
	}

	var compressor io.WriteCloser
	switch method {
	case MethodZstd:
		compressor, err = zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			out.Close()
			os.Remove(stored)
			return FileEntry{}, fmt.Errorf("zstd writer: %w", err)
		}
	case MethodLZ4:
		compressor = lz4.NewWriter(out)
	default:
		out.Close()
		os.Remove(stored)
		return FileEntry{}, fmt.Errorf("unsupported compact method %q", method)
	}

	hasher := newDigest()
	rawSize, err := io.Copy(compressor, io.TeeReader(in, hasher))
	if err != nil {
		compressor.Close()
		out.Close()
		os.Remove(stored)
		return FileEntry{}, fmt.Errorf("compress %s: %w", path, err)
	}
	if err := compressor.Close(); err != nil {
		out.Close()
		os.Remove(stored)
		return FileEntry{}, fmt.Errorf("finish compressing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(stored)
		return FileEntry{}, fmt.Errorf("close %s: %w", stored, err)
	}

	storedInfo, err := os.Stat(stored)
	if err != nil {
		return FileEntry{}, fmt.Errorf("stat %s: %w", stored, err)
	}
	if storedInfo.Size() >= rawSize {
		// Incompressible (or empty). Keep the original as-is.
		if err := os.Remove(stored); err != nil {
			return FileEntry{}, fmt.Errorf("remove %s: %w", stored, err)
		}
		return FileEntry{
			Name:       filepath.Base(path),
			Stored:     filepath.Base(path),
			Method:     MethodNone.String(),
			RawSize:    rawSize,
			StoredSize: rawSize,
			Digest:     formatDigest(hasher),
		}, nil
	}

	return FileEntry{
		Name:       filepath.Base(path),
		Stored:     filepath.Base(stored),
		Method:     method.String(),
		RawSize:    rawSize,
		StoredSize: storedInfo.Size(),
		Digest:     formatDigest(hasher),
	}, nil
}

// plainEntry digests a file that stays uncompressed (the JSON
// sidecars, which stay readable without tooling).
func plainEntry(path string) (FileEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	digest, size, err := digestReader(file)
	if err != nil {
		return FileEntry{}, fmt.Errorf("digest %s: %w", path, err)
	}
	return FileEntry{
		Name:       filepath.Base(path),
		Stored:     filepath.Base(path),
		Method:     MethodNone.String(),
		RawSize:    size,
		StoredSize: size,
		Digest:     digest,
	}, nil
}
