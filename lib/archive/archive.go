// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive compacts finished captures. Compaction compresses
// the bulky session files (raw logs and binary sidecars) in place,
// leaving the JSON sidecars readable, and writes a manifest with a
// keyed BLAKE3 digest of every file's original content so a capture
// can be verified long after the session ended. Open gives readers
// transparent access to a log whether or not it was compacted.
package archive

import "fmt"

// Method identifies the compression algorithm for compacted files.
// The names are stored in manifests and accepted in configuration;
// changing them breaks existing archives.
type Method uint8

const (
	// MethodNone stores the file uncompressed. Chosen automatically
	// when compression would not shrink the file.
	MethodNone Method = 0

	// MethodZstd compresses with zstd at its default level. Terminal
	// output is text-heavy and typically shrinks well here.
	MethodZstd Method = 1

	// MethodLZ4 compresses with LZ4 frames. Lower ratio than zstd
	// but much cheaper to decode, for archives that are replayed
	// often.
	MethodLZ4 Method = 2
)

// String returns the name stored in manifests.
func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodZstd:
		return "zstd"
	case MethodLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseMethod parses a method name from configuration or a manifest.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "none":
		return MethodNone, nil
	case "zstd":
		return MethodZstd, nil
	case "lz4":
		return MethodLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression method: %q", name)
	}
}

// suffix returns the filename suffix for files stored with m.
func (m Method) suffix() string {
	switch m {
	case MethodZstd:
		return ".zst"
	case MethodLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// Manifest is the archive sidecar written next to a compacted
// capture. Digests are computed over the original uncompressed bytes,
// so verification proves the archive still decodes to what the
// session recorded.
type Manifest struct {
	Version           int         `json:"version"`
	Method            string      `json:"method"`
	CreatedAtUnixNano int64       `json:"created_at_unix_ns"`
	Files             []FileEntry `json:"files"`
}

// FileEntry describes one archived file.
type FileEntry struct {
	// Name is the file's original basename; Stored is the basename
	// it lives under after compaction (equal to Name for files kept
	// uncompressed).
	Name       string `json:"name"`
	Stored     string `json:"stored"`
	Method     string `json:"method"`
	RawSize    int64  `json:"raw_size"`
	StoredSize int64  `json:"stored_size"`
	Digest     string `json:"digest"`
}

// manifestVersion is bumped when the manifest schema changes.
const manifestVersion = 1
