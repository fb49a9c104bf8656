// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Open opens a capture file whether or not it has been compacted: it
// tries the plain path first, then the zstd and lz4 archived forms,
// decompressing transparently. The caller reads original content
// either way.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err == nil {
		return file, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if zstdFile, zstdErr := os.Open(path + ".zst"); zstdErr == nil {
		decoder, decErr := zstd.NewReader(zstdFile)
		if decErr != nil {
			zstdFile.Close()
			return nil, fmt.Errorf("open %s.zst: %w", path, decErr)
		}
		return &zstdReadCloser{decoder: decoder, file: zstdFile}, nil
	}

	if lz4File, lz4Err := os.Open(path + ".lz4"); lz4Err == nil {
		return &lz4ReadCloser{reader: lz4.NewReader(lz4File), file: lz4File}, nil
	}

	return nil, fmt.Errorf("open %s: %w", path, err)
}

type zstdReadCloser struct {
	decoder *zstd.Decoder
	file    *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.decoder.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.decoder.Close()
	return z.file.Close()
}

type lz4ReadCloser struct {
	reader *lz4.Reader
	file   *os.File
}

func (l *lz4ReadCloser) Read(p []byte) (int, error) { return l.reader.Read(p) }

func (l *lz4ReadCloser) Close() error { return l.file.Close() }
