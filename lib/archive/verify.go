// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/termplex-foundation/termplex/tcap"
)

// ReadManifest loads the archive manifest for a capture prefix.
func ReadManifest(prefix string) (Manifest, error) {
	path := tcap.SessionPaths(prefix).Archive
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read archive manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse archive manifest %s: %w", path, err)
	}
	if manifest.Version != manifestVersion {
		return Manifest{}, fmt.Errorf("archive manifest %s has version %d, this build reads %d",
			path, manifest.Version, manifestVersion)
	}
	return manifest, nil
}

// Verify recomputes every digest in the capture's archive manifest
// and reports all mismatches together. A nil return means every
// archived file still decodes to exactly what the session recorded.
func Verify(prefix string) error {
	manifest, err := ReadManifest(prefix)
	if err != nil {
		return err
	}
	dir := filepath.Dir(prefix)

	var problems []error
	for _, entry := range manifest.Files {
		if err := verifyEntry(dir, entry); err != nil {
			problems = append(problems, err)
		}
	}
	return errors.Join(problems...)
}

func verifyEntry(dir string, entry FileEntry) error {
	method, err := ParseMethod(entry.Method)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Name, err)
	}

	file, err := os.Open(filepath.Join(dir, entry.Stored))
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Name, err)
	}
	defer file.Close()

	var content io.Reader = file
	switch method {
	case MethodZstd:
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return fmt.Errorf("%s: zstd reader: %w", entry.Name, err)
		}
		defer decoder.Close()
		content = decoder
	case MethodLZ4:
		content = lz4.NewReader(file)
	}

	digest, size, err := digestReader(content)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Name, err)
	}
	if size != entry.RawSize {
		return fmt.Errorf("%s: decoded to %d bytes, manifest records %d", entry.Name, size, entry.RawSize)
	}
	if digest != entry.Digest {
		return fmt.Errorf("%s: content digest mismatch", entry.Name)
	}
	return nil
}
