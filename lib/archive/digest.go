// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// fileDomainKey is the BLAKE3 key for archive file digests. Domain
// separation keeps these digests distinct from any other BLAKE3 use of
// the same bytes. The value is the ASCII domain name zero-padded to 32
// bytes, which keeps the key recognizable in hex dumps without costing
// any cryptographic property.
var fileDomainKey = [32]byte{
	't', 'e', 'r', 'm', 'p', 'l', 'e', 'x', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e',
	'.', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// newDigest returns a keyed hasher for archive file content. The
// hasher implements io.Writer, so callers stream file bytes through it.
func newDigest() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		// NewKeyed only fails for a wrong key length, which the
		// fixed-size array rules out.
		panic("archive: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// formatDigest renders a digest the way manifests store it.
func formatDigest(hasher *blake3.Hasher) string {
	return hex.EncodeToString(hasher.Sum(nil))
}

// digestReader computes the archive digest of everything read from r.
func digestReader(r io.Reader) (string, int64, error) {
	hasher := newDigest()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return "", 0, fmt.Errorf("digest content: %w", err)
	}
	return formatDigest(hasher), n, nil
}
