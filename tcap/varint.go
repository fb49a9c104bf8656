// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"encoding/binary"
	"io"
)

// appendUvarint appends the unsigned LEB128 encoding of v to dst and
// returns the extended slice. The encoding matches encoding/binary's
// Uvarint format: 1 byte for values below 128, at most 10 bytes for
// the full 64-bit range.
func appendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// readUvarint decodes one unsigned LEB128 varint from r. It returns
// io.EOF when r is exhausted at a value boundary, io.ErrUnexpectedEOF
// when input ends mid-value, and an overflow error for encodings that
// exceed 64 bits.
func readUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}
