// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Sidecar headers share one layout: an ASCII magic, a single flags
// byte (zero in this version), and the session's wall-clock start as
// a little-endian uint64 of Unix nanoseconds. Only the magic length
// differs between the timing index and the event log.

// encodeHeader builds a sidecar header for the given magic and start
// time.
func encodeHeader(magic string, start time.Time) []byte {
	header := make([]byte, 0, len(magic)+9)
	header = append(header, magic...)
	header = append(header, 0)
	header = binary.LittleEndian.AppendUint64(header, uint64(start.UnixNano()))
	return header
}

// decodeHeader reads and validates a sidecar header from r, returning
// the session start time it carries.
func decodeHeader(r *bufio.Reader, magic string) (time.Time, error) {
	header := make([]byte, len(magic)+9)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return time.Time{}, fmt.Errorf("read sidecar header: %w", io.ErrUnexpectedEOF)
		}
		return time.Time{}, fmt.Errorf("read sidecar header: %w", err)
	}
	if got := string(header[:len(magic)]); got != magic {
		return time.Time{}, fmt.Errorf("bad sidecar magic %q, want %q", got, magic)
	}
	if flags := header[len(magic)]; flags != 0 {
		return time.Time{}, fmt.Errorf("unsupported sidecar flags 0x%02x", flags)
	}
	ns := binary.LittleEndian.Uint64(header[len(magic)+1:])
	return time.Unix(0, int64(ns)), nil
}
