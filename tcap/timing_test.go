// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

var sessionStart = time.Unix(0, 1700000000000000000)

func TestTimingHeaderLayout(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	if _, err := NewTimingWriter(&buffer, sessionStart); err != nil {
		t.Fatalf("NewTimingWriter: %v", err)
	}

	header := buffer.Bytes()
	if len(header) != 14 {
		t.Fatalf("header length: got %d, want 14", len(header))
	}
	if got := string(header[:5]); got != "TIDX1" {
		t.Errorf("magic: got %q, want %q", got, "TIDX1")
	}
	if header[5] != 0 {
		t.Errorf("flags: got 0x%02x, want 0x00", header[5])
	}
	if got := binary.LittleEndian.Uint64(header[6:]); got != uint64(sessionStart.UnixNano()) {
		t.Errorf("start timestamp: got %d, want %d", got, sessionStart.UnixNano())
	}
}

func TestTimingRoundTrip(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	writer, err := NewTimingWriter(&buffer, sessionStart)
	if err != nil {
		t.Fatalf("NewTimingWriter: %v", err)
	}

	records := []TimingRecord{
		{Elapsed: 0, Offset: 12},
		{Elapsed: 1500 * time.Microsecond, Offset: 12},
		{Elapsed: 40 * time.Millisecond, Offset: 1036},
		{Elapsed: 40 * time.Millisecond, Offset: 2060},
		{Elapsed: 3 * time.Second, Offset: 2061},
	}
	for index, record := range records {
		if err := writer.Append(record.Elapsed, record.Offset); err != nil {
			t.Fatalf("Append[%d]: %v", index, err)
		}
	}

	start, got, err := ReadTiming(&buffer)
	if err != nil {
		t.Fatalf("ReadTiming: %v", err)
	}
	if start.UnixNano() != sessionStart.UnixNano() {
		t.Errorf("start: got %d, want %d", start.UnixNano(), sessionStart.UnixNano())
	}
	if len(got) != len(records) {
		t.Fatalf("record count: got %d, want %d", len(got), len(records))
	}
	for index, want := range records {
		if got[index] != want {
			t.Errorf("record[%d]: got %+v, want %+v", index, got[index], want)
		}
	}
}

func TestTimingEncodesDeltas(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	writer, err := NewTimingWriter(&buffer, sessionStart)
	if err != nil {
		t.Fatalf("NewTimingWriter: %v", err)
	}
	if err := writer.Append(300, 1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := writer.Append(428, 129); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// First record is (300, 1) absolute, second (128, 128) relative.
	want := []byte{0xac, 0x02, 0x01, 0x80, 0x01, 0x80, 0x01}
	if got := buffer.Bytes()[14:]; !bytes.Equal(got, want) {
		t.Fatalf("record bytes: got %x, want %x", got, want)
	}
}

func TestTimingHeaderOnly(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	if _, err := NewTimingWriter(&buffer, sessionStart); err != nil {
		t.Fatalf("NewTimingWriter: %v", err)
	}

	_, records, err := ReadTiming(&buffer)
	if err != nil {
		t.Fatalf("ReadTiming: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records: got %d, want 0", len(records))
	}
}

func TestTimingRejectsRegression(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		elapsed time.Duration
		offset  int64
	}{
		{name: "elapsed moves backwards", elapsed: 5 * time.Millisecond, offset: 300},
		{name: "offset moves backwards", elapsed: 20 * time.Millisecond, offset: 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			writer, err := NewTimingWriter(&bytes.Buffer{}, sessionStart)
			if err != nil {
				t.Fatalf("NewTimingWriter: %v", err)
			}
			if err := writer.Append(10*time.Millisecond, 200); err != nil {
				t.Fatalf("Append: %v", err)
			}
			err = writer.Append(test.elapsed, test.offset)
			if err == nil {
				t.Fatal("expected regression error")
			}
			if !strings.Contains(err.Error(), "regression") {
				t.Fatalf("error %q does not mention regression", err)
			}
		})
	}
}

func TestTimingTornRecord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tail []byte
	}{
		{name: "missing byte delta", tail: []byte{0x05}},
		{name: "varint cut mid-value", tail: []byte{0x05, 0x80}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var buffer bytes.Buffer
			writer, err := NewTimingWriter(&buffer, sessionStart)
			if err != nil {
				t.Fatalf("NewTimingWriter: %v", err)
			}
			if err := writer.Append(time.Millisecond, 64); err != nil {
				t.Fatalf("Append: %v", err)
			}
			buffer.Write(test.tail)

			_, records, err := ReadTiming(&buffer)
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("got error %v, want io.ErrUnexpectedEOF", err)
			}
			if len(records) != 1 {
				t.Fatalf("intact records: got %d, want 1", len(records))
			}
			if records[0].Offset != 64 {
				t.Errorf("record offset: got %d, want 64", records[0].Offset)
			}
		})
	}
}

func TestTimingRejectsBadHeader(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   []byte
		wantEOF bool
	}{
		{name: "empty file", input: nil, wantEOF: true},
		{name: "truncated header", input: []byte("TIDX1\x00abc"), wantEOF: true},
		{name: "wrong magic", input: append([]byte("TIDX0\x00"), make([]byte, 8)...)},
		{name: "unknown flags", input: append([]byte("TIDX1\x01"), make([]byte, 8)...)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := ReadTiming(bytes.NewReader(test.input))
			if err == nil {
				t.Fatal("expected header error")
			}
			if test.wantEOF && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("got error %v, want io.ErrUnexpectedEOF", err)
			}
		})
	}
}
