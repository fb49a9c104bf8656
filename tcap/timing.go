// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// timingMagic opens every timing index. The full header is 14 bytes:
// magic, flags, little-endian start nanoseconds.
const timingMagic = "TIDX1"

// TimingRecord is one decoded timing entry with deltas already
// resolved to absolutes: Elapsed is the time since session start at
// which the write landed, Offset is the raw-log length after it.
type TimingRecord struct {
	Elapsed time.Duration
	Offset  int64
}

// TimingWriter appends timing records to an open index file. Records
// are delta-encoded against their predecessor, so appends must be
// monotonic in both time and offset. Each record goes out in a single
// Write call.
type TimingWriter struct {
	w           io.Writer
	lastElapsed time.Duration
	lastOffset  int64
	scratch     []byte
}

// NewTimingWriter writes the index header to w and returns a writer
// positioned for the first record. start is the session's wall-clock
// start time, recorded in the header.
func NewTimingWriter(w io.Writer, start time.Time) (*TimingWriter, error) {
	if _, err := w.Write(encodeHeader(timingMagic, start)); err != nil {
		return nil, fmt.Errorf("write timing header: %w", err)
	}
	return &TimingWriter{w: w, scratch: make([]byte, 0, 20)}, nil
}

// Append records one raw-log write: elapsed is the time since session
// start, offset the raw-log length after the write. Both must be at
// least their previous values.
func (tw *TimingWriter) Append(elapsed time.Duration, offset int64) error {
	if elapsed < tw.lastElapsed {
		return fmt.Errorf("timing regression: elapsed %v before previous %v", elapsed, tw.lastElapsed)
	}
	if offset < tw.lastOffset {
		return fmt.Errorf("timing regression: offset %d before previous %d", offset, tw.lastOffset)
	}
	tw.scratch = tw.scratch[:0]
	tw.scratch = appendUvarint(tw.scratch, uint64(elapsed-tw.lastElapsed))
	tw.scratch = appendUvarint(tw.scratch, uint64(offset-tw.lastOffset))
	if _, err := tw.w.Write(tw.scratch); err != nil {
		return fmt.Errorf("write timing record: %w", err)
	}
	tw.lastElapsed = elapsed
	tw.lastOffset = offset
	return nil
}

// TimingReader decodes a timing index sequentially, resolving the
// stored deltas back to absolute elapsed times and offsets.
type TimingReader struct {
	r       *bufio.Reader
	start   time.Time
	elapsed time.Duration
	offset  int64
}

// NewTimingReader validates the index header and returns a reader
// positioned at the first record.
func NewTimingReader(r io.Reader) (*TimingReader, error) {
	br := bufio.NewReader(r)
	start, err := decodeHeader(br, timingMagic)
	if err != nil {
		return nil, err
	}
	return &TimingReader{r: br, start: start}, nil
}

// Start returns the session start time recorded in the header.
func (tr *TimingReader) Start() time.Time { return tr.start }

// Next returns the next record. It returns io.EOF at a clean end of
// the index and io.ErrUnexpectedEOF when the file ends inside a
// record.
func (tr *TimingReader) Next() (TimingRecord, error) {
	deltaNS, err := readUvarint(tr.r)
	if err != nil {
		if err == io.EOF {
			return TimingRecord{}, io.EOF
		}
		return TimingRecord{}, fmt.Errorf("read timing record: %w", err)
	}
	deltaBytes, err := readUvarint(tr.r)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return TimingRecord{}, fmt.Errorf("read timing record: %w", err)
	}
	tr.elapsed += time.Duration(deltaNS)
	tr.offset += int64(deltaBytes)
	return TimingRecord{Elapsed: tr.elapsed, Offset: tr.offset}, nil
}

// ReadTiming decodes an entire timing index. On a torn final record it
// returns every complete record alongside io.ErrUnexpectedEOF so
// callers can still work with the intact prefix.
func ReadTiming(r io.Reader) (time.Time, []TimingRecord, error) {
	tr, err := NewTimingReader(r)
	if err != nil {
		return time.Time{}, nil, err
	}
	var records []TimingRecord
	for {
		rec, err := tr.Next()
		if err == io.EOF {
			return tr.start, records, nil
		}
		if err != nil {
			return tr.start, records, err
		}
		records = append(records, rec)
	}
}
