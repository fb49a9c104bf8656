// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// eventsMagic opens every event log. The full header is 13 bytes:
// magic, flags, little-endian start nanoseconds.
const eventsMagic = "EVT1"

// Event record types. Fields after the type byte are unsigned varints.
const (
	// eventTypeResize records a terminal geometry change: elapsed
	// delta, output-offset delta, then absolute columns and rows.
	eventTypeResize byte = 0x01
)

// ResizeEvent is one decoded geometry change. Elapsed and Offset are
// absolute, resolved from the stored deltas; Cols and Rows are the
// terminal size after the change.
type ResizeEvent struct {
	Elapsed time.Duration
	Offset  int64
	Cols    uint16
	Rows    uint16
}

// EventWriter appends events to an open event log. Like the timing
// index, positions are delta-encoded and appends must be monotonic.
type EventWriter struct {
	w           io.Writer
	lastElapsed time.Duration
	lastOffset  int64
	scratch     []byte
}

// NewEventWriter writes the event log header to w. A session that
// never resizes leaves the file header-only, which readers accept.
func NewEventWriter(w io.Writer, start time.Time) (*EventWriter, error) {
	if _, err := w.Write(encodeHeader(eventsMagic, start)); err != nil {
		return nil, fmt.Errorf("write event header: %w", err)
	}
	return &EventWriter{w: w, scratch: make([]byte, 0, 26)}, nil
}

// AppendResize records a geometry change at the given elapsed time and
// output offset.
func (ew *EventWriter) AppendResize(elapsed time.Duration, offset int64, cols, rows uint16) error {
	if elapsed < ew.lastElapsed {
		return fmt.Errorf("event regression: elapsed %v before previous %v", elapsed, ew.lastElapsed)
	}
	if offset < ew.lastOffset {
		return fmt.Errorf("event regression: offset %d before previous %d", offset, ew.lastOffset)
	}
	ew.scratch = ew.scratch[:0]
	ew.scratch = append(ew.scratch, eventTypeResize)
	ew.scratch = appendUvarint(ew.scratch, uint64(elapsed-ew.lastElapsed))
	ew.scratch = appendUvarint(ew.scratch, uint64(offset-ew.lastOffset))
	ew.scratch = appendUvarint(ew.scratch, uint64(cols))
	ew.scratch = appendUvarint(ew.scratch, uint64(rows))
	if _, err := ew.w.Write(ew.scratch); err != nil {
		return fmt.Errorf("write resize event: %w", err)
	}
	ew.lastElapsed = elapsed
	ew.lastOffset = offset
	return nil
}

// ReadEvents decodes an entire event log. On a torn final record it
// returns every complete event alongside io.ErrUnexpectedEOF. An
// unknown record type stops decoding with an error naming the type,
// since later fields cannot be skipped without knowing their shape.
func ReadEvents(r io.Reader) (time.Time, []ResizeEvent, error) {
	br := bufio.NewReader(r)
	start, err := decodeHeader(br, eventsMagic)
	if err != nil {
		return time.Time{}, nil, err
	}
	var (
		events  []ResizeEvent
		elapsed time.Duration
		offset  int64
	)
	for {
		kind, err := br.ReadByte()
		if err == io.EOF {
			return start, events, nil
		}
		if err != nil {
			return start, events, fmt.Errorf("read event type: %w", err)
		}
		if kind != eventTypeResize {
			return start, events, fmt.Errorf("unknown event type 0x%02x after %d events", kind, len(events))
		}
		var fields [4]uint64
		for i := range fields {
			v, err := readUvarint(br)
			if err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return start, events, fmt.Errorf("read resize event: %w", err)
			}
			fields[i] = v
		}
		if fields[2] > 0xFFFF || fields[3] > 0xFFFF {
			return start, events, fmt.Errorf("resize event geometry %dx%d out of range", fields[2], fields[3])
		}
		elapsed += time.Duration(fields[0])
		offset += int64(fields[1])
		events = append(events, ResizeEvent{
			Elapsed: elapsed,
			Offset:  offset,
			Cols:    uint16(fields[2]),
			Rows:    uint16(fields[3]),
		})
	}
}
