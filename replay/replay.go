// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/lib/clock"
	"github.com/termplex-foundation/termplex/tcap"
)

// Stream names accepted by Options.Stream.
const (
	StreamOutput = "output"
	StreamInput  = "input"
)

// Options configures a playback run.
type Options struct {
	// Prefix is the capture's log-file prefix, as given to the capture
	// tool.
	Prefix string

	// Stream selects which raw log to play back, StreamOutput or
	// StreamInput. Empty means StreamOutput.
	Stream string

	// Speed scales playback: 2 plays twice as fast, 0.5 at half speed.
	// Zero means original speed.
	Speed float64

	// IdleCap bounds the gap honored between consecutive writes, so
	// long pauses in the original session replay as at most IdleCap.
	// Zero replays gaps at full length.
	IdleCap time.Duration

	// Out receives the replayed bytes.
	Out io.Writer

	// OnResize, when set, is called as playback crosses the output
	// offset where the original terminal changed size. Only the output
	// stream carries resize events.
	OnResize func(tcap.ResizeEvent)

	// Clock paces playback. Nil means the real clock.
	Clock clock.Clock
}

// Play replays a captured stream against its timing index, pacing each
// chunk by the recorded inter-write gap. It returns nil once the whole
// stream has been written to Out, ctx.Err() if the context ends first,
// and an error wrapping io.ErrUnexpectedEOF when the raw log is
// shorter than its timing index claims. Compacted captures open
// transparently, logs and sidecars both.
func Play(ctx context.Context, opts Options) error {
	if opts.Prefix == "" {
		return errors.New("replay prefix must not be empty")
	}
	if opts.Out == nil {
		return errors.New("replay requires an output writer")
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	if !(speed > 0) {
		return fmt.Errorf("replay speed must be positive, got %v", opts.Speed)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	paths := tcap.SessionPaths(opts.Prefix)
	stream := opts.Stream
	if stream == "" {
		stream = StreamOutput
	}
	var rawPath, indexPath string
	switch stream {
	case StreamOutput:
		rawPath, indexPath = paths.Output, paths.OutputTiming
	case StreamInput:
		rawPath, indexPath = paths.Input, paths.InputTiming
	default:
		return fmt.Errorf("unknown stream %q, want %q or %q", stream, StreamOutput, StreamInput)
	}

	raw, err := archive.Open(rawPath)
	if err != nil {
		return fmt.Errorf("open raw log: %w", err)
	}
	defer raw.Close()

	indexFile, err := archive.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open timing index: %w", err)
	}
	defer indexFile.Close()
	index, err := tcap.NewTimingReader(indexFile)
	if err != nil {
		return fmt.Errorf("timing index %s: %w", indexPath, err)
	}

	var events []tcap.ResizeEvent
	if opts.OnResize != nil && stream == StreamOutput {
		events, err = readResizeEvents(paths.OutputEvents)
		if err != nil {
			return err
		}
	}

	source := bufio.NewReader(raw)
	var (
		offset    int64
		elapsed   time.Duration
		nextEvent int
	)
	// A resize recorded at offset N took effect once N bytes had been
	// emitted, so it fires before the bytes that follow it.
	fire := func(covered int64) {
		for nextEvent < len(events) && events[nextEvent].Offset <= covered {
			opts.OnResize(events[nextEvent])
			nextEvent++
		}
	}

	for {
		record, err := index.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		// Decoded elapsed times are non-decreasing because the index
		// stores unsigned deltas, so the gap is never negative.
		gap := time.Duration(float64(record.Elapsed-elapsed) / speed)
		if opts.IdleCap > 0 && gap > opts.IdleCap {
			gap = opts.IdleCap
		}
		elapsed = record.Elapsed
		if gap > 0 {
			select {
			case <-opts.Clock.After(gap):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		fire(offset)

		if length := record.Offset - offset; length > 0 {
			copied, err := io.CopyN(opts.Out, source, length)
			offset += copied
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("raw log ends at offset %d, timing index continues to %d: %w",
					offset, record.Offset, io.ErrUnexpectedEOF)
			}
			if err != nil {
				return fmt.Errorf("replay %s stream: %w", stream, err)
			}
		}
	}
	fire(offset)
	return nil
}

// readResizeEvents loads the resize log when the capture has one. A
// missing file is not an error (degraded captures run without the
// sidecar), and a torn tail yields the intact prefix.
func readResizeEvents(path string) ([]tcap.ResizeEvent, error) {
	file, err := archive.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open resize events: %w", err)
	}
	defer file.Close()
	_, events, err := tcap.ReadEvents(file)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("resize events %s: %w", path, err)
	}
	return events, nil
}
