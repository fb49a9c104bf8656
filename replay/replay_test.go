// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/lib/clock"
	"github.com/termplex-foundation/termplex/lib/testutil"
	"github.com/termplex-foundation/termplex/tcap"
)

var replayStart = time.Unix(0, 1700000000000000000)

// writeReplayCapture fabricates a capture with known timing: three
// output chunks at 100ms, 250ms, and 60s, one input chunk at 500ms,
// and resize events at output offsets 0 and 7.
func writeReplayCapture(t *testing.T, dir string) string {
	t.Helper()
	prefix := filepath.Join(dir, "demo")
	paths := tcap.SessionPaths(prefix)

	writeFile(t, paths.Output, "hello, "+"world\r\n"+"again\r")
	writeTiming(t, paths.OutputTiming, []tcap.TimingRecord{
		{Elapsed: 100 * time.Millisecond, Offset: 7},
		{Elapsed: 250 * time.Millisecond, Offset: 14},
		{Elapsed: 60 * time.Second, Offset: 20},
	})
	writeFile(t, paths.Input, "exit\r")
	writeTiming(t, paths.InputTiming, []tcap.TimingRecord{
		{Elapsed: 500 * time.Millisecond, Offset: 5},
	})
	writeEvents(t, paths.OutputEvents, []tcap.ResizeEvent{
		{Elapsed: 0, Offset: 0, Cols: 80, Rows: 24},
		{Elapsed: 150 * time.Millisecond, Offset: 7, Cols: 120, Rows: 40},
	})
	if err := tcap.WriteMeta(paths.Meta, tcap.Meta{
		PID:               4321,
		Prefix:            prefix,
		Command:           []string{"/bin/sh"},
		Version:           "test",
		StartedAtUnixNano: replayStart.UnixNano(),
	}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}
	return prefix
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTiming(t *testing.T, path string, records []tcap.TimingRecord) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	writer, err := tcap.NewTimingWriter(file, replayStart)
	if err != nil {
		t.Fatalf("NewTimingWriter: %v", err)
	}
	for _, record := range records {
		if err := writer.Append(record.Elapsed, record.Offset); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func writeEvents(t *testing.T, path string, events []tcap.ResizeEvent) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	writer, err := tcap.NewEventWriter(file, replayStart)
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	for _, event := range events {
		if err := writer.AppendResize(event.Elapsed, event.Offset, event.Cols, event.Rows); err != nil {
			t.Fatalf("AppendResize: %v", err)
		}
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func startPlay(ctx context.Context, opts Options) <-chan error {
	done := make(chan error, 1)
	go func() { done <- Play(ctx, opts) }()
	return done
}

// step waits for playback to block on the clock, then releases it by
// advancing the given gap.
func step(clk *clock.FakeClock, gap time.Duration) {
	clk.WaitForTimers(1)
	clk.Advance(gap)
}

func TestPlayWritesOutputInOrder(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    &buf,
		Clock:  clk,
	})
	step(clk, 100*time.Millisecond)
	step(clk, 150*time.Millisecond)
	step(clk, 59750*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got, want := buf.String(), "hello, world\r\nagain\r"; got != want {
		t.Errorf("replayed bytes: got %q, want %q", got, want)
	}
}

func TestPlaySpeedScalesGaps(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Speed:  2,
		Out:    &buf,
		Clock:  clk,
	})

	// The first 100ms gap plays in 50ms at double speed: 49ms must not
	// release it.
	clk.WaitForTimers(1)
	clk.Advance(49 * time.Millisecond)
	if got := clk.PendingCount(); got != 1 {
		t.Fatalf("pending waits after 49ms: got %d, want 1", got)
	}
	clk.Advance(1 * time.Millisecond)
	step(clk, 75*time.Millisecond)
	step(clk, 29875*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got, want := buf.String(), "hello, world\r\nagain\r"; got != want {
		t.Errorf("replayed bytes: got %q, want %q", got, want)
	}
}

func TestPlayIdleCapClampsGaps(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer

	done := startPlay(context.Background(), Options{
		Prefix:  prefix,
		IdleCap: 200 * time.Millisecond,
		Out:     &buf,
		Clock:   clk,
	})
	step(clk, 100*time.Millisecond)
	step(clk, 150*time.Millisecond)
	// The original 59.75s pause replays as the cap.
	step(clk, 200*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got, want := buf.String(), "hello, world\r\nagain\r"; got != want {
		t.Errorf("replayed bytes: got %q, want %q", got, want)
	}
}

func TestPlayInputStream(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer
	resizes := 0

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Stream: StreamInput,
		Out:    &buf,
		Clock:  clk,
		OnResize: func(tcap.ResizeEvent) {
			resizes++
		},
	})
	step(clk, 500*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got, want := buf.String(), "exit\r"; got != want {
		t.Errorf("replayed bytes: got %q, want %q", got, want)
	}
	if resizes != 0 {
		t.Errorf("input stream fired %d resizes, want 0", resizes)
	}
}

func TestPlayFiresResizesAtOffsets(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer

	type firedResize struct {
		event tcap.ResizeEvent
		at    int
	}
	var fires []firedResize

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    &buf,
		Clock:  clk,
		OnResize: func(event tcap.ResizeEvent) {
			// Runs on the playback goroutine, so buf.Len() is the
			// number of bytes already replayed when the event fires.
			fires = append(fires, firedResize{event: event, at: buf.Len()})
		},
	})
	step(clk, 100*time.Millisecond)
	step(clk, 150*time.Millisecond)
	step(clk, 59750*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(fires) != 2 {
		t.Fatalf("resize fires: got %d, want 2", len(fires))
	}
	if fires[0].at != 0 || fires[0].event.Cols != 80 || fires[0].event.Rows != 24 {
		t.Errorf("first resize: got %dx%d at byte %d, want 80x24 at 0",
			fires[0].event.Cols, fires[0].event.Rows, fires[0].at)
	}
	if fires[1].at != 7 || fires[1].event.Cols != 120 || fires[1].event.Rows != 40 {
		t.Errorf("second resize: got %dx%d at byte %d, want 120x40 at 7",
			fires[1].event.Cols, fires[1].event.Rows, fires[1].at)
	}
}

func TestPlayCoalescedRecordsShareOneGap(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "burst")
	paths := tcap.SessionPaths(prefix)
	writeFile(t, paths.Output, "hello, world\r\n")
	writeTiming(t, paths.OutputTiming, []tcap.TimingRecord{
		{Elapsed: 100 * time.Millisecond, Offset: 7},
		{Elapsed: 100 * time.Millisecond, Offset: 14},
	})
	clk := clock.Fake(replayStart)
	var buf bytes.Buffer

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    &buf,
		Clock:  clk,
	})
	// Both records carry the same elapsed time, so a single wait
	// releases them both.
	step(clk, 100*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got, want := buf.String(), "hello, world\r\n"; got != want {
		t.Errorf("replayed bytes: got %q, want %q", got, want)
	}
}

func TestPlayToleratesMissingEventLog(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "degraded")
	paths := tcap.SessionPaths(prefix)
	writeFile(t, paths.Output, "hi\r\n")
	writeTiming(t, paths.OutputTiming, []tcap.TimingRecord{
		{Elapsed: 10 * time.Millisecond, Offset: 4},
	})
	clk := clock.Fake(replayStart)
	resizes := 0

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    io.Discard,
		Clock:  clk,
		OnResize: func(tcap.ResizeEvent) {
			resizes++
		},
	})
	step(clk, 10*time.Millisecond)

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if resizes != 0 {
		t.Errorf("fired %d resizes without an event log, want 0", resizes)
	}
}

func TestPlayShortRawLog(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	// Drop the back half of the output log; the index still claims 20
	// bytes.
	writeFile(t, paths.Output, "hello, wor")
	clk := clock.Fake(replayStart)

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    io.Discard,
		Clock:  clk,
	})
	step(clk, 100*time.Millisecond)
	step(clk, 150*time.Millisecond)

	err := testutil.RequireReceive(t, done, 5*time.Second, "playback fails")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Play: got %v, want io.ErrUnexpectedEOF", err)
	}
	if !strings.Contains(err.Error(), "offset 10") {
		t.Errorf("error %q does not name the offending offset", err)
	}
}

func TestPlayCanceledMidGap(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	clk := clock.Fake(replayStart)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := startPlay(ctx, Options{
		Prefix: prefix,
		Out:    io.Discard,
		Clock:  clk,
	})
	clk.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "playback stops")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Play: got %v, want context.Canceled", err)
	}
}

// writeCompressibleCapture fabricates a capture large and repetitive
// enough that Compact actually compresses the output log, its timing
// index, and the event log, so reads afterwards must go through the
// stored forms. Returns the prefix, the output payload, and the chunk
// count.
func writeCompressibleCapture(t *testing.T, dir string) (string, string, int) {
	t.Helper()
	prefix := filepath.Join(dir, "long")
	paths := tcap.SessionPaths(prefix)

	const line = "the quick brown fox jumps over the lazy dog\r\n"
	const chunks = 200
	payload := strings.Repeat(line, chunks)
	writeFile(t, paths.Output, payload)

	records := make([]tcap.TimingRecord, chunks)
	for i := range records {
		records[i] = tcap.TimingRecord{
			Elapsed: time.Duration(i+1) * 10 * time.Millisecond,
			Offset:  int64(i+1) * int64(len(line)),
		}
	}
	writeTiming(t, paths.OutputTiming, records)

	events := make([]tcap.ResizeEvent, 120)
	for i := range events {
		cols := uint16(80)
		if i%2 == 1 {
			cols = 120
		}
		events[i] = tcap.ResizeEvent{
			Elapsed: time.Duration(i) * 10 * time.Millisecond,
			Offset:  int64(i) * int64(len(line)),
			Cols:    cols,
			Rows:    24,
		}
	}
	writeEvents(t, paths.OutputEvents, events)

	writeFile(t, paths.Input, "exit\r")
	writeTiming(t, paths.InputTiming, []tcap.TimingRecord{
		{Elapsed: 500 * time.Millisecond, Offset: 5},
	})
	if err := tcap.WriteMeta(paths.Meta, tcap.Meta{
		PID:               4321,
		Prefix:            prefix,
		Command:           []string{"/bin/sh"},
		StartedAtUnixNano: replayStart.UnixNano(),
	}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}
	return prefix, payload, chunks
}

func TestPlayReadsCompactedLog(t *testing.T) {
	t.Parallel()
	prefix, payload, chunks := writeCompressibleCapture(t, t.TempDir())
	if _, err := archive.Compact(prefix, archive.MethodZstd, true); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	paths := tcap.SessionPaths(prefix)
	for _, plain := range []string{paths.Output, paths.OutputTiming, paths.OutputEvents} {
		if _, err := os.Stat(plain); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("compaction left %s in place, stat: %v", plain, err)
		}
	}

	clk := clock.Fake(replayStart)
	var buf bytes.Buffer
	resizes := 0

	done := startPlay(context.Background(), Options{
		Prefix: prefix,
		Out:    &buf,
		Clock:  clk,
		OnResize: func(tcap.ResizeEvent) {
			resizes++
		},
	})
	for range chunks {
		step(clk, 10*time.Millisecond)
	}

	if err := testutil.RequireReceive(t, done, 5*time.Second, "playback finishes"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if buf.String() != payload {
		t.Errorf("replayed %d bytes differ from original %d", buf.Len(), len(payload))
	}
	if resizes != 120 {
		t.Errorf("resize fires: got %d, want 120", resizes)
	}
}

func TestPlayMissingCapture(t *testing.T) {
	t.Parallel()
	err := Play(context.Background(), Options{
		Prefix: filepath.Join(t.TempDir(), "absent"),
		Out:    io.Discard,
	})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Play: got %v, want fs.ErrNotExist", err)
	}
}

func TestPlayValidatesOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts Options
	}{
		{name: "empty prefix", opts: Options{Out: io.Discard}},
		{name: "nil writer", opts: Options{Prefix: "x"}},
		{name: "negative speed", opts: Options{Prefix: "x", Out: io.Discard, Speed: -1}},
		{name: "unknown stream", opts: Options{Prefix: "x", Out: io.Discard, Stream: "both"}},
	}
	for _, test := range tests {
		if err := Play(context.Background(), test.opts); err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}
