// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/tcap"
)

func requireProblem(t *testing.T, summary Summary, fragment string) {
	t.Helper()
	for _, problem := range summary.Problems {
		if strings.Contains(problem, fragment) {
			return
		}
	}
	t.Fatalf("problems %q lack %q", summary.Problems, fragment)
}

func TestInfoSummarizesCapture(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !summary.Ok() {
		t.Fatalf("unexpected problems: %q", summary.Problems)
	}
	if summary.Prefix != prefix {
		t.Errorf("prefix: got %q, want %q", summary.Prefix, prefix)
	}
	if summary.Meta.PID != 4321 {
		t.Errorf("meta pid: got %d, want 4321", summary.Meta.PID)
	}
	if got, want := summary.Output, (StreamSummary{
		RawBytes:     20,
		Records:      3,
		IndexedBytes: 20,
		Duration:     60 * time.Second,
	}); got != want {
		t.Errorf("output summary: got %+v, want %+v", got, want)
	}
	if got, want := summary.Input, (StreamSummary{
		RawBytes:     5,
		Records:      1,
		IndexedBytes: 5,
		Duration:     500 * time.Millisecond,
	}); got != want {
		t.Errorf("input summary: got %+v, want %+v", got, want)
	}
	if summary.Resizes != 2 {
		t.Errorf("resizes: got %d, want 2", summary.Resizes)
	}
	if summary.Duration != 60*time.Second {
		t.Errorf("duration: got %v, want 60s", summary.Duration)
	}
}

func TestInfoMissingCapture(t *testing.T) {
	t.Parallel()
	if _, err := Info(filepath.Join(t.TempDir(), "absent")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Info: got %v, want fs.ErrNotExist", err)
	}
}

func TestInfoEmptyPrefix(t *testing.T) {
	t.Parallel()
	if _, err := Info(""); err == nil {
		t.Fatal("expected an error for an empty prefix")
	}
}

func TestInfoFlagsShortRawLog(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	writeFile(t, paths.Output, "hello, wor")

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if summary.Output.RawBytes != 10 {
		t.Errorf("raw bytes: got %d, want 10", summary.Output.RawBytes)
	}
	requireProblem(t, summary, "timing index covers 20")
	if summary.Ok() {
		t.Error("Ok() must be false for an inconsistent capture")
	}
}

func TestInfoFlagsTornTimingIndex(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	info, err := os.Stat(paths.OutputTiming)
	if err != nil {
		t.Fatalf("stat timing index: %v", err)
	}
	if err := os.Truncate(paths.OutputTiming, info.Size()-1); err != nil {
		t.Fatalf("truncate timing index: %v", err)
	}

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	requireProblem(t, summary, "truncated after 2 records")
	if summary.Output.Records != 2 {
		t.Errorf("intact records: got %d, want 2", summary.Output.Records)
	}
}

func TestInfoFlagsMissingSidecars(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	for _, path := range []string{paths.OutputTiming, paths.OutputEvents, paths.Meta} {
		if err := os.Remove(path); err != nil {
			t.Fatalf("remove %s: %v", path, err)
		}
	}

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	requireProblem(t, summary, "output timing index missing")
	requireProblem(t, summary, "resize event log missing")
	requireProblem(t, summary, "session metadata missing")
	if summary.Output.RawBytes != 20 {
		t.Errorf("raw bytes survive sidecar loss: got %d, want 20", summary.Output.RawBytes)
	}
	if summary.Output.Records != 0 {
		t.Errorf("records without an index: got %d, want 0", summary.Output.Records)
	}
}

func TestInfoHeaderOnlyEventLogIsClean(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	writeEvents(t, paths.OutputEvents, nil)

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if summary.Resizes != 0 {
		t.Errorf("resizes: got %d, want 0", summary.Resizes)
	}
	if !summary.Ok() {
		t.Errorf("unexpected problems: %q", summary.Problems)
	}
}

func TestInfoFlagsEventBeyondLog(t *testing.T) {
	t.Parallel()
	prefix := writeReplayCapture(t, t.TempDir())
	paths := tcap.SessionPaths(prefix)
	writeEvents(t, paths.OutputEvents, []tcap.ResizeEvent{
		{Elapsed: time.Second, Offset: 999, Cols: 80, Rows: 24},
	})

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	requireProblem(t, summary, "beyond output log")
}

func TestInfoReadsCompactedCapture(t *testing.T) {
	t.Parallel()
	prefix, payload, chunks := writeCompressibleCapture(t, t.TempDir())
	if _, err := archive.Compact(prefix, archive.MethodLZ4, true); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	summary, err := Info(prefix)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !summary.Ok() {
		t.Fatalf("unexpected problems: %q", summary.Problems)
	}
	if got, want := summary.Output.RawBytes, int64(len(payload)); got != want {
		t.Errorf("decoded raw bytes: got %d, want %d", got, want)
	}
	if summary.Output.Records != chunks {
		t.Errorf("records: got %d, want %d", summary.Output.Records, chunks)
	}
	if summary.Resizes != 120 {
		t.Errorf("resizes: got %d, want 120", summary.Resizes)
	}
	if summary.Duration != time.Duration(chunks)*10*time.Millisecond {
		t.Errorf("duration: got %v, want %v", summary.Duration, time.Duration(chunks)*10*time.Millisecond)
	}
}
