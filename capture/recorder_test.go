// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/termplex-foundation/termplex/tcap"
)

// testLogger returns a logger whose output the test can inspect for
// degraded-mode warnings.
func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buffer bytes.Buffer
	return slog.New(slog.NewTextHandler(&buffer, nil)), &buffer
}

func TestRecorderRoundTrip(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "session")
	logger, logOutput := testLogger()
	start := time.Unix(0, 1700000000000000000)

	recorder, err := openRecorder(prefix, start, logger)
	if err != nil {
		t.Fatalf("openRecorder: %v", err)
	}

	if err := recorder.recordInput([]byte("ls\r"), time.Millisecond); err != nil {
		t.Fatalf("recordInput: %v", err)
	}
	if err := recorder.recordOutput([]byte("README.md\r\n"), 2*time.Millisecond); err != nil {
		t.Fatalf("recordOutput: %v", err)
	}
	if err := recorder.recordOutput([]byte("$ "), 3*time.Millisecond); err != nil {
		t.Fatalf("recordOutput: %v", err)
	}
	recorder.recordResize(4*time.Millisecond, 100, 30)
	recorder.Close()

	if warnings := logOutput.String(); warnings != "" {
		t.Fatalf("unexpected warnings: %s", warnings)
	}

	paths := tcap.SessionPaths(prefix)
	inputLog, err := os.ReadFile(paths.Input)
	if err != nil {
		t.Fatalf("read input log: %v", err)
	}
	if string(inputLog) != "ls\r" {
		t.Errorf("input log: got %q, want %q", inputLog, "ls\r")
	}
	outputLog, err := os.ReadFile(paths.Output)
	if err != nil {
		t.Fatalf("read output log: %v", err)
	}
	if string(outputLog) != "README.md\r\n$ " {
		t.Errorf("output log: got %q, want %q", outputLog, "README.md\r\n$ ")
	}

	inputFile, err := os.Open(paths.InputTiming)
	if err != nil {
		t.Fatalf("open input timing: %v", err)
	}
	defer inputFile.Close()
	_, inputTiming, err := tcap.ReadTiming(inputFile)
	if err != nil {
		t.Fatalf("ReadTiming(input): %v", err)
	}
	if len(inputTiming) != 1 || inputTiming[0].Offset != int64(len(inputLog)) {
		t.Errorf("input timing: got %+v, want one record at offset %d", inputTiming, len(inputLog))
	}

	outputFile, err := os.Open(paths.OutputTiming)
	if err != nil {
		t.Fatalf("open output timing: %v", err)
	}
	defer outputFile.Close()
	_, outputTiming, err := tcap.ReadTiming(outputFile)
	if err != nil {
		t.Fatalf("ReadTiming(output): %v", err)
	}
	if len(outputTiming) != 2 {
		t.Fatalf("output timing records: got %d, want 2", len(outputTiming))
	}
	if final := outputTiming[len(outputTiming)-1].Offset; final != int64(len(outputLog)) {
		t.Errorf("final timing offset %d does not match output log length %d", final, len(outputLog))
	}

	eventsFile, err := os.Open(paths.OutputEvents)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer eventsFile.Close()
	_, events, err := tcap.ReadEvents(eventsFile)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].Cols != 100 || events[0].Rows != 30 {
		t.Errorf("resize geometry: got %dx%d, want 100x30", events[0].Cols, events[0].Rows)
	}
	if events[0].Offset != int64(len(outputLog)) {
		t.Errorf("resize offset: got %d, want %d", events[0].Offset, len(outputLog))
	}
}

func TestRecorderRawLogFailureIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prefix := filepath.Join(dir, "missing", "session")
	logger, _ := testLogger()

	_, err := openRecorder(prefix, time.Now(), logger)
	if err == nil {
		t.Fatal("expected error for prefix in a nonexistent directory")
	}
	if !strings.Contains(err.Error(), "open raw log") {
		t.Fatalf("error %q does not name the raw log", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing")); !os.IsNotExist(statErr) {
		t.Fatalf("capture must not create directories, stat: %v", statErr)
	}
}

func TestRecorderDegradesSidecarOnCollision(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "session")
	paths := tcap.SessionPaths(prefix)
	// A directory squatting on the timing index path makes its open
	// fail while the raw logs remain writable.
	if err := os.Mkdir(paths.InputTiming, 0755); err != nil {
		t.Fatalf("mkdir collision: %v", err)
	}
	logger, logOutput := testLogger()

	recorder, err := openRecorder(prefix, time.Now(), logger)
	if err != nil {
		t.Fatalf("openRecorder should degrade, not fail: %v", err)
	}
	if err := recorder.recordInput([]byte("still recorded"), time.Millisecond); err != nil {
		t.Fatalf("recordInput after degradation: %v", err)
	}
	recorder.Close()

	if !strings.Contains(logOutput.String(), "TCAP: warning") {
		t.Fatalf("log output %q lacks the TCAP warning", logOutput.String())
	}
	data, err := os.ReadFile(paths.Input)
	if err != nil {
		t.Fatalf("read input log: %v", err)
	}
	if string(data) != "still recorded" {
		t.Errorf("input log: got %q, want %q", data, "still recorded")
	}
	// The other sidecars are unaffected by the collision.
	if _, err := os.Stat(paths.OutputTiming); err != nil {
		t.Errorf("output timing sidecar missing: %v", err)
	}
}

func TestRecorderTruncatesPreviousRun(t *testing.T) {
	t.Parallel()
	prefix := filepath.Join(t.TempDir(), "session")
	paths := tcap.SessionPaths(prefix)
	if err := os.WriteFile(paths.Output, []byte(strings.Repeat("old", 1000)), 0644); err != nil {
		t.Fatalf("seed previous run: %v", err)
	}
	logger, _ := testLogger()

	recorder, err := openRecorder(prefix, time.Now(), logger)
	if err != nil {
		t.Fatalf("openRecorder: %v", err)
	}
	if err := recorder.recordOutput([]byte("new"), time.Millisecond); err != nil {
		t.Fatalf("recordOutput: %v", err)
	}
	recorder.Close()

	data, err := os.ReadFile(paths.Output)
	if err != nil {
		t.Fatalf("read output log: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("output log: got %q, want %q (previous run must be truncated)", data, "new")
	}
}

func TestRecorderCloseIdempotent(t *testing.T) {
	t.Parallel()
	logger, _ := testLogger()
	recorder, err := openRecorder(filepath.Join(t.TempDir(), "session"), time.Now(), logger)
	if err != nil {
		t.Fatalf("openRecorder: %v", err)
	}
	recorder.Close()
	recorder.Close()
}
