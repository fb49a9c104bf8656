// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/tcap"
)

// Summary describes one capture for operators: its metadata, the size
// and timing coverage of each stream, and every consistency problem
// found while reading the sidecars.
type Summary struct {
	Prefix   string        `json:"prefix"`
	Meta     tcap.Meta     `json:"meta"`
	Output   StreamSummary `json:"output"`
	Input    StreamSummary `json:"input"`
	Resizes  int           `json:"resizes"`
	Duration time.Duration `json:"duration_ns"`
	Problems []string      `json:"problems,omitempty"`
}

// StreamSummary covers one raw log and its timing index. RawBytes is
// the decoded log length; IndexedBytes and Duration come from the last
// timing record.
type StreamSummary struct {
	RawBytes     int64         `json:"raw_bytes"`
	Records      int           `json:"records"`
	IndexedBytes int64         `json:"indexed_bytes"`
	Duration     time.Duration `json:"duration_ns"`
}

// Ok reports whether the capture passed every consistency check.
func (s Summary) Ok() bool { return len(s.Problems) == 0 }

// Info summarizes the capture at prefix without replaying it. Missing
// or damaged sidecars become Problems entries rather than errors; only
// a prefix with no output log at all (the anchor every capture writes)
// fails outright, with an error wrapping fs.ErrNotExist.
func Info(prefix string) (Summary, error) {
	if prefix == "" {
		return Summary{}, errors.New("info prefix must not be empty")
	}
	paths := tcap.SessionPaths(prefix)
	if !storedExists(paths.Output) {
		return Summary{}, fmt.Errorf("no capture at prefix %s: %w", prefix, fs.ErrNotExist)
	}

	summary := Summary{Prefix: prefix}
	var problems []string

	meta, err := tcap.ReadMeta(paths.Meta)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		problems = append(problems, "session metadata missing")
	case err != nil:
		problems = append(problems, fmt.Sprintf("session metadata unreadable: %v", err))
	default:
		summary.Meta = meta
	}

	output, outputProblems, err := summarizeStream(StreamOutput, paths.Output, paths.OutputTiming)
	if err != nil {
		return Summary{}, err
	}
	summary.Output = output
	problems = append(problems, outputProblems...)

	input, inputProblems, err := summarizeStream(StreamInput, paths.Input, paths.InputTiming)
	if err != nil {
		return Summary{}, err
	}
	summary.Input = input
	problems = append(problems, inputProblems...)

	resizes, eventProblems := summarizeEvents(paths.OutputEvents, summary.Output.RawBytes)
	summary.Resizes = resizes
	problems = append(problems, eventProblems...)

	summary.Duration = summary.Output.Duration
	if summary.Input.Duration > summary.Duration {
		summary.Duration = summary.Input.Duration
	}
	summary.Problems = problems
	return summary, nil
}

// storedExists reports whether path exists in any stored form, plain
// or compressed.
func storedExists(path string) bool {
	for _, candidate := range []string{path, path + ".zst", path + ".lz4"} {
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

// summarizeStream sizes one raw log and checks it against its timing
// index. Sidecar damage comes back as problem strings; only an
// unreadable raw log is an error.
func summarizeStream(name, rawPath, indexPath string) (StreamSummary, []string, error) {
	var s StreamSummary
	var problems []string

	raw, err := archive.Open(rawPath)
	if errors.Is(err, fs.ErrNotExist) {
		return s, []string{name + " raw log missing"}, nil
	}
	if err != nil {
		return s, nil, fmt.Errorf("open %s log: %w", name, err)
	}
	length, err := io.Copy(io.Discard, raw)
	raw.Close()
	if err != nil {
		return s, nil, fmt.Errorf("read %s log: %w", name, err)
	}
	s.RawBytes = length

	index, err := archive.Open(indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		problems = append(problems, name+" timing index missing, pacing unavailable")
		return s, problems, nil
	}
	if err != nil {
		return s, nil, fmt.Errorf("open %s timing index: %w", name, err)
	}
	_, records, readErr := tcap.ReadTiming(index)
	index.Close()
	switch {
	case errors.Is(readErr, io.ErrUnexpectedEOF):
		problems = append(problems, fmt.Sprintf("%s timing index truncated after %d records", name, len(records)))
	case readErr != nil:
		problems = append(problems, fmt.Sprintf("%s timing index unreadable: %v", name, readErr))
	}
	s.Records = len(records)
	if len(records) > 0 {
		last := records[len(records)-1]
		s.IndexedBytes = last.Offset
		s.Duration = last.Elapsed
	}
	if readErr == nil && s.IndexedBytes != s.RawBytes {
		problems = append(problems, fmt.Sprintf("%s raw log has %d bytes, timing index covers %d", name, s.RawBytes, s.IndexedBytes))
	}
	return s, problems, nil
}

// summarizeEvents counts resize events and checks that they stay
// within the output log. Event offsets are non-decreasing, so the last
// one bounds them all.
func summarizeEvents(path string, outputBytes int64) (int, []string) {
	file, err := archive.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, []string{"resize event log missing"}
	}
	if err != nil {
		return 0, []string{fmt.Sprintf("resize event log unreadable: %v", err)}
	}
	_, events, readErr := tcap.ReadEvents(file)
	file.Close()

	var problems []string
	switch {
	case errors.Is(readErr, io.ErrUnexpectedEOF):
		problems = append(problems, fmt.Sprintf("resize event log truncated after %d events", len(events)))
	case readErr != nil:
		problems = append(problems, fmt.Sprintf("resize event log unreadable: %v", readErr))
	}
	if len(events) > 0 {
		if last := events[len(events)-1]; last.Offset > outputBytes {
			problems = append(problems, fmt.Sprintf("resize event at offset %d beyond output log (%d bytes)", last.Offset, outputBytes))
		}
	}
	return len(events), problems
}
