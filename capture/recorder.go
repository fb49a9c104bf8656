// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/termplex-foundation/termplex/tcap"
)

// recorder owns every file a session writes. The raw logs are
// load-bearing: failing to open one aborts the session. Each sidecar
// degrades independently instead, so a full disk or a path collision
// on an index never costs the capture itself.
type recorder struct {
	paths  tcap.Paths
	logger *slog.Logger

	input  *os.File
	output *os.File

	inputTimingFile  *os.File
	outputTimingFile *os.File
	eventsFile       *os.File

	inputTiming  *tcap.TimingWriter
	outputTiming *tcap.TimingWriter
	events       *tcap.EventWriter

	inputOffset  int64
	outputOffset int64

	closeOnce sync.Once
}

// openRecorder opens the raw logs and sidecars for prefix, truncating
// leftovers from earlier runs so offsets and indices describe exactly
// one session. Raw-log failures are returned; sidecar failures are
// logged and leave that sidecar nil.
func openRecorder(prefix string, start time.Time, logger *slog.Logger) (*recorder, error) {
	r := &recorder{paths: tcap.SessionPaths(prefix), logger: logger}

	var err error
	r.input, err = openLog(r.paths.Input)
	if err != nil {
		return nil, err
	}
	r.output, err = openLog(r.paths.Output)
	if err != nil {
		r.input.Close()
		return nil, err
	}

	r.inputTimingFile, r.inputTiming = r.openTiming(r.paths.InputTiming, start)
	r.outputTimingFile, r.outputTiming = r.openTiming(r.paths.OutputTiming, start)
	r.eventsFile, r.events = r.openEvents(r.paths.OutputEvents, start)
	return r, nil
}

func openLog(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open raw log %s: %w", path, err)
	}
	return file, nil
}

func (r *recorder) openTiming(path string, start time.Time) (*os.File, *tcap.TimingWriter) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		r.warnSidecar(path, err)
		return nil, nil
	}
	writer, err := tcap.NewTimingWriter(file, start)
	if err != nil {
		r.warnSidecar(path, err)
		file.Close()
		return nil, nil
	}
	return file, writer
}

func (r *recorder) openEvents(path string, start time.Time) (*os.File, *tcap.EventWriter) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		r.warnSidecar(path, err)
		return nil, nil
	}
	writer, err := tcap.NewEventWriter(file, start)
	if err != nil {
		r.warnSidecar(path, err)
		file.Close()
		return nil, nil
	}
	return file, writer
}

// warnSidecar reports a disabled sidecar. The "TCAP: warning" prefix
// is part of the tool's observable surface; scripts grep for it.
func (r *recorder) warnSidecar(path string, err error) {
	r.logger.Warn("TCAP: warning: sidecar disabled, capture continues",
		"path", path, "error", err)
}

// recordInput appends data to the input log and its timing index.
// Only the raw write can fail the session.
func (r *recorder) recordInput(data []byte, elapsed time.Duration) error {
	if _, err := r.input.Write(data); err != nil {
		return fmt.Errorf("append input log: %w", err)
	}
	r.inputOffset += int64(len(data))
	if r.inputTiming != nil {
		if err := r.inputTiming.Append(elapsed, r.inputOffset); err != nil {
			r.warnSidecar(r.paths.InputTiming, err)
			r.inputTiming = nil
		}
	}
	return nil
}

// recordOutput appends data to the output log and its timing index.
func (r *recorder) recordOutput(data []byte, elapsed time.Duration) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("append output log: %w", err)
	}
	r.outputOffset += int64(len(data))
	if r.outputTiming != nil {
		if err := r.outputTiming.Append(elapsed, r.outputOffset); err != nil {
			r.warnSidecar(r.paths.OutputTiming, err)
			r.outputTiming = nil
		}
	}
	return nil
}

// recordResize appends a geometry event pinned to the current output
// offset. A degraded or absent event log makes this a no-op.
func (r *recorder) recordResize(elapsed time.Duration, columns, rows uint16) {
	if r.events == nil {
		return
	}
	if err := r.events.AppendResize(elapsed, r.outputOffset, columns, rows); err != nil {
		r.warnSidecar(r.paths.OutputEvents, err)
		r.events = nil
	}
}

// Close closes every open file. Later calls are no-ops, so teardown
// paths can run it without coordinating.
func (r *recorder) Close() {
	r.closeOnce.Do(func() {
		for _, file := range []*os.File{r.inputTimingFile, r.outputTimingFile, r.eventsFile, r.input, r.output} {
			if file != nil {
				file.Close()
			}
		}
	})
}
