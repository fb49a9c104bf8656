// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// ControllingTTY returns the first of stdin, stdout, stderr that is a
// terminal, or nil when the process has none (piped or daemonized
// invocations). The returned file is one of the standard streams, not
// a fresh descriptor; callers must not close it.
func ControllingTTY() *os.File {
	for _, candidate := range []*os.File{os.Stdin, os.Stdout, os.Stderr} {
		if term.IsTerminal(int(candidate.Fd())) {
			return candidate
		}
	}
	return nil
}

// RawGuard holds a terminal in raw mode and restores the saved state
// exactly once, no matter how many teardown paths run.
type RawGuard struct {
	file  *os.File
	state *term.State
	once  sync.Once
}

// EnterRaw switches the terminal to raw mode so keystrokes reach the
// child unmodified (no line buffering, no echo, no signal generation
// from control characters).
func EnterRaw(file *os.File) (*RawGuard, error) {
	state, err := term.MakeRaw(int(file.Fd()))
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	return &RawGuard{file: file, state: state}, nil
}

// Restore puts the terminal back into its saved state. Safe on a nil
// guard (headless sessions never enter raw mode) and safe to call more
// than once.
func (g *RawGuard) Restore() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		_ = term.Restore(int(g.file.Fd()), g.state)
	})
}
