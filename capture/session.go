// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/termplex-foundation/termplex/lib/clock"
	"github.com/termplex-foundation/termplex/tcap"
)

const (
	// DefaultReadChunk bounds a single relay read in either direction.
	// Each read becomes one raw-log write and one timing record.
	DefaultReadChunk = 1024

	// DefaultWSSendBuffer is the send-buffer size recorded in the
	// websocket stub descriptor when the flag is omitted.
	DefaultWSSendBuffer = 1 << 20

	// drainTimeout caps how long teardown waits for residual output
	// after the child exits. An orphaned grandchild can hold the
	// slave open indefinitely; the capture must not wait for it.
	drainTimeout = 250 * time.Millisecond

	// reapTimeout is how long teardown waits for the child after
	// SIGTERM before escalating to SIGKILL.
	reapTimeout = 2 * time.Second

	// Geometry applied when the session has no controlling terminal.
	defaultColumns = 80
	defaultRows    = 24
)

// WSOptions carries the websocket flags. They are recorded in a stub
// descriptor next to the logs; no server is started.
type WSOptions struct {
	Requested   bool
	Listen      string
	TokenSet    bool
	AllowRemote bool
	SendBuffer  int64
}

// Options configures one capture session.
type Options struct {
	// Prefix is the path prefix every produced file is named under.
	Prefix string

	// Command is the argv to spawn. Required; callers resolve the
	// default shell before building Options.
	Command []string

	// Term is the TERM value the child sees. Empty leaves the
	// inherited value alone.
	Term string

	// ReadChunk bounds a single read from either direction. Zero
	// means DefaultReadChunk.
	ReadChunk int

	// WS is the websocket stub configuration.
	WS WSOptions

	// Terminal is the controlling terminal, if any: it supplies the
	// initial geometry, is switched to raw mode for the session, and
	// its SIGWINCH updates propagate to the child. nil runs headless
	// at the default geometry.
	Terminal *os.File

	// Stdin and Stdout are the relay endpoints, defaulting to the
	// process's own. Tests substitute pipes here.
	Stdin  io.Reader
	Stdout io.Writer

	Logger *slog.Logger
	Clock  clock.Clock

	// Version is recorded in the session metadata.
	Version string
}

// Result describes how the child ended. ExitCode is -1 when the child
// was killed by a signal; Signal then names it.
type Result struct {
	ExitCode int
	Signal   string
}

// Run captures one session: spawn the command on a fresh PTY, relay
// bytes until the child exits or shutdown is requested, and tear
// everything down in order. It returns an error only for setup
// failures, before the session was live; once live, relay failures
// end the session gracefully with the logs valid up to that point.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Prefix == "" {
		return Result{}, fmt.Errorf("empty log prefix")
	}
	if len(opts.Command) == 0 {
		return Result{}, fmt.Errorf("no command to run")
	}
	if opts.ReadChunk <= 0 {
		opts.ReadChunk = DefaultReadChunk
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	start := opts.Clock.Now()
	elapsed := func() time.Duration { return opts.Clock.Now().Sub(start) }

	recorder, err := openRecorder(opts.Prefix, start, opts.Logger)
	if err != nil {
		return Result{}, err
	}

	pty, err := OpenPTY()
	if err != nil {
		recorder.Close()
		return Result{}, err
	}

	columns, rows := uint16(defaultColumns), uint16(defaultRows)
	if opts.Terminal != nil {
		if width, height, sizeErr := term.GetSize(int(opts.Terminal.Fd())); sizeErr == nil {
			columns, rows = uint16(width), uint16(height)
		}
	}
	if err := pty.SetSize(columns, rows); err != nil {
		opts.Logger.Warn("TCAP: warning: could not set initial window size", "error", err)
	}

	cmd, err := startChild(pty, opts.Command, opts.Term)
	if err != nil {
		pty.Close()
		recorder.Close()
		return Result{}, err
	}
	// Close slave in parent — the child has its own copy via fd 0/1/2.
	pty.CloseSlave()

	opts.Logger.Debug("session started",
		"prefix", opts.Prefix, "pid", cmd.Process.Pid, "pty", pty.SlavePath)

	if err := tcap.WriteMeta(recorder.paths.Meta, tcap.Meta{
		PID:               cmd.Process.Pid,
		Prefix:            opts.Prefix,
		Command:           opts.Command,
		Version:           opts.Version,
		StartedAtUnixNano: start.UnixNano(),
	}); err != nil {
		recorder.warnSidecar(recorder.paths.Meta, err)
	}

	if opts.WS.Requested {
		stub := tcap.WSStub{
			Status:      tcap.WSStatusPlanned,
			Listen:      opts.WS.Listen,
			TokenSet:    opts.WS.TokenSet,
			AllowRemote: opts.WS.AllowRemote,
			SendBuffer:  opts.WS.SendBuffer,
		}
		if stub.SendBuffer <= 0 {
			stub.SendBuffer = DefaultWSSendBuffer
		}
		if err := tcap.WriteWSStub(recorder.paths.WS, stub); err != nil {
			recorder.warnSidecar(recorder.paths.WS, err)
		}
		opts.Logger.Info("WS: planned, streaming is not active in this build",
			"listen", opts.WS.Listen)
	}

	// With a controlling terminal the first resize event records the
	// starting geometry at offset zero. Headless sessions leave the
	// event log header-only; the default geometry is a PTY setting,
	// not an observation.
	if opts.Terminal != nil {
		recorder.recordResize(elapsed(), columns, rows)
	}

	var guard *RawGuard
	if opts.Terminal != nil {
		guard, err = EnterRaw(opts.Terminal)
		if err != nil {
			opts.Logger.Warn("TCAP: warning: could not enter raw mode", "error", err)
		}
	}

	winch := make(chan os.Signal, 1)
	if opts.Terminal != nil {
		signal.Notify(winch, syscall.SIGWINCH)
		defer signal.Stop(winch)
	}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer signal.Stop(interrupt)

	// Pumps hand chunks to the select loop below, which is the only
	// writer of logs and relay endpoints. Sends are guarded by done so
	// teardown never strands a pump mid-send.
	done := make(chan struct{})
	var doneOnce sync.Once
	stopPumps := func() { doneOnce.Do(func() { close(done) }) }

	stdinReader := opts.Stdin
	cancelStdin := func() bool { return false }
	if cancellable, crErr := cancelreader.NewReader(opts.Stdin); crErr == nil {
		stdinReader = cancellable
		cancelStdin = cancellable.Cancel
	}

	inputChunks := make(chan []byte)
	inputPumpDone := make(chan struct{})
	go func() {
		defer close(inputPumpDone)
		defer close(inputChunks)
		for {
			buffer := make([]byte, opts.ReadChunk)
			n, readErr := stdinReader.Read(buffer)
			if n > 0 {
				select {
				case inputChunks <- buffer[:n]:
				case <-done:
					return
				}
			}
			if readErr != nil {
				// EOF means the user closed stdin; the session keeps
				// running on output alone. Cancellation during
				// teardown ends the pump the same way.
				return
			}
		}
	}()

	outputChunks := make(chan []byte)
	outputPumpDone := make(chan struct{})
	go func() {
		defer close(outputPumpDone)
		defer close(outputChunks)
		for {
			buffer := make([]byte, opts.ReadChunk)
			n, readErr := pty.Master.Read(buffer)
			if n > 0 {
				select {
				case outputChunks <- buffer[:n]:
				case <-done:
					return
				}
			}
			if readErr != nil {
				// EIO is the normal signal that the slave side closed
				// (child exited). Any other read error ends the pump
				// the same way.
				return
			}
		}
	}()

	childExit := make(chan error, 1)
	go func() {
		childExit <- cmd.Wait()
	}()

	var (
		relayErr      error
		childErr      error
		childDone     bool
		drainDeadline <-chan time.Time
	)
	input := inputChunks
	output := outputChunks

loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case sig := <-interrupt:
			opts.Logger.Debug("shutdown signal", "signal", sig.String())
			break loop

		case <-winch:
			width, height, sizeErr := term.GetSize(int(opts.Terminal.Fd()))
			if sizeErr != nil {
				continue
			}
			columns, rows = uint16(width), uint16(height)
			if pty.SetSize(columns, rows) != nil {
				continue
			}
			recorder.recordResize(elapsed(), columns, rows)

		case chunk, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if _, writeErr := pty.Master.Write(chunk); writeErr != nil {
				// The slave side is gone; the child exit will surface
				// through childExit shortly. Undelivered input is not
				// recorded.
				continue
			}
			if err := recorder.recordInput(chunk, elapsed()); err != nil {
				relayErr = err
				break loop
			}

		case chunk, ok := <-output:
			if !ok {
				output = nil
				if childDone {
					break loop
				}
				continue
			}
			if _, writeErr := opts.Stdout.Write(chunk); writeErr != nil {
				relayErr = fmt.Errorf("write relay output: %w", writeErr)
				break loop
			}
			if err := recorder.recordOutput(chunk, elapsed()); err != nil {
				relayErr = err
				break loop
			}

		case err := <-childExit:
			childErr = err
			childDone = true
			childExit = nil
			if output == nil {
				break loop
			}
			// Keep consuming until the output pump sees EIO, with a
			// deadline against descendants holding the slave open.
			drainDeadline = opts.Clock.After(drainTimeout)

		case <-drainDeadline:
			break loop
		}
	}

	// Teardown. Every step is idempotent, so partial earlier cleanup
	// (e.g. the slave already closed after spawn) is harmless.
	stopPumps()
	cancelStdin()
	pty.CloseMaster()
	<-outputPumpDone
	select {
	case <-inputPumpDone:
	case <-opts.Clock.After(drainTimeout):
		// A non-cancellable stdin reader stays blocked in read until
		// process exit; abandon it rather than hold up teardown.
	}

	guard.Restore()

	if !childDone {
		// The wait goroutine still owns cmd.Wait and will deliver the
		// status on childExit once the child is gone.
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case childErr = <-childExit:
		case <-opts.Clock.After(reapTimeout):
			_ = cmd.Process.Kill()
			select {
			case childErr = <-childExit:
			case <-opts.Clock.After(reapTimeout):
			}
		}
		childDone = true
	}

	recorder.Close()

	if relayErr != nil {
		opts.Logger.Warn("relay error ended the session early", "error", relayErr)
	}

	result := childResult(childErr)
	opts.Logger.Debug("session ended",
		"prefix", opts.Prefix, "exit_code", result.ExitCode, "signal", result.Signal,
		"input_bytes", recorder.inputOffset, "output_bytes", recorder.outputOffset)
	return result, nil
}

// childResult translates cmd.Wait's error into the child's recorded
// exit status.
func childResult(err error) Result {
	if err == nil {
		return Result{ExitCode: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return Result{ExitCode: -1, Signal: unix.SignalName(status.Signal())}
		}
		return Result{ExitCode: exitErr.ExitCode()}
	}
	return Result{ExitCode: -1}
}
