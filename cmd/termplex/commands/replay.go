// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/config"
	"github.com/termplex-foundation/termplex/replay"
	"github.com/termplex-foundation/termplex/tcap"
)

// replayParams holds the resolved playback settings for one replay run.
type replayParams struct {
	speed       float64
	idleCap     time.Duration
	stream      string
	showResizes bool
}

func replayCommand() *cli.Command {
	var (
		params  replayParams
		flagSet *pflag.FlagSet
	)

	return &cli.Command{
		Name:    "replay",
		Summary: "Play a captured session back to the terminal",
		Description: `Replay the raw bytes of a captured session at their original pace.

Bytes are written to stdout unmodified, so replaying into a terminal
of the same type reproduces the session exactly. Gaps between recorded
writes are reproduced, scaled by --speed and clamped to --idle-cap so
long idle stretches don't stall playback. Interrupt with Ctrl-C.

Flags left unset default to the replay section of the termplex config
file (TERMPLEX_CONFIG).`,
		Usage: "termplex replay <log_prefix> [--speed F] [--idle-cap D] [--stream output|input] [--show-resizes]",
		Examples: []cli.Example{
			{
				Description: "Replay at the recorded pace",
				Command:     "termplex replay demo/session",
			},
			{
				Description: "Replay twice as fast, pauses clamped to a second",
				Command:     "termplex replay demo/session --speed 2 --idle-cap 1s",
			},
			{
				Description: "Inspect what the user typed",
				Command:     "termplex replay demo/session --stream input | termplex-hexflow",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("replay", pflag.ContinueOnError)
			flagSet.Float64Var(&params.speed, "speed", 0, "playback rate multiplier (default from config, 1.0)")
			flagSet.DurationVar(&params.idleCap, "idle-cap", 0, "longest gap reproduced between writes, 0 for no cap (default from config, 2s)")
			flagSet.StringVar(&params.stream, "stream", replay.StreamOutput, "which log to play: output or input")
			flagSet.BoolVar(&params.showResizes, "show-resizes", false, "print recorded window resizes to stderr")
			return flagSet
		},
		Run: func(args []string) error {
			prefix, err := prefixArg(args, "replay")
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return cli.Validation("%v", err)
			}
			if !flagSet.Changed("speed") {
				params.speed = cfg.Replay.Speed
			}
			if !flagSet.Changed("idle-cap") {
				params.idleCap, err = cfg.Replay.IdleCapDuration()
				if err != nil {
					return cli.Validation("replay.idle_cap: %v", err)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runReplay(ctx, os.Stdout, prefix, params)
		},
	}
}

// runReplay validates the parameters and plays the session into w.
// A canceled context (Ctrl-C mid-replay) is a clean stop, not an error.
func runReplay(ctx context.Context, w io.Writer, prefix string, params replayParams) error {
	switch params.stream {
	case replay.StreamOutput, replay.StreamInput:
	default:
		return cli.Validation("unknown stream %q", params.stream).
			WithHint("valid streams are output and input")
	}
	if params.speed < 0 {
		return cli.Validation("speed must be positive, got %g", params.speed)
	}

	opts := replay.Options{
		Prefix:  prefix,
		Stream:  params.stream,
		Speed:   params.speed,
		IdleCap: params.idleCap,
		Out:     w,
	}
	if params.showResizes {
		opts.OnResize = func(event tcap.ResizeEvent) {
			fmt.Fprintf(os.Stderr, "[resize %dx%d]\r\n", event.Cols, event.Rows)
		}
	}

	err := replay.Play(ctx, opts)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return cli.NotFound("%v", err)
	default:
		return err
	}
}
