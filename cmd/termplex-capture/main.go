// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// termplex-capture records an interactive terminal session.
//
// The given command (or the configured shell) runs on a fresh
// pseudo-terminal while raw input and output are relayed between the
// real terminal and the child and appended to log files named by the
// prefix, alongside timing and resize sidecars for later replay.
//
// Usage:
//
//	termplex-capture [flags] <log_prefix> [command ...]
//
// Flags may appear before or after the prefix; "--" ends flag parsing
// so the child command can carry flags of its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/termplex-foundation/termplex/capture"
	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/config"
	"github.com/termplex-foundation/termplex/lib/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// captureConfig is the validated command line for one capture run.
type captureConfig struct {
	ShowVersion bool
	ConfigPath  string
	Shell       string
	Term        string
	Prefix      string
	Command     []string
	WS          capture.WSOptions
}

// newCaptureFlags binds the flag set to cfg. The WebSocket token
// value lands in token, never in cfg: only its presence is recorded.
func newCaptureFlags(cfg *captureConfig, token *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("termplex-capture", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.ConfigPath, "config", "", "path to a termplex config file")
	flagSet.StringVar(&cfg.Shell, "shell", "", "shell to run when no command is given")
	flagSet.StringVar(&cfg.Term, "term", "", "TERM value exported to the child")
	flagSet.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	flagSet.StringVar(&cfg.WS.Listen, "ws-listen", "", "listen address recorded for the planned WebSocket relay")
	flagSet.StringVar(token, "ws-token", "", "auth token for the planned WebSocket relay (recorded as set or unset)")
	flagSet.BoolVar(&cfg.WS.AllowRemote, "ws-allow-remote", false, "allow non-loopback clients on the planned WebSocket relay")
	flagSet.Int64Var(&cfg.WS.SendBuffer, "ws-send-buffer", 0, "send-buffer size in bytes recorded for the planned WebSocket relay")
	return flagSet
}

// parseArgs turns the command line into a captureConfig. The first
// positional argument is the log prefix, everything after it the child
// command. Flags are accepted on either side of the prefix.
func parseArgs(args []string) (captureConfig, error) {
	var cfg captureConfig
	var token string
	flagSet := newCaptureFlags(&cfg, &token)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		return captureConfig{}, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	positionals := flagSet.Args()
	if len(positionals) == 0 {
		return captureConfig{}, errors.New("log prefix argument required")
	}
	cfg.Prefix = positionals[0]
	if cfg.Prefix == "" {
		return captureConfig{}, errors.New("log prefix must not be empty")
	}
	if len(positionals) > 1 {
		cfg.Command = positionals[1:]
	}

	cfg.WS.Requested = flagSet.Changed("ws-listen") ||
		flagSet.Changed("ws-token") ||
		flagSet.Changed("ws-allow-remote") ||
		flagSet.Changed("ws-send-buffer")
	cfg.WS.TokenSet = token != ""
	return cfg, nil
}

func run(args []string) int {
	cfg, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(os.Stderr)
			return 0
		}
		fmt.Fprintf(os.Stderr, "termplex-capture: %v\n\n", err)
		printUsage(os.Stderr)
		return 1
	}
	if cfg.ShowVersion {
		version.Print("termplex-capture")
		return 0
	}

	fileCfg, err := loadConfig(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termplex-capture: %v\n", err)
		return 1
	}
	if err := fileCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "termplex-capture: invalid configuration: %v\n", err)
		return 1
	}

	command := cfg.Command
	if len(command) == 0 {
		shell := cfg.Shell
		if shell == "" {
			shell = fileCfg.ResolveShell()
		}
		command = []string{shell}
	}
	termType := cfg.Term
	if termType == "" {
		termType = fileCfg.Term
	}

	logger := cli.NewCommandLogger().With("prefix", cfg.Prefix)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	result, err := capture.Run(ctx, capture.Options{
		Prefix:    cfg.Prefix,
		Command:   command,
		Term:      termType,
		ReadChunk: fileCfg.ReadChunk,
		WS:        cfg.WS,
		Terminal:  capture.ControllingTTY(),
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Logger:    logger,
		Version:   version.Info(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "termplex-capture: %v\n", err)
		return 1
	}

	// The child's status is reported but never propagated: a capture
	// that recorded the session cleanly is a success, whatever the
	// child did.
	if result.Signal != "" {
		logger.Info("child terminated by signal", "signal", result.Signal)
	} else if result.ExitCode != 0 {
		logger.Info("child exited", "code", result.ExitCode)
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: termplex-capture [flags] <log_prefix> [command ...]

Records an interactive terminal session. The command (default: your
shell) runs on a fresh pseudo-terminal; raw input and output are
relayed and appended to <log_prefix>.input and <log_prefix>.output
with timing and resize sidecars for replay.

Flags:
`)
	var cfg captureConfig
	var token string
	flagSet := newCaptureFlags(&cfg, &token)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	fmt.Fprint(w, `
Environment:
  TERMPLEX_CONFIG  config file path when --config is not given
  TERMPLEX_DEBUG   enable debug logging

The --ws-* flags are parsed and recorded to <log_prefix>.ws.json; no
network relay exists in this build.
`)
}
