// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the termplex CLI command tree: the operator
// tools for replaying, summarizing, compacting and verifying session
// logs recorded by termplex-capture.
package commands

import (
	"fmt"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/version"
)

// Root builds and returns the complete termplex CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "termplex",
		Description: `Termplex: terminal session capture and replay.

Work with session logs recorded by termplex-capture: play them back at
their original pace, summarize their contents, and compress finished
captures for archival.`,
		Subcommands: []*cli.Command{
			replayCommand(),
			infoCommand(),
			compactCommand(),
			verifyCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("termplex %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Replay a session into the current terminal",
				Command:     "termplex replay demo/session",
			},
			{
				Description: "Replay at double speed with long pauses clamped",
				Command:     "termplex replay demo/session --speed 2 --idle-cap 1s",
			},
			{
				Description: "Summarize a capture",
				Command:     "termplex info demo/session",
			},
			{
				Description: "Compress a finished capture",
				Command:     "termplex compact demo/session",
			},
			{
				Description: "Check a compacted capture against its manifest",
				Command:     "termplex verify demo/session",
			},
		},
	}
}

// prefixArg extracts the single log-prefix positional argument every
// session command takes.
func prefixArg(args []string, command string) (string, error) {
	if len(args) == 0 {
		return "", cli.Validation("%s requires a log prefix argument", command).
			WithHint(fmt.Sprintf("usage: termplex %s <log_prefix>", command))
	}
	if len(args) > 1 {
		return "", cli.Validation("%s takes exactly one log prefix, got %d arguments", command, len(args))
	}
	if args[0] == "" {
		return "", cli.Validation("log prefix must not be empty")
	}
	return args[0], nil
}
