// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// termplex-viewer is a terminal UI for browsing captured sessions.
//
// It scans a directory for capture metadata files and shows the
// sessions in a split-pane view: the list on the left, a summary of
// the selected capture on the right. Selecting a session with enter
// exits the viewer and prints the matching replay command line to
// stdout, so the viewer composes with the shell:
//
//	$(termplex-viewer ~/captures)
//
// The UI renders to stderr; stdout carries only the selection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/process"
	"github.com/termplex-foundation/termplex/lib/sessionui"
	"github.com/termplex-foundation/termplex/lib/version"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("termplex-viewer", pflag.ContinueOnError)
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other
	// Termplex binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("termplex-viewer")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if len(args) > 1 {
		return cli.Validation("unexpected argument: %s", args[1]).
			WithHint("usage: termplex-viewer [dir]")
	}

	sessions, err := sessionui.ScanDir(dir)
	if err != nil {
		return cli.NotFound("%v", err).
			WithHint("pass the directory your capture prefixes live in")
	}

	model := sessionui.NewModel(dir, sessions)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}

	if chosen, ok := finalModel.(sessionui.Model); ok && chosen.Chosen() != "" {
		fmt.Printf("termplex replay %s\n", chosen.Chosen())
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Termplex session browser — interactive terminal UI for captured sessions.

Scans a directory (default: the current one) for captures recorded by
termplex-capture and lists them newest first, with a summary of the
selected capture alongside. Selecting a session with enter exits and
prints the replay command line to stdout.

Usage:
  termplex-viewer [dir]

Examples:
  # Browse captures in the current directory
  termplex-viewer

  # Browse an archive directory and replay the selection
  $(termplex-viewer ~/captures)

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
