// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/replay"
)

func infoCommand() *cli.Command {
	var (
		asJSON bool
		check  bool
	)

	return &cli.Command{
		Name:    "info",
		Summary: "Summarize a captured session",
		Description: `Print what a capture contains: stream sizes, write counts, recorded
duration, resize events, and any problems found in the sidecar files
(missing logs, truncated indexes, coverage gaps).

Works on compacted captures transparently. With --check, a capture
with problems exits non-zero, for use in archival scripts.`,
		Usage: "termplex info <log_prefix> [--json] [--check]",
		Examples: []cli.Example{
			{
				Description: "Summarize a capture",
				Command:     "termplex info demo/session",
			},
			{
				Description: "Machine-readable summary",
				Command:     "termplex info demo/session --json",
			},
			{
				Description: "Fail a pipeline on a damaged capture",
				Command:     "termplex info demo/session --check",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			flagSet.BoolVar(&asJSON, "json", false, "emit the summary as JSON")
			flagSet.BoolVar(&check, "check", false, "exit non-zero when the capture has problems")
			return flagSet
		},
		Run: func(args []string) error {
			prefix, err := prefixArg(args, "info")
			if err != nil {
				return err
			}
			return runInfo(os.Stdout, prefix, asJSON, check)
		},
	}
}

func runInfo(w io.Writer, prefix string, asJSON bool, check bool) error {
	summary, err := replay.Info(prefix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cli.NotFound("%v", err)
		}
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		renderSummary(w, summary)
	}

	if check && !summary.Ok() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// renderSummary writes the human-readable form of a capture summary.
func renderSummary(w io.Writer, summary replay.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Prefix:\t%s\n", summary.Prefix)
	if len(summary.Meta.Command) > 0 {
		fmt.Fprintf(tw, "Command:\t%s\n", strings.Join(summary.Meta.Command, " "))
	}
	if summary.Meta.StartedAtUnixNano > 0 {
		started := time.Unix(0, summary.Meta.StartedAtUnixNano)
		fmt.Fprintf(tw, "Started:\t%s\n", started.Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", summary.Duration)
	fmt.Fprintf(tw, "Output:\t%d bytes in %d writes\n", summary.Output.RawBytes, summary.Output.Records)
	fmt.Fprintf(tw, "Input:\t%d bytes in %d writes\n", summary.Input.RawBytes, summary.Input.Records)
	fmt.Fprintf(tw, "Resizes:\t%d\n", summary.Resizes)
	tw.Flush()

	if len(summary.Problems) > 0 {
		fmt.Fprintf(w, "\nProblems:\n")
		for _, problem := range summary.Problems {
			fmt.Fprintf(w, "  - %s\n", problem)
		}
	}
}
