// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/archive"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a compacted capture against its manifest",
		Description: `Decode every file of a compacted capture and compare its size and
content digest against the archive manifest. Reports every damaged
file, not just the first, and exits non-zero if anything is off.`,
		Usage: "termplex verify <log_prefix>",
		Examples: []cli.Example{
			{
				Description: "Check archive integrity",
				Command:     "termplex verify demo/session",
			},
		},
		Run: func(args []string) error {
			prefix, err := prefixArg(args, "verify")
			if err != nil {
				return err
			}
			return runVerify(os.Stdout, prefix)
		},
	}
}

func runVerify(w io.Writer, prefix string) error {
	if err := archive.Verify(prefix); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cli.NotFound("%v", err).
				WithHint("run 'termplex compact' to create an archive manifest first")
		}
		problems := strings.Split(err.Error(), "\n")
		for _, problem := range problems {
			fmt.Fprintf(w, "FAIL %s\n", problem)
		}
		fmt.Fprintf(w, "archive at %s: %d problems\n", prefix, len(problems))
		return &cli.ExitError{Code: 1}
	}
	fmt.Fprintf(w, "archive at %s verifies clean\n", prefix)
	return nil
}
