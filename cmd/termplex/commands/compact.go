// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/pflag"

	"github.com/termplex-foundation/termplex/cmd/termplex/cli"
	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/lib/config"
)

func compactCommand() *cli.Command {
	var (
		methodName string
		keep       bool
	)

	return &cli.Command{
		Name:    "compact",
		Summary: "Compress a finished capture for archival",
		Description: `Compress the files of a finished capture and write a manifest
recording, for every file, the compression method, the raw and stored
sizes, and a content digest of the raw bytes.

Raw logs and binary sidecars are compressed individually; a file that
would not shrink is kept as-is. The JSON sidecars stay uncompressed so
they remain greppable. replay and info read compacted captures
transparently, so compacting loses nothing.

Do not compact a session that is still being recorded.`,
		Usage: "termplex compact <log_prefix> [--method zstd|lz4] [--keep]",
		Examples: []cli.Example{
			{
				Description: "Compress with the configured method",
				Command:     "termplex compact demo/session",
			},
			{
				Description: "Cheap-to-decode frames for often-replayed sessions",
				Command:     "termplex compact demo/session --method lz4",
			},
			{
				Description: "Keep the uncompressed originals alongside the archive",
				Command:     "termplex compact demo/session --keep",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("compact", pflag.ContinueOnError)
			flagSet.StringVar(&methodName, "method", "", "compression method: zstd or lz4 (default from config, zstd)")
			flagSet.BoolVar(&keep, "keep", false, "keep the uncompressed originals")
			return flagSet
		},
		Run: func(args []string) error {
			prefix, err := prefixArg(args, "compact")
			if err != nil {
				return err
			}
			if methodName == "" {
				cfg, err := config.Load()
				if err != nil {
					return cli.Validation("%v", err)
				}
				methodName = cfg.Compact.Method
			}
			return runCompact(os.Stdout, prefix, methodName, keep)
		},
	}
}

func runCompact(w io.Writer, prefix string, methodName string, keep bool) error {
	method, err := archive.ParseMethod(methodName)
	if err != nil {
		return cli.Validation("%v", err).WithHint("valid methods are zstd and lz4")
	}
	if method == archive.MethodNone {
		return cli.Validation("compact method must be zstd or lz4, got %q", methodName)
	}

	manifest, err := archive.Compact(prefix, method, !keep)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cli.NotFound("%v", err)
		}
		return err
	}

	var raw, stored int64
	for _, entry := range manifest.Files {
		raw += entry.RawSize
		stored += entry.StoredSize
		fmt.Fprintf(w, "%s: %d -> %d bytes (%s)\n", entry.Name, entry.RawSize, entry.StoredSize, entry.Method)
	}
	fmt.Fprintf(w, "%d files, %d -> %d bytes\n", len(manifest.Files), raw, stored)
	return nil
}
