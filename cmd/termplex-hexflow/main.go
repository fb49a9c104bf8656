// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// termplex-hexflow renders a raw byte stream in a readable form:
// printable runs verbatim, control bytes as escapes or hex cells.
// Pipe a capture log (or a live capture) through it to see exactly
// which bytes a program emitted:
//
//	termplex replay demo/session | termplex-hexflow
package main

import (
	"fmt"
	"os"

	"github.com/termplex-foundation/termplex/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 {
		if os.Args[1] == "--version" {
			version.Print("termplex-hexflow")
			return 0
		}
		fmt.Fprintln(os.Stderr, "usage: termplex-hexflow [--version]  (reads stdin, writes the rendering to stdout)")
		return 1
	}
	if err := Render(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "termplex-hexflow: %v\n", err)
		return 1
	}
	return 0
}
