// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the termplex
// operator tool.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/termplex/main.go and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
//
// Command handlers classify their failures with [ToolError] so the
// binary can map them to distinct exit codes, and return [ExitError]
// when a non-zero exit is an answer rather than a failure (verify
// finding a mismatch, info --check finding an inconsistency).
package cli
