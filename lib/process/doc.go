// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Termplex
// binaries. These functions centralize the one legitimate raw I/O
// pattern that exists before the structured logger: fatal error
// reporting to stderr from main() when the logger may not be
// initialized yet.
package process
