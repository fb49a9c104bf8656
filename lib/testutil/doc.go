// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Termplex packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls.
//
// [RequirePTY] skips tests that need a pseudo-terminal when the
// environment provides none (containers without /dev/ptmx). The
// session tests spawn real children on a PTY slave; there is no
// faking that layer.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Termplex-internal dependencies.
package testutil
