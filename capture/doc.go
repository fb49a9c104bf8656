// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture implements the terminal session capture engine: it
// allocates a pseudo-terminal, spawns a child process on the slave
// side, and relays bytes between the user's terminal and the PTY
// master while recording both directions with timing and resize
// sidecars (package tcap).
//
// A session is one call to Run. The relay is a single select loop fed
// by pump goroutines, so raw-log writes, timing appends, and resize
// events are totally ordered without locking. Payload bytes are never
// interpreted; escape sequences pass through and land in the logs
// verbatim.
//
// Failure severity is positional. Anything that fails before the
// child exists (PTY allocation, spawn, raw-log open) aborts the run.
// Once the session is live, sidecar trouble degrades that one sidecar
// with a warning, and a relay error tears the session down gracefully,
// leaving the logs valid up to the failure point.
package capture
