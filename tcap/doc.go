// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package tcap defines the on-disk formats written beside a captured
// session's raw logs. A capture with prefix P produces up to eight
// files; this package owns every one of them except the raw logs
// themselves, which are opaque byte streams:
//
//	P.input          raw bytes relayed user → child (opaque)
//	P.output         raw bytes relayed child → user (opaque)
//	P.input.tidx     timing index for P.input
//	P.output.tidx    timing index for P.output
//	P.output.events  resize event log (output stream only)
//	P.meta.json      session metadata
//	P.ws.json        websocket stub descriptor (only when requested)
//	P.archive.json   compaction manifest (written by lib/archive)
//
// # Timing index
//
// A timing index records one entry per raw-log write so replay can
// reproduce the original pacing. The file starts with a 14-byte
// header: the 5-byte magic "TIDX1", one flags byte (zero), and the
// session's wall-clock start time as a little-endian uint64 of Unix
// nanoseconds. Each record is a pair of unsigned LEB128 varints: the
// nanoseconds elapsed since the previous record, then the bytes
// appended by this write. Summing the byte deltas of a complete index
// yields exactly the raw log's length.
//
// # Event log
//
// The event log records terminal geometry changes against the output
// stream. The header is 13 bytes: the 4-byte magic "EVT1", one flags
// byte (zero), and the same little-endian start timestamp as the
// timing headers. Each record is a type byte followed by type-specific
// varint fields. The only defined type is resize (0x01): nanoseconds
// elapsed since the previous event, output-offset delta since the
// previous event, then the new column and row counts as absolute
// values. A session with no controlling terminal writes the header
// and nothing else.
//
// # Varints
//
// All variable-length integers are unsigned LEB128: seven value bits
// per byte, high bit set on every byte except the last. This is the
// same encoding as encoding/binary's Uvarint family, which implements
// the codec here. Values are capped at 64 bits; longer encodings fail
// to decode.
//
// # JSON sidecars
//
// Metadata and the websocket stub descriptor are indented JSON,
// written once at session start. The stub descriptor records the
// requested websocket configuration without starting any server; the
// token value itself is never persisted, only whether one was given.
//
// All binary fields are little-endian. Writers emit one Write call per
// record so a crash loses at most the in-flight record; readers treat
// a torn final record as io.ErrUnexpectedEOF after yielding every
// complete record before it.
package tcap
