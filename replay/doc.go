// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package replay plays captured terminal sessions back through their
// timing sidecars and summarizes capture health for operator tooling.
//
// Play paces the raw byte log by the inter-write gaps recorded in the
// timing index, optionally scaled and clamped, and surfaces resize
// events at the byte positions where they originally took effect. Info
// reads every sidecar of a capture and reports sizes, durations, and
// any consistency problems without replaying it.
package replay
