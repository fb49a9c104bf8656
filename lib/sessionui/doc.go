// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionui implements a terminal user interface for browsing
// captured sessions. Built on bubbletea (Elm architecture), it shows a
// split-pane view: a list of the captures found in a directory on the
// left, and a summary of the selected capture on the right.
//
// [ScanDir] finds sessions cheaply (metadata, sizes, and timing-index
// durations only); the right-pane summary comes from [replay.Info],
// loaded asynchronously per selection so scrolling a large directory
// never blocks on reading raw logs.
//
// The model never interprets terminal escape sequences: the preview is
// metadata about the capture, not playback. Selecting a session with
// enter records its prefix, which the viewer binary turns into a
// replay command line after the program exits.
package sessionui
