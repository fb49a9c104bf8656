// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

// Paths collects every file a capture prefix can own. Tools derive
// names through here so the naming scheme lives in one place.
type Paths struct {
	Input        string
	Output       string
	InputTiming  string
	OutputTiming string
	OutputEvents string
	Meta         string
	WS           string
	Archive      string
}

// SessionPaths returns the sidecar paths for a capture prefix.
func SessionPaths(prefix string) Paths {
	return Paths{
		Input:        prefix + ".input",
		Output:       prefix + ".output",
		InputTiming:  prefix + ".input.tidx",
		OutputTiming: prefix + ".output.tidx",
		OutputEvents: prefix + ".output.events",
		Meta:         prefix + ".meta.json",
		WS:           prefix + ".ws.json",
		Archive:      prefix + ".archive.json",
	}
}
