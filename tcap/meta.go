// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"encoding/json"
	"fmt"
	"os"
)

// Meta is the session metadata sidecar, written once at capture start.
// Command is the argv the child was spawned with; a login-shell
// session records the resolved shell as its single element. Version is
// the capture binary's version string.
type Meta struct {
	PID               int      `json:"pid"`
	Prefix            string   `json:"prefix"`
	Command           []string `json:"command"`
	Version           string   `json:"version,omitempty"`
	StartedAtUnixNano int64    `json:"started_at_unix_ns"`
}

// WriteMeta writes meta as indented JSON to path, truncating any
// previous file, and syncs it so the record survives a crash of the
// capture process.
func WriteMeta(path string, meta Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	data = append(data, '\n')
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create session metadata: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write session metadata: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync session metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close session metadata: %w", err)
	}
	return nil
}

// ReadMeta loads and validates a metadata sidecar. Files missing the
// fields every capture writes are rejected rather than returned
// half-empty.
func ReadMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, fmt.Errorf("read session metadata: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("parse session metadata %s: %w", path, err)
	}
	if meta.PID <= 0 {
		return Meta{}, fmt.Errorf("session metadata %s: missing pid", path)
	}
	if meta.Prefix == "" {
		return Meta{}, fmt.Errorf("session metadata %s: missing prefix", path)
	}
	return meta, nil
}
