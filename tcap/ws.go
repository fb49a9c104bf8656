// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package tcap

import (
	"encoding/json"
	"fmt"
	"os"
)

// WSStub describes a requested-but-not-started websocket mirror. The
// capture tool writes it only when at least one websocket flag was
// given, as a machine-readable record of what a future streaming
// component should serve. TokenSet records whether an auth token was
// supplied; the token value itself never reaches disk.
type WSStub struct {
	Status      string `json:"status"`
	Listen      string `json:"listen,omitempty"`
	TokenSet    bool   `json:"token_set"`
	AllowRemote bool   `json:"allow_remote"`
	SendBuffer  int64  `json:"send_buffer"`
}

// WSStatusPlanned is the only status written today. A live streaming
// implementation would replace it.
const WSStatusPlanned = "planned"

// WriteWSStub writes the stub descriptor as indented JSON to path,
// truncating any previous file.
func WriteWSStub(path string, stub WSStub) error {
	if stub.Status == "" {
		stub.Status = WSStatusPlanned
	}
	data, err := json.MarshalIndent(stub, "", "  ")
	if err != nil {
		return fmt.Errorf("encode websocket stub: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write websocket stub: %w", err)
	}
	return nil
}

// ReadWSStub loads a stub descriptor.
func ReadWSStub(path string) (WSStub, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WSStub{}, fmt.Errorf("read websocket stub: %w", err)
	}
	var stub WSStub
	if err := json.Unmarshal(data, &stub); err != nil {
		return WSStub{}, fmt.Errorf("parse websocket stub %s: %w", path, err)
	}
	return stub, nil
}
