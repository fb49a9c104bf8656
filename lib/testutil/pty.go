// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// RequirePTY skips the test when the environment cannot allocate
// pseudo-terminals. Session tests open /dev/ptmx and spawn a real
// child on the slave side; minimal containers sometimes mount no
// devpts, and skipping beats a confusing EACCES failure.
func RequirePTY(t *testing.T) {
	t.Helper()
	f, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("no PTY support: %v", err)
	}
	f.Close()
}
