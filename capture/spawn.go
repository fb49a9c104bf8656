// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// startChild spawns argv in a new session with the PTY slave as its
// controlling terminal and as all three standard streams. On return
// the parent must close its copy of the slave; the child holds its
// own via fd 0/1/2.
func startChild(pty *PTY, argv []string, termType string) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command to run")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = pty.Slave
	cmd.Stdout = pty.Slave
	cmd.Stderr = pty.Slave
	cmd.Env = childEnv(os.Environ(), termType)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0, // fd 0 in child = slave PTY
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	return cmd, nil
}

// childEnv returns environ with TERM forced to termType so the child
// renders for the terminal the capture will record, regardless of what
// the invoking environment advertised.
func childEnv(environ []string, termType string) []string {
	if termType == "" {
		return environ
	}
	env := make([]string, 0, len(environ)+1)
	for _, entry := range environ {
		if strings.HasPrefix(entry, "TERM=") {
			continue
		}
		env = append(env, entry)
	}
	return append(env, "TERM="+termType)
}
