// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. When a command handler returns an ExitError, the CLI
// framework exits with the specified code without printing the error
// string — the command is expected to have already written its own
// output.
//
// This is useful for commands where a non-zero exit is a valid
// outcome (verify reporting a digest mismatch it already printed, or
// "info --check" flagging an inconsistent capture) rather than an
// unexpected error.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. The CLI framework's main function
// checks for this interface on returned errors to distinguish
// "handled non-zero exit" from "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit codes produced by ExitCodeFor. The zero and one values follow
// convention; validation and not-found get their own codes so scripts
// can branch without scraping stderr.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitValidation = 2
	ExitNotFound   = 4
)

// ExitCodeFor maps a command error to the process exit code: nil is
// success, an ExitError carries its own code, a categorized ToolError
// maps through the table above, and anything else is internal.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		switch toolErr.Category {
		case CategoryValidation:
			return ExitValidation
		case CategoryNotFound:
			return ExitNotFound
		}
	}
	return ExitInternal
}
