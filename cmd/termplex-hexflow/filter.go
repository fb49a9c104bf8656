// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// renderByte returns the rendering of one byte and the spacing state to
// carry to the next: whether this byte counted as non-printable.
//
// Printable ASCII (0x20 through 0x7e) is emitted as-is, with a single
// separating space when the run follows non-printable output. Newline,
// carriage return and tab render as ` \n`, ` \r`, ` \t`; every other
// byte as a space and two lowercase hex digits. The escapes and hex
// cells carry their own leading space, so no transition space is
// needed on the way into them.
func renderByte(c byte, afterNonPrint bool) (string, bool) {
	if c >= 0x20 && c <= 0x7e {
		if afterNonPrint {
			return " " + string(c), false
		}
		return string(c), false
	}
	switch c {
	case '\n':
		return ` \n`, true
	case '\r':
		return ` \r`, true
	case '\t':
		return ` \t`, true
	}
	return fmt.Sprintf(" %02x", c), true
}

// Render streams src through the filter into dst. Each byte is written
// as soon as it is read, so the rendering is usable in a pipeline
// while the producer is still running. Returns nil on EOF.
func Render(src io.Reader, dst io.Writer) error {
	in := bufio.NewReader(src)
	afterNonPrint := false
	for {
		c, err := in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		var cell string
		cell, afterNonPrint = renderByte(c, afterNonPrint)
		if _, err := io.WriteString(dst, cell); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}
