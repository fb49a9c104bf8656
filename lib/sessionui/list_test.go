// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, "0B"},
		{"bytes", 512, "512B"},
		{"kilobytes", 4 << 10, "4.0K"},
		{"megabytes", 3 << 20, "3.0M"},
		{"gigabytes", 2 << 30, "2.0G"},
		{"just under a unit", (1 << 20) - 1, "1024.0K"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := formatBytes(test.in); got != test.want {
				t.Errorf("formatBytes(%d) = %q, want %q", test.in, got, test.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "-"},
		{"subsecond", 350 * time.Millisecond, "<1s"},
		{"seconds", 42*time.Second + 300*time.Millisecond, "42s"},
		{"minutes", 40 * time.Minute, "40m0s"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := formatDuration(test.in); got != test.want {
				t.Errorf("formatDuration(%v) = %q, want %q", test.in, got, test.want)
			}
		})
	}
}

func TestFormatStarted(t *testing.T) {
	if got := formatStarted(0); got != "-" {
		t.Errorf("formatStarted(0) = %q, want -", got)
	}
	at := time.Date(2026, 3, 3, 12, 30, 0, 0, time.Local)
	if got := formatStarted(at.UnixNano()); got != "Mar 03 12:30" {
		t.Errorf("formatStarted = %q, want Mar 03 12:30", got)
	}
}

func TestRenderListRowTruncates(t *testing.T) {
	session := Session{
		Name:        strings.Repeat("very-long-session-name-", 6),
		OutputBytes: 1024,
		Duration:    5 * time.Second,
	}
	row := renderListRow(DefaultTheme, session, false, 60)
	for _, line := range strings.Split(row, "\n") {
		if len(line) == 0 {
			t.Error("row should not contain empty lines")
		}
	}
	if !strings.Contains(row, "…") {
		t.Error("overlong name should be truncated with an ellipsis")
	}
	if !strings.Contains(row, "5s") {
		t.Error("row should keep the duration column")
	}
}
