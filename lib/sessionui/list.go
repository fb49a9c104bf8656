// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Fixed column widths for the session list. The name column fills the
// remaining space.
const (
	columnWidthStarted  = 13 // "Jan 02 15:04" + space
	columnWidthDuration = 8
	columnWidthSize     = 7
)

// renderListRow renders one session as a table row of the given width:
// name, start time, duration, stored size.
func renderListRow(theme Theme, session Session, selected bool, width int) string {
	nameWidth := width - columnWidthStarted - columnWidthDuration - columnWidthSize - 1
	if nameWidth < 8 {
		nameWidth = 8
	}

	name := ansi.Truncate(session.Name, nameWidth, "…")
	name += strings.Repeat(" ", nameWidth-lipgloss.Width(name))

	row := fmt.Sprintf(" %s%*s%*s%*s",
		name,
		columnWidthStarted, formatStarted(session.Meta.StartedAtUnixNano),
		columnWidthDuration, formatDuration(session.Duration),
		columnWidthSize, formatBytes(session.OutputBytes),
	)
	row = ansi.Truncate(row, width, "")

	if selected {
		return lipgloss.NewStyle().
			Foreground(theme.SelectedForeground).
			Background(theme.SelectedBackground).
			Width(width).
			Render(row)
	}
	return lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width).
		Render(row)
}

// formatStarted renders a session start timestamp for the list, or "-"
// when the metadata had none.
func formatStarted(unixNano int64) string {
	if unixNano <= 0 {
		return "-"
	}
	return time.Unix(0, unixNano).Format("Jan 02 15:04")
}

// formatDuration renders a recorded duration at second granularity.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return "<1s"
	}
	return d.Truncate(time.Second).String()
}

// formatBytes renders a byte count in a compact human form.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
