// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/termplex-foundation/termplex/replay"
)

// preview is a loaded right-pane summary, or the error loading it.
type preview struct {
	summary replay.Summary
	err     error
}

// previewMsg delivers an asynchronously loaded summary through the
// bubbletea message loop.
type previewMsg struct {
	prefix  string
	summary replay.Summary
	err     error
}

// rescanMsg delivers the result of a directory rescan.
type rescanMsg struct {
	sessions []Session
	err      error
}

// Model is the top-level bubbletea model for the session browser.
type Model struct {
	dir      string
	sessions []Session
	keys     KeyMap
	theme    Theme

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	cursor       int
	scrollOffset int

	// previews caches loaded summaries by prefix. Loading is lazy:
	// moving the cursor requests the summary for the new selection
	// only if it has not been loaded yet.
	previews map[string]preview

	// chosen is the prefix selected with enter; empty when the viewer
	// was quit without selecting.
	chosen string

	// scanError is shown in the status line after a failed rescan.
	scanError string
}

// NewModel creates a Model showing the given sessions, as returned by
// [ScanDir] for dir.
func NewModel(dir string, sessions []Session) Model {
	return Model{
		dir:      dir,
		sessions: sessions,
		keys:     DefaultKeyMap,
		theme:    DefaultTheme,
		previews: make(map[string]preview),
	}
}

// Chosen returns the prefix selected with enter, or "" if the viewer
// exited without a selection.
func (model Model) Chosen() string { return model.chosen }

// Init implements tea.Model. Starts loading the summary for the
// initially selected session.
func (model Model) Init() tea.Cmd {
	return model.ensurePreview()
}

// loadPreview returns a tea.Cmd that reads the full capture summary
// for prefix and delivers it as a previewMsg.
func loadPreview(prefix string) tea.Cmd {
	return func() tea.Msg {
		summary, err := replay.Info(prefix)
		return previewMsg{prefix: prefix, summary: summary, err: err}
	}
}

// rescan returns a tea.Cmd that rescans dir for captures.
func rescan(dir string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := ScanDir(dir)
		return rescanMsg{sessions: sessions, err: err}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.clampScroll()
		return model, nil

	case previewMsg:
		model.previews[message.prefix] = preview{summary: message.summary, err: message.err}
		return model, nil

	case rescanMsg:
		if message.err != nil {
			model.scanError = message.err.Error()
			return model, nil
		}
		model.scanError = ""
		model.sessions = message.sessions
		if model.cursor >= len(model.sessions) {
			model.cursor = len(model.sessions) - 1
		}
		if model.cursor < 0 {
			model.cursor = 0
		}
		model.clampScroll()
		return model, model.ensurePreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Up):
			if model.cursor > 0 {
				model.cursor--
				model.clampScroll()
			}
			return model, model.ensurePreview()

		case key.Matches(message, model.keys.Down):
			if model.cursor < len(model.sessions)-1 {
				model.cursor++
				model.clampScroll()
			}
			return model, model.ensurePreview()

		case key.Matches(message, model.keys.Home):
			model.cursor = 0
			model.clampScroll()
			return model, model.ensurePreview()

		case key.Matches(message, model.keys.End):
			if len(model.sessions) > 0 {
				model.cursor = len(model.sessions) - 1
				model.clampScroll()
			}
			return model, model.ensurePreview()

		case key.Matches(message, model.keys.Select):
			if len(model.sessions) > 0 {
				model.chosen = model.sessions[model.cursor].Prefix
				return model, tea.Quit
			}

		case key.Matches(message, model.keys.Refresh):
			return model, rescan(model.dir)
		}
	}
	return model, nil
}

// ensurePreview requests the summary for the current selection unless
// it is already cached.
func (model Model) ensurePreview() tea.Cmd {
	if len(model.sessions) == 0 {
		return nil
	}
	prefix := model.sessions[model.cursor].Prefix
	if _, loaded := model.previews[prefix]; loaded {
		return nil
	}
	return loadPreview(prefix)
}

// listHeight is the number of session rows that fit between the header
// and the help line.
func (model Model) listHeight() int {
	height := model.height - 2
	if height < 1 {
		height = 1
	}
	return height
}

// clampScroll keeps the cursor inside the visible window.
func (model *Model) clampScroll() {
	visible := model.listHeight()
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
	if model.scrollOffset < 0 {
		model.scrollOffset = 0
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(fmt.Sprintf("Termplex sessions in %s (%d)", model.dir, len(model.sessions)))

	if len(model.sessions) == 0 {
		empty := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(
			"No sessions found.\n\nRecord one with: termplex-capture <log_prefix> [command ...]")
		return header + "\n\n" + empty + "\n\n" + model.helpLine()
	}

	listWidth := model.width * 45 / 100
	if listWidth < 30 {
		listWidth = 30
	}
	previewWidth := model.width - listWidth
	contentHeight := model.listHeight()

	listPane := lipgloss.NewStyle().
		Width(listWidth).
		Height(contentHeight).
		Render(model.renderList(listWidth, contentHeight))

	previewPane := lipgloss.NewStyle().
		Width(previewWidth-2).
		Height(contentHeight).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(model.theme.BorderColor).
		PaddingLeft(1).
		Render(model.renderPreview(previewWidth - 2))

	panes := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)
	return header + "\n" + panes + "\n" + model.helpLine()
}

// renderList renders the visible window of session rows.
func (model Model) renderList(width, height int) string {
	var rows []string
	for index := model.scrollOffset; index < len(model.sessions) && len(rows) < height; index++ {
		rows = append(rows, renderListRow(model.theme, model.sessions[index], index == model.cursor, width))
	}
	return strings.Join(rows, "\n")
}

// renderPreview renders the right-pane summary for the selection.
func (model Model) renderPreview(width int) string {
	session := model.sessions[model.cursor]
	loaded, ok := model.previews[session.Prefix]
	if !ok {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("Loading summary...")
	}
	if loaded.err != nil {
		return lipgloss.NewStyle().Foreground(model.theme.ProblemText).
			Render(fmt.Sprintf("Cannot summarize:\n%v", loaded.err))
	}

	summary := loaded.summary
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	line := func(label, value string) string {
		return faint.Render(fmt.Sprintf("%-9s", label)) + normal.Render(value)
	}

	var lines []string
	if len(summary.Meta.Command) > 0 {
		lines = append(lines, line("Command", strings.Join(summary.Meta.Command, " ")))
	}
	if summary.Meta.StartedAtUnixNano > 0 {
		lines = append(lines, line("Started", time.Unix(0, summary.Meta.StartedAtUnixNano).Format(time.RFC3339)))
	}
	lines = append(lines,
		line("Duration", formatDuration(summary.Duration)),
		line("Output", fmt.Sprintf("%d bytes in %d writes", summary.Output.RawBytes, summary.Output.Records)),
		line("Input", fmt.Sprintf("%d bytes in %d writes", summary.Input.RawBytes, summary.Input.Records)),
		line("Resizes", fmt.Sprintf("%d", summary.Resizes)),
	)
	stored := formatBytes(session.OutputBytes)
	if session.Compacted {
		stored += " (compacted)"
	}
	lines = append(lines, line("Stored", stored), "")

	if len(summary.Problems) > 0 {
		problem := lipgloss.NewStyle().Foreground(model.theme.ProblemText)
		lines = append(lines, problem.Render("Problems:"))
		for _, text := range summary.Problems {
			lines = append(lines, problem.Render("  - "+text))
		}
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.AccentText).Render("No problems found."))
	}

	lines = append(lines, "", faint.Render("enter replays this session"))

	rendered := strings.Join(lines, "\n")
	if width > 0 {
		return lipgloss.NewStyle().MaxWidth(width).Render(rendered)
	}
	return rendered
}

// helpLine renders the key binding hints, plus the last scan error if
// one occurred.
func (model Model) helpLine() string {
	bindings := []key.Binding{
		model.keys.Up, model.keys.Down, model.keys.Select, model.keys.Refresh, model.keys.Quit,
	}
	parts := make([]string, 0, len(bindings)+1)
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	text := strings.Join(parts, "  ")
	if model.scanError != "" {
		text += "  " + lipgloss.NewStyle().Foreground(model.theme.ProblemText).Render("rescan failed: "+model.scanError)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(text)
}
