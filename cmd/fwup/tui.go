// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guidomb/statemodeling/pkg/firmware"
)

// The terminal UI is a rendering adapter: it subscribes to the engine's two
// feeds, translates states into a view, and translates key presses back into
// dispatched events. It never touches the state cell directly.

type (
	tuiStateMsg  firmware.State
	tuiOutputMsg firmware.Message

	tuiModel struct {
		dispatch  func(firmware.Event)
		state     firmware.State
		installed *firmware.InstallCompleted
	}
)

var (
	tuiTitleStyle    = lipgloss.NewStyle().Bold(true)
	tuiPhaseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	tuiErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tuiSuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tuiHintStyle     = lipgloss.NewStyle().Faint(true)
	tuiBarFilledRune = "█"
	tuiBarEmptyRune  = "░"
)

const tuiBarWidth = 40

func runTUI(ctx context.Context, r *runner) error {
	defer r.comp.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tuiModel{
		dispatch: r.comp.Dispatch,
		state:    r.comp.State(),
	})

	go func() {
		for state := range r.comp.States(ctx) {
			r.record(state)
			// Auto-advance the happy path; error states wait for a retry key.
			switch state.(type) {
			case firmware.PendingDownload:
				r.comp.Dispatch(firmware.Download{})
			case firmware.PendingInstall:
				r.comp.Dispatch(firmware.Install{})
			}
			program.Send(tuiStateMsg(state))
		}
	}()
	go func() {
		for message := range r.comp.Messages(ctx) {
			program.Send(tuiOutputMsg(message))
		}
	}()

	r.comp.Dispatch(firmware.CheckForUpdate{})
	_, err := program.Run()
	return err
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tuiStateMsg:
		m.state = firmware.State(msg)
		if _, ok := m.state.(firmware.UpToDate); ok {
			return m, tea.Quit
		}
		return m, nil
	case tuiOutputMsg:
		if installed, ok := firmware.Message(msg).(firmware.InstallCompleted); ok {
			m.installed = &installed
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if event, ok := retryEvent(m.state); ok {
				m.dispatch(event)
			}
			return m, nil
		}
	}
	return m, nil
}

// retryEvent maps an error state to the event that re-enters its phase.
func retryEvent(state firmware.State) (firmware.Event, bool) {
	switch state.(type) {
	case firmware.CheckForUpdateError:
		return firmware.CheckForUpdate{}, true
	case firmware.DownloadError:
		return firmware.Download{}, true
	case firmware.InstallError:
		return firmware.Install{}, true
	default:
		return nil, false
	}
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(tuiTitleStyle.Render("fwup — firmware update"))
	b.WriteString("\n\n")

	switch s := m.state.(type) {
	case firmware.Idle:
		b.WriteString(tuiPhaseStyle.Render("Idle"))
	case firmware.CheckingForUpdate:
		b.WriteString(tuiPhaseStyle.Render(fmt.Sprintf("Checking for update (%s)...", s.Tracker.ID)))
	case firmware.CheckForUpdateError:
		b.WriteString(tuiErrorStyle.Render(fmt.Sprintf("Check failed: %v", s.Err)))
		b.WriteString("\n" + tuiHintStyle.Render("r retry · q quit"))
	case firmware.PendingDownload:
		b.WriteString(tuiPhaseStyle.Render(fmt.Sprintf("Update available: %s", s.Firmware.Version)))
	case firmware.Downloading:
		b.WriteString(tuiPhaseStyle.Render(fmt.Sprintf("Downloading %s", s.Firmware.Version)))
		b.WriteString("\n" + renderBar(s.Progress))
	case firmware.DownloadError:
		b.WriteString(tuiErrorStyle.Render(fmt.Sprintf("Download failed: %v", s.Err)))
		b.WriteString("\n" + tuiHintStyle.Render("r retry · q quit"))
	case firmware.PendingInstall:
		b.WriteString(tuiPhaseStyle.Render(fmt.Sprintf("Downloaded %s", s.Archive.Location)))
	case firmware.Installing:
		b.WriteString(tuiPhaseStyle.Render(fmt.Sprintf("Installing %s", s.Archive.Metadata.Version)))
		b.WriteString("\n" + renderBar(s.Progress))
	case firmware.InstallError:
		b.WriteString(tuiErrorStyle.Render(fmt.Sprintf("Install failed: %v", s.Err)))
		b.WriteString("\n" + tuiHintStyle.Render("r retry · q quit"))
	case firmware.UpToDate:
		b.WriteString(tuiSuccessStyle.Render(fmt.Sprintf("Up-to-date: %s", s.Version)))
	}
	if m.installed != nil {
		b.WriteString("\n" + tuiSuccessStyle.Render(fmt.Sprintf("Firmware %s installed", m.installed.Version)))
	}
	b.WriteString("\n")
	return b.String()
}

func renderBar(progress firmware.Progress) string {
	filled := int(progress.Relative() * tuiBarWidth)
	if filled > tuiBarWidth {
		filled = tuiBarWidth
	}
	return fmt.Sprintf("%s%s %5.1f%%",
		strings.Repeat(tuiBarFilledRune, filled),
		strings.Repeat(tuiBarEmptyRune, tuiBarWidth-filled),
		progress.Percentage())
}
