// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by the pager chrome and state labels.
// Colors are ANSI 256-color codes.
type Theme struct {
	FaintText  lipgloss.Color
	TitleText  lipgloss.Color
	StateOK    lipgloss.Color
	StatePause lipgloss.Color
	StateError lipgloss.Color
	StateIdle  lipgloss.Color
}

// DefaultTheme is the built-in palette.
var DefaultTheme = Theme{
	FaintText:  lipgloss.Color("245"),
	TitleText:  lipgloss.Color("75"),
	StateOK:    lipgloss.Color("114"),
	StatePause: lipgloss.Color("221"),
	StateError: lipgloss.Color("203"),
	StateIdle:  lipgloss.Color("250"),
}

// StateStyle returns the style for a component state label.
func (theme Theme) StateStyle(state string) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch state {
	case "running", "ok", "active":
		return style.Foreground(theme.StateOK)
	case "paused", "draining":
		return style.Foreground(theme.StatePause)
	case "error", "failed", "missing":
		return style.Foreground(theme.StateError).Bold(true)
	default:
		return style.Foreground(theme.StateIdle)
	}
}

// TitleStyle returns the style for headings.
func (theme Theme) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.TitleText)
}
