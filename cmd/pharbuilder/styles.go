// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminal backgrounds. The accent is the PHP elephant indigo.
const (
	colorAccent   = lipgloss.Color("#777BB4")
	colorDim      = lipgloss.Color("#6B7280")
	colorOK       = lipgloss.Color("#10B981")
	colorFail     = lipgloss.Color("#EF4444")
	colorLabel    = lipgloss.Color("#F59E0B")
	colorEntry    = lipgloss.Color("#3B82F6")
	colorProgress = lipgloss.Color("#9CA3AF")
)

// Styles shared by the package summary, the inspect listing and error output.
// PathStyle renders file paths and archive entry names; VerboseStyle renders
// per-entry progress lines.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorDim)
	SuccessStyle  = lipgloss.NewStyle().Foreground(colorOK)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFail)
	PathStyle     = lipgloss.NewStyle().Foreground(colorEntry)
	VerboseStyle  = lipgloss.NewStyle().Foreground(colorProgress)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorLabel)
)
