// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names and keys.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// Load-order tree, one style per packaging kind.
	profileStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	featureStyle   = lipgloss.NewStyle().Foreground(ColorHighlight)
	extensionStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	treeEnumStyle  = lipgloss.NewStyle().Foreground(ColorMuted).MarginRight(1)
)
