// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for the rye CLI.
//
// Colors adapt to light and dark terminals and are disabled entirely for
// non-TTY output or when NO_COLOR is set.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// PALETTE
// =============================================================================

var (
	colorPurple    = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	colorCyan      = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	colorEmerald   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	colorRose      = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	colorAmber     = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// WelcomeStyle is used for the chat banner
	WelcomeStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	// PromptStyle is used for the input prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	// UserHeadingStyle marks the user's turns in `rye show`
	UserHeadingStyle = lipgloss.NewStyle().
				Foreground(colorCyan).
				Bold(true)

	// AssistantHeadingStyle marks the assistant's turns in `rye show`
	AssistantHeadingStyle = lipgloss.NewStyle().
				Foreground(colorPurple).
				Bold(true)

	// CommandStyle is used for command names in help output
	CommandStyle = lipgloss.NewStyle().
			Foreground(colorEmerald)

	// SuccessStyle is used for confirmations
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorEmerald)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorRose).
			Bold(true)

	// WarningStyle is used for warnings and cancellations
	WarningStyle = lipgloss.NewStyle().
			Foreground(colorAmber)

	// InfoStyle is used for secondary information
	InfoStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	// DimStyle is used for hints and separators
	DimStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Width(12)
)

// Separator returns a horizontal rule of the given width.
func Separator(width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return DimStyle.Render(strings.Repeat("─", width))
}
