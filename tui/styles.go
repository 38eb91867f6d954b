/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import "github.com/charmbracelet/lipgloss"

var (
	forColor     = lipgloss.Color("#60A5FA")
	againstColor = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")
	textColor    = lipgloss.Color("#F9FAFB")
	accentColor  = lipgloss.Color("#A78BFA")
	borderColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Italic(true).
			Foreground(textColor).
			MarginBottom(1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(againstColor).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(22)
	focusStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(22)
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	voteStyle  = lipgloss.NewStyle().Foreground(againstColor).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)

	sideStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	activeSideStyle = sideStyle.BorderForeground(accentColor)

	cardStyle = lipgloss.NewStyle().
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor)
)

func roleColor(forSide bool) lipgloss.Color {
	if forSide {
		return forColor
	}
	return againstColor
}
