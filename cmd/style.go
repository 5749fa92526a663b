package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	accent = lipgloss.Color("#8B5CF6")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	// botStyle frames each trainer message in play mode.
	botStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

func rule(width int) string {
	return mutedStyle.Render(strings.Repeat("─", width))
}

// mark renders a pass/fail glyph.
func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return failStyle.Render("✗")
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
