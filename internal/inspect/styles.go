// Package inspect provides interactive terminal browsers for ground-truth
// sets and evaluation runs: filter, drill into a record, and export a
// curated subset.
package inspect

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	detailStyle = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252")).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	return styles
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
