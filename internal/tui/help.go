package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"go.withmatt.com/crmmail/internal/config"
)

func newHelpModel(theme config.Theme) help.Model {
	m := help.New()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Status.Fg)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Status.Dim))
	m.Styles.ShortKey = keyStyle
	m.Styles.ShortDesc = descStyle
	m.Styles.ShortSeparator = descStyle
	m.Styles.FullKey = keyStyle
	m.Styles.FullDesc = descStyle
	m.Styles.FullSeparator = descStyle
	m.Styles.Ellipsis = descStyle
	m.ShortSeparator = " • "
	m.FullSeparator = "    "
	m.Ellipsis = "..."
	return m
}
