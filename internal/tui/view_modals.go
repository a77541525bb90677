package tui

import (
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// overlayModal centers a bordered dialog on top of the base view.
func (m *Model) overlayModal(baseView string, modal string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Detail.BorderNormal)).
		Padding(1, 2)
	return overlay.Composite(box.Render(modal), baseView, overlay.Center, overlay.Center, 0, 0)
}

type modalContent struct {
	title      string
	titleColor string
	body       string
	footer     string
	minWidth   int
	maxWidth   int
}

func (m *Model) renderModal(c modalContent) string {
	width := max(c.minWidth, min(c.maxWidth, m.ui.width-10))
	centered := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	title := centered.Bold(true)
	if c.titleColor != "" {
		title = title.Foreground(lipgloss.Color(c.titleColor))
	}
	footer := centered.Foreground(lipgloss.Color(m.theme.Modal.FooterFg))

	return lipgloss.JoinVertical(lipgloss.Left,
		title.Render(c.title),
		"",
		lipgloss.NewStyle().Width(width).Render(c.body),
		"",
		footer.Render(c.footer),
	)
}

func (m *Model) renderHelpModal() string {
	const minWidth, maxWidth = 40, 80
	h := m.ui.help
	h.ShowAll = true
	h.Width = max(10, max(minWidth, min(maxWidth, m.ui.width-10))-4)
	return m.renderModal(modalContent{
		title:    "Keyboard Shortcuts",
		body:     h.View(m.keyMap()),
		footer:   "Press any key to close",
		minWidth: minWidth,
		maxWidth: maxWidth,
	})
}

func (m *Model) renderErrorModal() string {
	return m.renderModal(modalContent{
		title:      "Error",
		titleColor: m.theme.Modal.ErrorFg,
		body:       m.ui.err.Error(),
		footer:     "Press any key to dismiss",
		minWidth:   30,
		maxWidth:   60,
	})
}
