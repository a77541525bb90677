package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	windowTitleMaxRunes = 80
	windowTitleSuffix   = " - crmmail"
)

func (m *Model) setWindowTitleCmd() tea.Cmd {
	return tea.SetWindowTitle(m.windowTitle())
}

func (m *Model) windowTitle() string {
	switch m.currentView {
	case viewDetail:
		return formatWindowTitle(m.detailTitle())
	default:
		label := m.list.folder.Label()
		if n := m.list.counts[m.list.folder]; n > 0 {
			return formatWindowTitle(label + " (" + itoa(n) + ")")
		}
		return formatWindowTitle(label)
	}
}

func (m *Model) detailTitle() string {
	if m.detail.message == nil {
		return "Message"
	}
	subject := strings.TrimSpace(stripZeroWidth(m.detail.message.Subject))
	if subject != "" {
		return subject
	}
	from := strings.TrimSpace(stripZeroWidth(m.detail.message.Sender()))
	if from != "" {
		return "Message from " + from
	}
	return "Message"
}

func formatWindowTitle(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return "crmmail"
	}
	return truncateToWidth(body, windowTitleMaxRunes-len(windowTitleSuffix)) + windowTitleSuffix
}
