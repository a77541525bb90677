package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"go.withmatt.com/crmmail/internal/config"
)

const toastDurationSeconds = 6

func newAlertModel(theme config.Theme, width int) bubbleup.AlertModel {
	model := *bubbleup.NewAlertModel(width, true, toastDurationSeconds)

	color := strings.TrimSpace(theme.Status.ModeBg)
	if color == "" {
		color = theme.Status.Fg
	}
	model.RegisterNewAlertType(bubbleup.AlertDefinition{
		Key:       bubbleup.InfoKey,
		ForeColor: color,
		Prefix:    bubbleup.InfoNerdSymbol,
	})

	errColor := strings.TrimSpace(theme.Modal.ErrorFg)
	if errColor == "" {
		errColor = color
	}
	model.RegisterNewAlertType(bubbleup.AlertDefinition{
		Key:       bubbleup.ErrorKey,
		ForeColor: errColor,
		Prefix:    bubbleup.ErrorNerdSymbol,
	})

	return model
}

func (m Model) updateAlerts(msg tea.Msg) (Model, tea.Cmd) {
	outAlert, alertCmd := m.ui.alert.Update(msg)
	m.ui.alert = outAlert.(bubbleup.AlertModel)
	return m, alertCmd
}

func (m *Model) toastCmd(format string, args ...any) tea.Cmd {
	return m.ui.alert.NewAlertCmd(bubbleup.InfoKey, fmt.Sprintf(format, args...))
}

func (m *Model) deletedToastCmd(count int) tea.Cmd {
	if count <= 0 {
		return nil
	}
	noun := "message"
	if count != 1 {
		noun = "messages"
	}
	return m.toastCmd("Hid %d %s - r reloads", count, noun)
}

func (m Model) clearAlerts() Model {
	m.ui.alert = newAlertModel(m.theme, m.ui.width)
	return m
}
