package tui

// View renders the UI.
func (m Model) View() string {
	var output string
	if m.currentView == viewDetail {
		output = m.renderDetailView()
	} else {
		output = m.renderListView()
	}

	switch {
	case m.ui.showHelp:
		output = m.overlayModal(output, m.renderHelpModal())
	case m.ui.showError && m.ui.err != nil:
		output = m.overlayModal(output, m.renderErrorModal())
	}

	return m.ui.alert.Render(output)
}
