package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.dalton.dog/bubbleup"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/mail"
)

type uiState struct {
	width     int
	height    int
	focused   bool
	spinner   spinner.Model
	help      help.Model
	alert     bubbleup.AlertModel
	showHelp  bool
	showError bool
	err       error
	// lastErr is the most recent error shown, so the same failure reported
	// by a command and by the change feed only pops up once.
	lastErr error
}

type listState struct {
	folder       mail.Folder
	messages     []mail.Message
	total        int
	counts       map[mail.Folder]int
	cursor       int
	scrollOffset int
	loading      bool
	refreshing   bool
	loaded       bool
	loadErr      error
	maxUID       uint32
	delete       deleteState
}

type deleteState struct {
	pending bool
	count   int
	// autoSelected is the message selected on the user's behalf when delete
	// was pressed without a selection.
	autoSelected uint32
}

type detailState struct {
	uid      uint32
	message  *mail.Message
	loading  bool
	viewport viewport.Model
}

type searchState struct {
	active        bool
	query         string
	input         textinput.Model
	previousQuery string
	generation    int
}

type renderersState struct {
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

func newUIState() uiState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return uiState{spinner: s, focused: true}
}

func newDetailState() detailState {
	return detailState{viewport: viewport.New(0, 0)}
}

func newSearchState(theme config.Theme) searchState {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "subject, sender or text"
	input.CharLimit = 200
	input.Blur()
	statusStyle := lipgloss.NewStyle().
		Background(lipgloss.Color(theme.Status.Bg)).
		Foreground(lipgloss.Color(theme.Status.Fg)).
		Bold(true)
	input.PromptStyle = statusStyle
	input.TextStyle = statusStyle
	input.PlaceholderStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.Status.Bg)).
		Foreground(lipgloss.Color(theme.Status.Dim)).
		Faint(true)
	input.Cursor.Style = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.Status.Fg)).
		Foreground(lipgloss.Color(theme.Status.Bg))
	return searchState{input: input}
}

func (m *Model) resetDetail() {
	m.detail.uid = 0
	m.detail.message = nil
	m.detail.loading = false
	m.detail.viewport.SetContent("")
	m.detail.viewport.GotoTop()
}
