package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/mail"
)

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// Model is the TUI application state
type Model struct {
	currentView viewState

	ui        uiState
	list      listState
	detail    detailState
	search    searchState
	renderers renderersState
	theme     config.Theme
	uiConfig  config.UIConfig
	keyMapCfg config.KeyMap

	manager      *inbox.Manager
	accounts     []mail.Account
	accountIndex int

	ctx context.Context
}

// New creates a model over manager. accounts are the accounts the user can
// cycle through; the manager's current account is selected first.
func New(
	ctx context.Context,
	manager *inbox.Manager,
	accounts []mail.Account,
	theme config.Theme,
	uiConfig config.UIConfig,
	keyMapCfg config.KeyMap,
) Model {
	ui := newUIState()
	ui.help = newHelpModel(theme)
	ui.alert = newAlertModel(theme, 0)

	r, _ := newGlamourRenderer(theme, 80)

	accountIndex := 0
	if current, ok := manager.Account(); ok {
		for i, acct := range accounts {
			if strings.EqualFold(acct.Email, current.Email) {
				accountIndex = i
				break
			}
		}
	}

	model := Model{
		currentView: viewList,
		ui:          ui,
		list: listState{
			folder:  manager.Folder(),
			loading: true,
		},
		detail:    newDetailState(),
		search:    newSearchState(theme),
		theme:     theme,
		uiConfig:  uiConfig,
		keyMapCfg: keyMapCfg,
		renderers: renderersState{
			glamourRenderer: r,
			glamourWidth:    80,
		},
		manager:      manager,
		accounts:     accounts,
		accountIndex: accountIndex,
		ctx:          ctx,
	}
	model.logf("tui started account=%d folder=%s", accountIndex, model.list.folder)
	return model
}

func newGlamourRenderer(theme config.Theme, width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(theme)),
		glamour.WithEmoji(),
		glamour.WithWordWrap(width),
	)
}

// Init loads the current folder and starts listening for manager changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.switchFolderCmd(m.list.folder),
		m.waitForChangeCmd(),
		m.ui.spinner.Tick,
		m.ui.alert.Init(),
		m.autoRefreshCmd(),
		m.setWindowTitleCmd(),
	)
}

// Run starts the TUI
func Run(
	ctx context.Context,
	manager *inbox.Manager,
	accounts []mail.Account,
	theme config.Theme,
	uiConfig config.UIConfig,
	keyMapCfg config.KeyMap,
) error {
	p := tea.NewProgram(
		New(ctx, manager, accounts, theme, uiConfig, keyMapCfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	// Leaving with a message open must not mark it read later.
	manager.Close()
	return err
}
