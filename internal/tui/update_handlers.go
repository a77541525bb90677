package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/mail"
)

func (m Model) updateSpinner(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.ui.spinner, cmd = m.ui.spinner.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m = m.clearAlerts()
	// Any key closes a modal.
	if m.ui.showHelp {
		m.ui.showHelp = false
		return m, nil
	}
	if m.ui.showError {
		m.ui.showError = false
		m.ui.err = nil
		m.manager.ClearErr()
		return m, nil
	}
	if m.search.active {
		return m.handleSearchKey(msg)
	}

	switch m.currentView {
	case viewList:
		return m.handleListKey(msg)
	case viewDetail:
		return m.handleDetailKey(msg)
	default:
		return m, nil
	}
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ui.focused || m.ui.showHelp || m.ui.showError {
		return m, nil
	}

	switch m.currentView {
	case viewList:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			m.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Action != tea.MouseActionPress || msg.Y < listHeaderHeight {
				return m, nil
			}
			start, end := m.getVisibleRange()
			index := start + (msg.Y-listHeaderHeight)/listCardHeight
			if index >= start && index < end {
				m.list.cursor = index
				m.ensureCursorVisible()
				return m.openCurrent()
			}
		default:
			return m, nil
		}
	case viewDetail:
		var cmd tea.Cmd
		m.detail.viewport, cmd = m.detail.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap()
	if m.list.delete.pending {
		switch msg.String() {
		case "y", "Y", "enter":
			removed := m.confirmDelete()
			return m, tea.Batch(m.deletedToastCmd(removed), m.setWindowTitleCmd())
		case "n", "N", "esc":
			m.cancelDelete()
			return m, nil
		default:
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, km.list.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.list.Help):
		m.ui.showHelp = true
		return m, nil
	case key.Matches(msg, km.list.Refresh):
		if m.list.loading || m.list.refreshing {
			return m, nil
		}
		m.logf("refresh folder=%s messages=%d", m.list.folder, len(m.list.messages))
		m.list.refreshing = true
		m.list.loadErr = nil
		return m, tea.Batch(m.reloadCmd(loadManual), m.refreshCountsCmd(true))
	case key.Matches(msg, km.list.ToggleRead):
		return m.toggleFlag(m.manager.ToggleRead, "read")
	case key.Matches(msg, km.list.ToggleStar):
		return m.toggleFlag(m.manager.ToggleStar, "star")
	case key.Matches(msg, km.list.ToggleSelect):
		m.toggleSelection()
		return m, nil
	case key.Matches(msg, km.list.ClearSelection):
		m.manager.ClearSelection()
		return m, nil
	case key.Matches(msg, km.list.Delete):
		m.beginDelete()
		return m, nil
	case key.Matches(msg, km.list.PageUp):
		start, end := m.getVisibleRange()
		m.moveCursor(-max(end-start, 1))
	case key.Matches(msg, km.list.PageDown):
		start, end := m.getVisibleRange()
		m.moveCursor(max(end-start, 1))
	case key.Matches(msg, km.list.Up):
		m.moveCursor(-1)
	case key.Matches(msg, km.list.Down):
		m.moveCursor(1)
	case key.Matches(msg, km.list.Open):
		return m.openCurrent()
	case key.Matches(msg, km.list.Search):
		m.search.previousQuery = m.search.query
		m.search.active = true
		m.search.input.SetValue(m.search.query)
		m.search.input.CursorEnd()
		m.search.input.Focus()
		m.search.input.Width = max(10, m.ui.width-4)
		m.logf("search open query=%q", m.search.query)
		return m, textinput.Blink
	case key.Matches(msg, km.list.FilterUnread):
		m.toggleFilter(func(f *inbox.Filters) { f.Unread = !f.Unread })
	case key.Matches(msg, km.list.FilterStarred):
		m.toggleFilter(func(f *inbox.Filters) { f.Starred = !f.Starred })
	case key.Matches(msg, km.list.FilterAttachments):
		m.toggleFilter(func(f *inbox.Filters) { f.HasAttachments = !f.HasAttachments })
	case key.Matches(msg, km.list.NextFolder):
		return m.switchFolder(m.list.folder.Next())
	case key.Matches(msg, km.list.NextAccount):
		return m.nextAccount()
	}

	return m, nil
}

// toggleFlag applies a flag change locally and confirms it in the
// background.
func (m Model) toggleFlag(toggle func(uint32) (*inbox.Pending, error), what string) (tea.Model, tea.Cmd) {
	msg, ok := m.currentMessage()
	if !ok {
		return m, nil
	}
	p, err := toggle(msg.UID)
	if err != nil {
		return m.surfaceError(err)
	}
	m.syncList()
	return m, m.confirmCmd(p, what)
}

func (m Model) openCurrent() (tea.Model, tea.Cmd) {
	msg, ok := m.currentMessage()
	if !ok {
		return m, nil
	}
	m.currentView = viewDetail
	m.detail.uid = msg.UID
	m.detail.loading = true
	shown := msg
	m.detail.message = &shown
	m.detail.viewport.Width = m.ui.width
	m.detail.viewport.Height = detailViewportHeight(m.ui.height)
	m.detail.viewport.SetContent("")
	m.detail.viewport.GotoTop()
	m.logf("open uid=%d", msg.UID)
	return m, tea.Batch(m.openMessageCmd(msg.UID), m.setWindowTitleCmd())
}

func (m Model) switchFolder(folder mail.Folder) (tea.Model, tea.Cmd) {
	if m.list.loading {
		return m, nil
	}
	m.logf("switch folder from=%s to=%s", m.list.folder, folder)
	m.list.folder = folder
	m.list.messages = nil
	m.list.cursor = 0
	m.list.scrollOffset = 0
	m.list.loading = true
	m.list.loaded = false
	m.list.loadErr = nil
	m.list.maxUID = 0
	m.list.delete = deleteState{}
	return m, tea.Batch(m.switchFolderCmd(folder), m.setWindowTitleCmd())
}

func (m Model) nextAccount() (tea.Model, tea.Cmd) {
	if len(m.accounts) < 2 || m.list.loading {
		return m, nil
	}
	m.accountIndex = (m.accountIndex + 1) % len(m.accounts)
	acct := m.accounts[m.accountIndex]
	m.manager.SwitchAccount(acct)
	m.list.counts = nil
	m.logf("switch account index=%d", m.accountIndex)
	model, cmd := m.switchFolder(mail.FolderInbox)
	return model, tea.Batch(cmd, m.toastCmd("Switched to %s", acct.DisplayName()))
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap()
	switch {
	case key.Matches(msg, km.search.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.search.Cancel):
		m.search.active = false
		m.search.generation++
		m.search.input.Blur()
		m.search.input.SetValue(m.search.previousQuery)
		m.applySearch(m.search.previousQuery)
		m.logf("search cancel restore=%q", m.search.previousQuery)
		return m, nil
	case key.Matches(msg, km.search.Submit):
		m.search.active = false
		m.search.generation++
		m.search.input.Blur()
		m.applySearch(m.search.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	m.search.generation++
	return m, tea.Batch(cmd, m.searchDebounceCmd(m.search.input.Value(), m.search.generation))
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap()
	switch {
	case key.Matches(msg, km.detail.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.detail.Help):
		m.ui.showHelp = true
		return m, nil
	case key.Matches(msg, km.detail.Back):
		return m.exitDetail()
	case key.Matches(msg, km.detail.ToggleRead):
		return m.toggleDetailFlag(m.manager.ToggleRead, "read")
	case key.Matches(msg, km.detail.ToggleStar):
		return m.toggleDetailFlag(m.manager.ToggleStar, "star")
	case key.Matches(msg, km.detail.OpenBrowser):
		if m.detail.message == nil || m.detail.loading {
			return m, nil
		}
		return m, openInBrowserCmd(*m.detail.message)
	}

	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return m, cmd
}

func (m Model) toggleDetailFlag(toggle func(uint32) (*inbox.Pending, error), what string) (tea.Model, tea.Cmd) {
	if m.detail.uid == 0 {
		return m, nil
	}
	p, err := toggle(m.detail.uid)
	if err != nil {
		return m.surfaceError(err)
	}
	m.syncDetailFlags()
	m.syncList()
	return m, m.confirmCmd(p, what)
}

func (m Model) exitDetail() (tea.Model, tea.Cmd) {
	m.manager.Close()
	m.currentView = viewList
	m.resetDetail()
	m.syncList()
	return m, m.setWindowTitleCmd()
}

// syncDetailFlags copies the manager's flags for the open message, which
// may have changed from a toggle, a rollback or the delayed mark-read.
func (m *Model) syncDetailFlags() {
	if m.detail.message == nil {
		return
	}
	current, ok := m.manager.Message(m.detail.uid)
	if !ok {
		return
	}
	if m.detail.message.Unread == current.Unread && m.detail.message.Starred == current.Starred {
		return
	}
	m.detail.message.Unread = current.Unread
	m.detail.message.Starred = current.Starred
	m.refreshDetailContent(false)
}

func (m Model) handleFolderLoaded(msg folderLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.folder != m.list.folder {
		m.logf("drop stale load folder=%s current=%s", msg.folder, m.list.folder)
		return m, nil
	}
	m.list.loading = false
	m.list.refreshing = false

	if msg.err != nil {
		m.logf("load folder=%s source=%d err=%v", msg.folder, msg.source, msg.err)
		if !m.list.loaded && len(m.list.messages) == 0 {
			m.list.loadErr = msg.err
			m.ui.lastErr = msg.err
			return m, m.setWindowTitleCmd()
		}
		if msg.source == loadAuto {
			return m, nil
		}
		return m.surfaceError(msg.err)
	}

	m.list.loaded = true
	m.list.loadErr = nil
	m.ui.lastErr = nil
	m.syncList()

	var maxUID uint32
	for _, message := range m.manager.Messages() {
		maxUID = max(maxUID, message.UID)
	}
	prevMax := m.list.maxUID
	m.list.maxUID = maxUID

	cmds := []tea.Cmd{m.setWindowTitleCmd()}
	if msg.source == loadAuto && prevMax != 0 && maxUID > prevMax && m.list.folder == mail.FolderInbox {
		m.logf("new mail max uid=%d prev=%d", maxUID, prevMax)
		cmds = append(cmds, bellCmd(), m.toastCmd("New mail"), m.refreshCountsCmd(true))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleCountsLoaded(msg countsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logf("counts err=%v", msg.err)
		return m, nil
	}
	m.list.counts = msg.counts
	return m, m.setWindowTitleCmd()
}

func (m Model) handleMessageLoaded(msg messageLoadedMsg) (tea.Model, tea.Cmd) {
	if m.currentView != viewDetail || msg.uid != m.detail.uid {
		return m, nil
	}
	m.detail.loading = false
	if msg.message != nil {
		m.detail.message = msg.message
	}
	m.refreshDetailContent(true)
	if msg.err != nil {
		m.logf("open uid=%d err=%v", msg.uid, msg.err)
		return m.surfaceError(msg.err)
	}
	return m, m.setWindowTitleCmd()
}

func (m Model) handleFlagConfirmed(msg flagConfirmedMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		return m, nil
	}
	m.logf("%s uid=%d err=%v", msg.what, msg.uid, msg.err)
	m.syncList()
	if m.currentView == viewDetail && msg.uid == m.detail.uid {
		m.syncDetailFlags()
	}
	return m.surfaceError(msg.err)
}

func (m Model) handleChange(msg changeMsg) (tea.Model, tea.Cmd) {
	next := m.waitForChangeCmd()
	switch msg.change.Kind {
	case inbox.ChangeMessages, inbox.ChangeMessage:
		m.syncList()
		if m.currentView == viewDetail {
			m.syncDetailFlags()
		}
	case inbox.ChangeCounts:
		m.list.counts = m.manager.Counts()
		return m, tea.Batch(next, m.setWindowTitleCmd())
	case inbox.ChangeError:
		// Loads and opens in flight report their own failures.
		if m.list.loading || m.list.refreshing || m.detail.loading {
			return m, next
		}
		model, cmd := m.surfaceError(msg.change.Err)
		return model, tea.Batch(next, cmd)
	}
	return m, next
}

func (m Model) handleSearchDebounce(msg searchDebounceMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.search.generation {
		m.logf("search debounce skipped gen=%d current=%d", msg.generation, m.search.generation)
		return m, nil
	}
	m.applySearch(msg.query)
	return m, nil
}

func (m Model) handleAutoRefresh(msg autoRefreshMsg) (tea.Model, tea.Cmd) {
	if m.uiConfig.RefreshIntervalSeconds <= 0 {
		return m, nil
	}
	if m.list.loading || m.list.refreshing || !m.list.loaded {
		return m, m.autoRefreshCmd()
	}
	m.list.refreshing = true
	return m, tea.Batch(m.reloadCmd(loadAuto), m.autoRefreshCmd())
}

func (m Model) handleBrowserOpened(msg browserOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.surfaceError(msg.err)
	}
	return m, m.toastCmd("Opened in browser")
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	oldWidth := m.ui.width
	m.ui.width = msg.Width
	m.ui.height = msg.Height
	m.search.input.Width = max(10, msg.Width-4)
	if msg.Width != oldWidth && msg.Width > 0 {
		m.ui.alert = newAlertModel(m.theme, msg.Width)
	}

	m.detail.viewport.Width = msg.Width
	m.detail.viewport.Height = detailViewportHeight(msg.Height)
	if m.currentView == viewDetail && msg.Width != oldWidth {
		m.refreshDetailContent(false)
	}

	m.ensureCursorVisible()
	return m, nil
}

// surfaceError shows err in the error modal unless it is the failure the
// user has already been shown.
func (m Model) surfaceError(err error) (tea.Model, tea.Cmd) {
	if err == nil {
		return m, nil
	}
	if m.ui.lastErr != nil && (errors.Is(err, m.ui.lastErr) || sameError(err, m.ui.lastErr)) {
		m.logf("error already shown: %v", err)
		return m, nil
	}
	m.ui.lastErr = err
	m.ui.err = err
	m.ui.showError = true
	return m, nil
}

func sameError(a, b error) bool {
	return strings.TrimSpace(a.Error()) == strings.TrimSpace(b.Error())
}
