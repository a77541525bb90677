package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/mail"
)

type loadSource int

const (
	loadInit loadSource = iota
	loadManual
	loadAuto
)

type folderLoadedMsg struct {
	folder mail.Folder
	source loadSource
	err    error
}

type countsLoadedMsg struct {
	counts map[mail.Folder]int
	err    error
}

type messageLoadedMsg struct {
	uid     uint32
	message *mail.Message
	err     error
}

type flagConfirmedMsg struct {
	uid  uint32
	what string
	err  error
}

type changeMsg struct {
	change inbox.Change
}

type searchDebounceMsg struct {
	query      string
	generation int
}

type autoRefreshMsg struct{}

type browserOpenedMsg struct {
	err error
}

// switchFolderCmd replaces the list with folder's messages. Counts are
// refreshed by the manager when it has none cached.
func (m *Model) switchFolderCmd(folder mail.Folder) tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	return func() tea.Msg {
		err := manager.SwitchFolder(ctx, folder)
		return folderLoadedMsg{folder: folder, source: loadInit, err: err}
	}
}

func (m *Model) reloadCmd(source loadSource) tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	folder := m.list.folder
	return func() tea.Msg {
		err := manager.Reload(ctx)
		return folderLoadedMsg{folder: folder, source: source, err: err}
	}
}

func (m *Model) refreshCountsCmd(force bool) tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	return func() tea.Msg {
		counts, err := manager.RefreshCounts(ctx, force)
		return countsLoadedMsg{counts: counts, err: err}
	}
}

func (m *Model) openMessageCmd(uid uint32) tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	return func() tea.Msg {
		msg, err := manager.Open(ctx, uid)
		return messageLoadedMsg{uid: uid, message: msg, err: err}
	}
}

// confirmCmd sends an optimistic change to the gateway. The manager has
// already rolled it back when the returned message carries an error.
func (m *Model) confirmCmd(p *inbox.Pending, what string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := p.Confirm(ctx)
		return flagConfirmedMsg{uid: p.UID(), what: what, err: err}
	}
}

// waitForChangeCmd blocks until the manager reports a background change.
// Every changeMsg handler must issue it again to keep listening.
func (m *Model) waitForChangeCmd() tea.Cmd {
	changes := m.manager.Changes()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case change := <-changes:
			return changeMsg{change: change}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) autoRefreshCmd() tea.Cmd {
	if m.uiConfig.RefreshIntervalSeconds <= 0 {
		return nil
	}
	interval := time.Duration(m.uiConfig.RefreshIntervalSeconds) * time.Second
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return autoRefreshMsg{}
	})
}

func (m *Model) searchDebounceCmd(query string, generation int) tea.Cmd {
	return tea.Tick(m.uiConfig.SearchDebounce(), func(time.Time) tea.Msg {
		return searchDebounceMsg{query: query, generation: generation}
	})
}

func openInBrowserCmd(msg mail.Message) tea.Cmd {
	return func() tea.Msg {
		html := strings.TrimSpace(msg.HTML)
		if html == "" {
			return browserOpenedMsg{err: fmt.Errorf("message %d has no HTML part", msg.UID)}
		}
		return browserOpenedMsg{err: browser.OpenReader(strings.NewReader(html))}
	}
}

func bellCmd() tea.Cmd {
	return func() tea.Msg {
		fmt.Print("\a")
		return nil
	}
}
