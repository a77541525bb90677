package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"go.withmatt.com/crmmail/internal/config"
)

type listKeyMap struct {
	Up                key.Binding
	Down              key.Binding
	PageUp            key.Binding
	PageDown          key.Binding
	Open              key.Binding
	ToggleRead        key.Binding
	ToggleStar        key.Binding
	ToggleSelect      key.Binding
	ClearSelection    key.Binding
	Delete            key.Binding
	NextFolder        key.Binding
	NextAccount       key.Binding
	FilterUnread      key.Binding
	FilterStarred     key.Binding
	FilterAttachments key.Binding
	Search            key.Binding
	Refresh           key.Binding
	Help              key.Binding
	Quit              key.Binding
}

type detailKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	ToggleRead  key.Binding
	ToggleStar  key.Binding
	OpenBrowser key.Binding
	Back        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

type searchKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

type keyMap struct {
	view         viewState
	searchActive bool

	list   listKeyMap
	detail detailKeyMap
	search searchKeyMap
}

func keyMapFromConfig(cfg config.KeyMap) keyMap {
	return keyMap{
		list: listKeyMap{
			Up: makeBinding(bindingDef{keys: []string{"k", "up"}, desc: "up"}, cfg.List.Up),
			Down: makeBinding(
				bindingDef{keys: []string{"j", "down"}, desc: "down"},
				cfg.List.Down,
			),
			PageUp: makeBinding(
				bindingDef{keys: []string{"pgup"}, desc: "page up"},
				cfg.List.PageUp,
			),
			PageDown: makeBinding(
				bindingDef{keys: []string{"pgdown"}, desc: "page down"},
				cfg.List.PageDown,
			),
			Open: makeBinding(
				bindingDef{keys: []string{"enter"}, desc: "open"},
				cfg.List.Open,
			),
			ToggleRead: makeBinding(
				bindingDef{keys: []string{" ", "space", "m"}, desc: "read/unread"},
				cfg.List.ToggleRead,
			),
			ToggleStar: makeBinding(
				bindingDef{keys: []string{"s"}, desc: "star"},
				cfg.List.ToggleStar,
			),
			ToggleSelect: makeBinding(
				bindingDef{keys: []string{"x"}, desc: "select"},
				cfg.List.ToggleSelect,
			),
			ClearSelection: makeBinding(
				bindingDef{keys: []string{"X"}, desc: "clear"},
				cfg.List.ClearSelection,
			),
			Delete: makeBinding(
				bindingDef{keys: []string{"d"}, desc: "delete"},
				cfg.List.Delete,
			),
			NextFolder: makeBinding(
				bindingDef{keys: []string{"tab"}, desc: "next folder"},
				cfg.List.NextFolder,
			),
			NextAccount: makeBinding(
				bindingDef{keys: []string{"A"}, desc: "next account"},
				cfg.List.NextAccount,
			),
			FilterUnread: makeBinding(
				bindingDef{keys: []string{"U"}, desc: "unread only"},
				cfg.List.FilterUnread,
			),
			FilterStarred: makeBinding(
				bindingDef{keys: []string{"*"}, desc: "starred only"},
				cfg.List.FilterStarred,
			),
			FilterAttachments: makeBinding(
				bindingDef{keys: []string{"@"}, desc: "attachments only"},
				cfg.List.FilterAttachments,
			),
			Search: makeBinding(
				bindingDef{keys: []string{"/"}, desc: "search"},
				cfg.List.Search,
			),
			Refresh: makeBinding(
				bindingDef{keys: []string{"r"}, desc: "refresh"},
				cfg.List.Refresh,
			),
			Help: makeBinding(bindingDef{keys: []string{"?"}, desc: "help"}, cfg.List.Help),
			Quit: makeBinding(
				bindingDef{keys: []string{"q", "esc", "ctrl+c"}, desc: "quit"},
				cfg.List.Quit,
			),
		},
		detail: detailKeyMap{
			Up: makeBinding(
				bindingDef{keys: []string{"k", "up"}, desc: "scroll up"},
				cfg.Detail.Up,
			),
			Down: makeBinding(
				bindingDef{keys: []string{"j", "down"}, desc: "scroll down"},
				cfg.Detail.Down,
			),
			ToggleRead: makeBinding(
				bindingDef{keys: []string{"m"}, desc: "read/unread"},
				cfg.Detail.ToggleRead,
			),
			ToggleStar: makeBinding(
				bindingDef{keys: []string{"s"}, desc: "star"},
				cfg.Detail.ToggleStar,
			),
			OpenBrowser: makeBinding(
				bindingDef{keys: []string{"o"}, desc: "open in browser"},
				cfg.Detail.OpenBrowser,
			),
			Back: makeBinding(
				bindingDef{keys: []string{"esc", "q"}, desc: "back"},
				cfg.Detail.Back,
			),
			Help: makeBinding(
				bindingDef{keys: []string{"?"}, desc: "help"},
				cfg.Detail.Help,
			),
			Quit: makeBinding(
				bindingDef{keys: []string{"ctrl+c"}, desc: "quit"},
				cfg.Detail.Quit,
			),
		},
		search: searchKeyMap{
			Submit: makeBinding(
				bindingDef{keys: []string{"enter"}, desc: "apply"},
				cfg.Search.Submit,
			),
			Cancel: makeBinding(
				bindingDef{keys: []string{"esc"}, desc: "cancel"},
				cfg.Search.Cancel,
			),
			Quit: makeBinding(
				bindingDef{keys: []string{"ctrl+c"}, desc: "quit"},
				cfg.Search.Quit,
			),
		},
	}
}

func (m Model) keyMap() keyMap {
	km := keyMapFromConfig(m.keyMapCfg)
	km.view = m.currentView
	km.searchActive = m.search.active
	return km
}

type bindingDef struct {
	keys []string
	desc string
}

func makeBinding(def bindingDef, override []string) key.Binding {
	keys := def.keys
	if len(override) > 0 {
		keys = override
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(formatHelpKeys(keys), def.desc),
	)
}

func formatHelpKeys(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		label := formatKeyLabel(key)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return strings.Join(out, "/")
}

func formatKeyLabel(key string) string {
	switch key {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "left":
		return "←"
	case "right":
		return "→"
	case "pgdown":
		return "pgdn"
	case " ":
		return "space"
	default:
		return key
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.searchActive {
		return []key.Binding{k.search.Submit, k.search.Cancel, k.search.Quit}
	}
	switch k.view {
	case viewDetail:
		return []key.Binding{
			k.detail.Up,
			k.detail.Down,
			k.detail.ToggleStar,
			k.detail.OpenBrowser,
			k.detail.Back,
			k.detail.Help,
		}
	default:
		return []key.Binding{
			k.list.Up,
			k.list.Down,
			k.list.Open,
			k.list.ToggleStar,
			k.list.ToggleSelect,
			k.list.Delete,
			k.list.NextFolder,
			k.list.Search,
			k.list.Help,
			k.list.Quit,
		}
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	if k.searchActive {
		return [][]key.Binding{
			{k.search.Submit, k.search.Cancel},
			{k.search.Quit},
		}
	}
	switch k.view {
	case viewDetail:
		return [][]key.Binding{
			{k.detail.Up, k.detail.Down},
			{k.detail.ToggleRead, k.detail.ToggleStar, k.detail.OpenBrowser},
			{k.detail.Back, k.detail.Help, k.detail.Quit},
		}
	default:
		return [][]key.Binding{
			{k.list.Up, k.list.Down, k.list.PageUp, k.list.PageDown},
			{k.list.Open, k.list.ToggleRead, k.list.ToggleStar},
			{k.list.ToggleSelect, k.list.ClearSelection, k.list.Delete},
			{k.list.FilterUnread, k.list.FilterStarred, k.list.FilterAttachments, k.list.Search},
			{k.list.NextFolder, k.list.NextAccount, k.list.Refresh},
			{k.list.Help, k.list.Quit},
		}
	}
}
