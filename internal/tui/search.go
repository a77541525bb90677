package tui

import (
	"strings"

	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/mail"
)

func (m *Model) displayCount() int {
	return len(m.list.messages)
}

// currentMessage is the message under the cursor.
func (m *Model) currentMessage() (mail.Message, bool) {
	if m.list.cursor < 0 || m.list.cursor >= len(m.list.messages) {
		return mail.Message{}, false
	}
	return m.list.messages[m.list.cursor], true
}

// syncList copies the manager's filtered view, keeping the cursor on the
// message it was on when that message is still shown.
func (m *Model) syncList() {
	prev, hadPrev := m.currentMessage()

	m.list.messages = m.manager.Filtered()
	m.list.total = len(m.manager.Messages())
	if counts := m.manager.Counts(); counts != nil {
		m.list.counts = counts
	}

	if hadPrev {
		for i, msg := range m.list.messages {
			if msg.UID == prev.UID {
				m.list.cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

func (m *Model) applySearch(query string) {
	query = strings.TrimSpace(query)
	m.logf("search apply query=%q prev=%q", query, m.search.query)
	if query != m.search.query {
		m.list.cursor = 0
	}
	m.search.query = query
	m.manager.SetSearch(query)
	m.syncList()
}

func (m *Model) toggleFilter(toggle func(*inbox.Filters)) {
	filters := m.manager.Filters()
	toggle(&filters)
	m.manager.SetFilters(filters)
	m.list.cursor = 0
	m.syncList()
}

func (m *Model) clampCursor() {
	count := m.displayCount()
	switch {
	case count == 0:
		m.list.cursor = 0
	case m.list.cursor < 0:
		m.list.cursor = 0
	case m.list.cursor >= count:
		m.list.cursor = count - 1
	}
	m.ensureCursorVisible()
}

func filterLabels(f inbox.Filters) []string {
	var labels []string
	if f.Unread {
		labels = append(labels, "unread")
	}
	if f.Starred {
		labels = append(labels, "starred")
	}
	if f.HasAttachments {
		labels = append(labels, "attachments")
	}
	return labels
}
