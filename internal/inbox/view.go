package inbox

import (
	"sort"
	"strings"

	"go.withmatt.com/crmmail/internal/mail"
)

// Filters narrow the list. Set flags combine with AND.
type Filters struct {
	Unread         bool
	Starred        bool
	HasAttachments bool
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.Unread || f.Starred || f.HasAttachments
}

func (f Filters) match(msg *mail.Message) bool {
	if f.Unread && !msg.Unread {
		return false
	}
	if f.Starred && !msg.Starred {
		return false
	}
	if f.HasAttachments && !msg.HasAttachments {
		return false
	}
	return true
}

func (m *Manager) SetSearch(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.search = term
}

func (m *Manager) Search() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

func (m *Manager) SetFilters(f Filters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = f
}

func (m *Manager) Filters() Filters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// Filtered returns the fetched messages matching the search term and
// filters, newest first. Matching happens only over the fetched page.
func (m *Manager) Filtered() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterMessages(m.messages, m.search, m.filters)
}

// FilterMessages applies a case-insensitive search over subject, sender and
// snippet plus filters to messages, returning a new slice sorted by date
// descending.
func FilterMessages(messages []mail.Message, search string, filters Filters) []mail.Message {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]mail.Message, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		if !filters.match(msg) {
			continue
		}
		if term != "" && !matchesTerm(msg, term) {
			continue
		}
		out = append(out, *msg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func matchesTerm(msg *mail.Message, term string) bool {
	for _, field := range []string{msg.Subject, msg.From, msg.FromName, msg.Snippet} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
