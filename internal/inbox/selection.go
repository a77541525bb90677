package inbox

import (
	"slices"

	"github.com/sirupsen/logrus"
)

// ToggleSelect adds uid to the multi-select set or removes it, reporting
// whether it is selected afterwards.
func (m *Manager) ToggleSelect(uid uint32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexLocked(uid) < 0 {
		return false, ErrUnknownMessage
	}
	if _, ok := m.selected[uid]; ok {
		delete(m.selected, uid)
		return false, nil
	}
	m.selected[uid] = struct{}{}
	return true, nil
}

func (m *Manager) IsSelected(uid uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selected[uid]
	return ok
}

func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.selected)
}

// Selection returns the selected uids in ascending order.
func (m *Manager) Selection() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, 0, len(m.selected))
	for uid := range m.selected {
		out = append(out, uid)
	}
	slices.Sort(out)
	return out
}

// DeleteSelected removes the selected messages from the local list. It only
// hides them for this session; the server copy is untouched and comes back
// on the next reload. confirmed must be true.
func (m *Manager) DeleteSelected(confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	m.mu.Lock()
	if len(m.selected) == 0 {
		m.mu.Unlock()
		return 0, nil
	}
	kept := m.messages[:0:0]
	for _, msg := range m.messages {
		if _, ok := m.selected[msg.UID]; ok {
			continue
		}
		kept = append(kept, msg)
	}
	removed := len(m.messages) - len(kept)
	m.messages = kept
	if m.current != nil {
		if _, ok := m.selected[m.current.UID]; ok {
			m.closeLocked()
		}
	}
	clear(m.selected)
	folder := m.folder
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"folder":  folder,
		"removed": removed,
	}).Debug("deleted selected messages locally")
	m.notify(Change{Kind: ChangeMessages})
	return removed, nil
}

// pruneSelectionLocked drops selected uids missing from a fresh list.
func (m *Manager) pruneSelectionLocked() {
	for uid := range m.selected {
		if m.indexLocked(uid) < 0 {
			delete(m.selected, uid)
		}
	}
}
