package tui

import "go.withmatt.com/crmmail/internal/mail"

func (m *Model) isSelected(msg mail.Message) bool {
	return m.manager.IsSelected(msg.UID)
}

func (m *Model) selectedCount() int {
	return len(m.manager.Selection())
}

func (m *Model) toggleSelection() {
	msg, ok := m.currentMessage()
	if !ok {
		return
	}
	if _, err := m.manager.ToggleSelect(msg.UID); err != nil {
		m.logf("select uid=%d err=%v", msg.UID, err)
	}
}

// beginDelete asks for confirmation before hiding the selection. With
// nothing selected the message under the cursor is the target.
func (m *Model) beginDelete() {
	m.list.delete = deleteState{}
	if m.selectedCount() == 0 {
		msg, ok := m.currentMessage()
		if !ok {
			return
		}
		if _, err := m.manager.ToggleSelect(msg.UID); err != nil {
			return
		}
		m.list.delete.autoSelected = msg.UID
	}
	m.list.delete.pending = true
	m.list.delete.count = m.selectedCount()
}

func (m *Model) cancelDelete() {
	if uid := m.list.delete.autoSelected; uid != 0 && m.manager.IsSelected(uid) {
		_, _ = m.manager.ToggleSelect(uid)
	}
	m.list.delete = deleteState{}
}

func (m *Model) confirmDelete() int {
	m.list.delete = deleteState{}
	removed, err := m.manager.DeleteSelected(true)
	if err != nil {
		m.logf("delete err=%v", err)
		return 0
	}
	m.syncList()
	return removed
}
