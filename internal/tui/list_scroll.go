package tui

const (
	listHeaderHeight = 1
	listFooterHeight = 1
	// from/date line, subject line, snippet line and a blank separator
	listCardHeight = 4
)

func (m *Model) visibleCardCount() int {
	availableHeight := m.ui.height - listHeaderHeight - listFooterHeight
	if availableHeight <= 0 {
		return 0
	}
	return availableHeight / listCardHeight
}

// getVisibleRange returns the display indices that fit on screen.
func (m *Model) getVisibleRange() (start, end int) {
	total := m.displayCount()
	if total == 0 {
		return 0, 0
	}

	visibleCards := m.visibleCardCount()
	if visibleCards <= 0 || total <= visibleCards {
		return 0, total
	}

	maxStart := max(total-visibleCards, 0)
	start = min(max(m.list.scrollOffset, 0), maxStart)
	return start, start + visibleCards
}

func (m *Model) ensureCursorVisible() {
	visibleCards := m.visibleCardCount()
	count := m.displayCount()
	if visibleCards <= 0 || count <= visibleCards {
		m.list.scrollOffset = 0
		return
	}

	maxOffset := max(count-visibleCards, 0)
	if m.list.cursor < m.list.scrollOffset {
		m.list.scrollOffset = m.list.cursor
	} else if m.list.cursor >= m.list.scrollOffset+visibleCards {
		m.list.scrollOffset = m.list.cursor - visibleCards + 1
	}
	m.list.scrollOffset = min(max(m.list.scrollOffset, 0), maxOffset)
}

func (m *Model) moveCursor(delta int) {
	count := m.displayCount()
	if count == 0 {
		return
	}
	m.list.cursor = min(max(m.list.cursor+delta, 0), count-1)
	m.ensureCursorVisible()
}
