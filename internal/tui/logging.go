package tui

import "go.withmatt.com/crmmail/internal/log"

func (m *Model) logf(format string, args ...any) {
	log.Printf("tui: "+format, args...)
}
