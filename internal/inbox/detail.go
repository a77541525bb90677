package inbox

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go.withmatt.com/crmmail/internal/mail"
)

// Open shows a message and loads its full body. An unread message is marked
// read once it has stayed open for the mark-read delay; Close or opening
// another message before then cancels that.
//
// The returned message is usable even when err is non-nil: it is the list
// entry without bodies.
func (m *Manager) Open(ctx context.Context, uid uint32) (*mail.Message, error) {
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return nil, ErrNoAccount
	}
	i := m.indexLocked(uid)
	if i < 0 {
		m.mu.Unlock()
		return nil, ErrUnknownMessage
	}
	m.closeLocked()
	seq := m.openSeq
	msg := m.messages[i]
	m.current = &msg
	acct, folder := *m.account, m.folder
	if msg.Unread && m.markReadDelay >= 0 {
		m.markTimer = time.AfterFunc(m.markReadDelay, func() {
			m.markOpenedRead(seq)
		})
	}
	m.mu.Unlock()

	shown := msg
	conn, err := m.connection(acct)
	if err != nil {
		m.fail(err)
		return &shown, err
	}
	full, err := m.gw.FetchMessage(ctx, conn, folder, uid)
	if err != nil {
		m.fail(err)
		return &shown, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	full.Folder = folder
	if m.openSeq != seq || m.current == nil {
		return full, nil
	}
	// Local flags win; they may carry unconfirmed changes.
	full.Unread = m.current.Unread
	full.Starred = m.current.Starred
	if full.Snippet == "" {
		full.Snippet = m.current.Snippet
	}
	m.current = full
	out := *full
	return &out, nil
}

// Close leaves the detail view and cancels a pending mark-read.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

// Current returns the open message.
func (m *Manager) Current() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return mail.Message{}, false
	}
	return *m.current, true
}

func (m *Manager) closeLocked() {
	if m.markTimer != nil {
		m.markTimer.Stop()
		m.markTimer = nil
	}
	m.openSeq++
	m.current = nil
}

func (m *Manager) markOpenedRead(seq uint64) {
	m.mu.Lock()
	if m.openSeq != seq || m.current == nil || !m.current.Unread {
		m.mu.Unlock()
		return
	}
	m.markTimer = nil
	p, err := m.applyLocked(m.current.UID, flagUnread, false)
	m.mu.Unlock()
	if err != nil {
		// The list was replaced while the message stayed open.
		m.logger.WithError(err).Debug("skipping delayed mark-read")
		return
	}

	m.logger.WithFields(logrus.Fields{
		"folder": p.folder,
		"uid":    p.uid,
	}).Debug("marking opened message read")
	m.notify(Change{Kind: ChangeMessage, UID: p.uid})
	// Confirm rolls back and surfaces failures itself.
	_ = p.Confirm(context.Background())
}
