package inbox

import (
	"context"

	"github.com/sirupsen/logrus"

	"go.withmatt.com/crmmail/internal/mail"
)

type flag int

const (
	flagStarred flag = iota
	flagUnread
)

func (f flag) String() string {
	if f == flagStarred {
		return "starred"
	}
	return "unread"
}

func (f flag) get(msg *mail.Message) bool {
	if f == flagStarred {
		return msg.Starred
	}
	return msg.Unread
}

func (f flag) set(msg *mail.Message, v bool) {
	if f == flagStarred {
		msg.Starred = v
	} else {
		msg.Unread = v
	}
}

// Pending is a flag change already visible locally that the gateway has not
// confirmed yet. Exactly one of Confirm or Rollback should be called.
type Pending struct {
	m       *Manager
	account mail.Account
	folder  mail.Folder
	uid     uint32
	flag    flag
	before  bool
	after   bool
	listGen uint64
}

// UID is the message the change applies to.
func (p *Pending) UID() uint32 { return p.uid }

// Value is the optimistic value of the changed flag.
func (p *Pending) Value() bool { return p.after }

// Confirm sends the change to the gateway. On failure the local change is
// rolled back, the error is surfaced on the manager and returned. There is
// no automatic retry.
func (p *Pending) Confirm(ctx context.Context) error {
	err := p.send(ctx)
	if err == nil {
		return nil
	}
	p.m.logger.WithFields(logrus.Fields{
		"account": p.account.Email,
		"folder":  p.folder,
		"uid":     p.uid,
		"flag":    p.flag,
	}).WithError(err).Warn("flag change rejected, rolling back")
	p.Rollback()
	p.m.fail(err)
	return err
}

func (p *Pending) send(ctx context.Context) error {
	conn, err := p.m.connection(p.account)
	if err != nil {
		return err
	}
	switch p.flag {
	case flagStarred:
		return p.m.gw.SetStarred(ctx, conn, p.folder, p.uid, p.after)
	default:
		return p.m.gw.MarkRead(ctx, conn, p.folder, p.uid, !p.after)
	}
}

// Rollback restores the previous value. It leaves the message alone when the
// list has been replaced since, or when a later change already moved the
// flag again.
func (p *Pending) Rollback() {
	m := p.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listGen != p.listGen {
		return
	}
	if i := m.indexLocked(p.uid); i >= 0 && p.flag.get(&m.messages[i]) == p.after {
		p.flag.set(&m.messages[i], p.before)
	}
	if m.current != nil && m.current.UID == p.uid && p.flag.get(m.current) == p.after {
		p.flag.set(m.current, p.before)
	}
	m.notify(Change{Kind: ChangeMessage, UID: p.uid})
}

// Star sets the starred flag locally and returns the pending confirmation.
func (m *Manager) Star(uid uint32, starred bool) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(uid, flagStarred, starred)
}

// MarkRead sets the read state locally and returns the pending confirmation.
func (m *Manager) MarkRead(uid uint32, read bool) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(uid, flagUnread, !read)
}

func (m *Manager) ToggleStar(uid uint32) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(uid)
	if i < 0 {
		return nil, ErrUnknownMessage
	}
	return m.applyLocked(uid, flagStarred, !m.messages[i].Starred)
}

func (m *Manager) ToggleRead(uid uint32) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(uid)
	if i < 0 {
		return nil, ErrUnknownMessage
	}
	return m.applyLocked(uid, flagUnread, !m.messages[i].Unread)
}

// ToggleStarNow toggles and confirms in one step.
func (m *Manager) ToggleStarNow(ctx context.Context, uid uint32) error {
	p, err := m.ToggleStar(uid)
	if err != nil {
		return err
	}
	return p.Confirm(ctx)
}

// ToggleReadNow toggles and confirms in one step.
func (m *Manager) ToggleReadNow(ctx context.Context, uid uint32) error {
	p, err := m.ToggleRead(uid)
	if err != nil {
		return err
	}
	return p.Confirm(ctx)
}

func (m *Manager) applyLocked(uid uint32, f flag, value bool) (*Pending, error) {
	if m.account == nil {
		return nil, ErrNoAccount
	}
	i := m.indexLocked(uid)
	if i < 0 {
		return nil, ErrUnknownMessage
	}
	p := &Pending{
		m:       m,
		account: *m.account,
		folder:  m.folder,
		uid:     uid,
		flag:    f,
		before:  f.get(&m.messages[i]),
		after:   value,
		listGen: m.listGen,
	}
	f.set(&m.messages[i], value)
	if m.current != nil && m.current.UID == uid {
		f.set(m.current, value)
	}
	return p, nil
}
