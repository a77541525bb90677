// Package inbox holds the client-side state of one mailbox: the fetched page
// of messages, the open message, the multi-select set and folder counts.
// Flag changes are applied locally first and confirmed with the gateway
// afterwards.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/log"
	"go.withmatt.com/crmmail/internal/mail"
)

var (
	ErrNoAccount      = errors.New("no account selected")
	ErrUnknownMessage = errors.New("message not in current folder")
	ErrNotConfirmed   = errors.New("action not confirmed")
)

const (
	DefaultMarkReadDelay = 3 * time.Second
	DefaultPageSize      = 30
	DefaultCountTimeout  = 10 * time.Second
)

// Gateway is the subset of the gateway client the manager needs.
type Gateway interface {
	FetchMessages(ctx context.Context, conn gateway.Connection, folder mail.Folder, limit int) ([]mail.Message, error)
	FetchMessage(ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) (*mail.Message, error)
	FolderCount(ctx context.Context, conn gateway.Connection, folder mail.Folder, opts gateway.CallOptions) (int, error)
	MarkRead(ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32, read bool) error
	SetStarred(ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32, starred bool) error
}

// CredentialSource turns an account address into a usable password.
type CredentialSource interface {
	Resolve(email string) (string, error)
}

type ChangeKind int

const (
	ChangeMessages ChangeKind = iota
	ChangeMessage
	ChangeCounts
	ChangeError
)

// Change tells a front-end that state moved without it asking, for example
// when a delayed mark-read fires or a confirmation fails.
type Change struct {
	Kind ChangeKind
	UID  uint32
	Err  error
}

type Option func(*Manager)

// WithMarkReadDelay sets how long a message must stay open before it is
// marked read. Zero marks it read immediately; negative disables it.
func WithMarkReadDelay(d time.Duration) Option {
	return func(m *Manager) { m.markReadDelay = d }
}

func WithPageSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

func WithCountTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.countTimeout = d
		}
	}
}

// WithCountCache shares folder counts between managers.
func WithCountCache(c *CountCache) Option {
	return func(m *Manager) {
		if c != nil {
			m.counts = c
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager is safe for concurrent use.
type Manager struct {
	gw     Gateway
	creds  CredentialSource
	logger logrus.FieldLogger
	counts *CountCache

	markReadDelay time.Duration
	pageSize      int
	countTimeout  time.Duration

	mu       sync.Mutex
	account  *mail.Account
	folder   mail.Folder
	messages []mail.Message
	// listGen changes whenever messages is replaced wholesale. Pending
	// mutations only roll back into the list they were applied to.
	listGen uint64
	// loadGen marks the newest load; older loads discard their result.
	loadGen uint64
	loading int

	search  string
	filters Filters

	selected map[uint32]struct{}

	current   *mail.Message
	openSeq   uint64
	markTimer *time.Timer

	err     error
	changes chan Change
}

func New(gw Gateway, creds CredentialSource, opts ...Option) *Manager {
	m := &Manager{
		gw:            gw,
		creds:         creds,
		logger:        log.Logger(),
		markReadDelay: DefaultMarkReadDelay,
		pageSize:      DefaultPageSize,
		countTimeout:  DefaultCountTimeout,
		folder:        mail.FolderInbox,
		selected:      make(map[uint32]struct{}),
		changes:       make(chan Change, 32),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.counts == nil {
		m.counts = NewCountCache()
	}
	return m
}

// SwitchAccount makes acct current and resets the view to its inbox. The
// list is empty until the next Reload or SwitchFolder.
func (m *Manager) SwitchAccount(acct mail.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = &acct
	m.folder = mail.FolderInbox
	m.resetLocked()
	m.logger.WithField("account", acct.Email).Debug("switched account")
}

// Account returns the current account.
func (m *Manager) Account() (mail.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return mail.Account{}, false
	}
	return *m.account, true
}

func (m *Manager) Folder() mail.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folder
}

// SwitchFolder clears the open message and selection, replaces the list
// with the new folder's messages and refreshes counts when none are cached
// for the account. Count failures never fail the switch.
func (m *Manager) SwitchFolder(ctx context.Context, folder mail.Folder) error {
	if !folder.Valid() {
		return fmt.Errorf("unknown folder %q", folder)
	}
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return ErrNoAccount
	}
	m.folder = folder
	m.resetLocked()
	m.mu.Unlock()

	err := m.load(ctx)
	if _, countErr := m.RefreshCounts(ctx, false); countErr != nil {
		m.logger.WithError(countErr).Debug("folder count refresh failed")
	}
	return err
}

// Reload fetches the current folder again. On failure the previous list is
// kept and the error is surfaced.
func (m *Manager) Reload(ctx context.Context) error {
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) error {
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return ErrNoAccount
	}
	acct, folder := *m.account, m.folder
	m.loadGen++
	gen := m.loadGen
	m.loading++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading--
		m.mu.Unlock()
	}()

	conn, err := m.connection(acct)
	if err != nil {
		m.fail(err)
		return err
	}

	start := time.Now()
	messages, err := m.gw.FetchMessages(ctx, conn, folder, m.pageSize)
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"account": acct.Email,
			"folder":  folder,
		}).WithError(err).Warn("loading messages failed")
		m.fail(err)
		return err
	}

	m.mu.Lock()
	if m.loadGen != gen {
		// A newer load or folder switch owns the list now.
		m.mu.Unlock()
		return nil
	}
	m.messages = messages
	m.listGen++
	m.err = nil
	m.pruneSelectionLocked()
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"account":  acct.Email,
		"folder":   folder,
		"messages": len(messages),
		"elapsed":  time.Since(start),
	}).Debug("loaded messages")
	m.notify(Change{Kind: ChangeMessages})
	return nil
}

// Messages returns the fetched page in server order.
func (m *Manager) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Message returns one message of the current folder.
func (m *Manager) Message(uid uint32) (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(uid)
	if i < 0 {
		return mail.Message{}, false
	}
	return m.messages[i], true
}

// Loading reports whether a list fetch is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

// Err returns the last surfaced error.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Manager) ClearErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
}

// Changes delivers background updates. Sends never block; a slow reader
// misses notifications, not state.
func (m *Manager) Changes() <-chan Change {
	return m.changes
}

func (m *Manager) notify(c Change) {
	select {
	case m.changes <- c:
	default:
	}
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	m.notify(Change{Kind: ChangeError, Err: err})
}

func (m *Manager) connection(acct mail.Account) (gateway.Connection, error) {
	if m.creds == nil {
		return gateway.Connection{}, ErrNoAccount
	}
	password, err := m.creds.Resolve(acct.Email)
	if err != nil {
		return gateway.Connection{}, err
	}
	return gateway.IMAPConnection(acct, password), nil
}

func (m *Manager) indexLocked(uid uint32) int {
	for i := range m.messages {
		if m.messages[i].UID == uid {
			return i
		}
	}
	return -1
}

// resetLocked drops everything tied to the previous folder or account.
func (m *Manager) resetLocked() {
	m.closeLocked()
	m.messages = nil
	m.listGen++
	m.loadGen++
	m.selected = make(map[uint32]struct{})
	m.err = nil
}
