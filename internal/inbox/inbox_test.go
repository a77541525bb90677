package inbox

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.withmatt.com/crmmail/internal/credential"
	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/mail"
)

type flagCall struct {
	folder mail.Folder
	uid    uint32
	value  bool
}

type fakeGateway struct {
	mu         sync.Mutex
	messages   map[mail.Folder][]mail.Message
	counts     map[mail.Folder]int
	slowCounts map[mail.Folder]bool

	fetchErr error
	starErr  error
	markErr  error

	fetches    int
	countCalls int
	stars      []flagCall
	reads      []flagCall
	conns      []gateway.Connection
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		messages:   make(map[mail.Folder][]mail.Message),
		counts:     make(map[mail.Folder]int),
		slowCounts: make(map[mail.Folder]bool),
	}
}

func (g *fakeGateway) FetchMessages(_ context.Context, conn gateway.Connection, folder mail.Folder, limit int) ([]mail.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	g.conns = append(g.conns, conn)
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	msgs := slices.Clone(g.messages[folder])
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (g *fakeGateway) FetchMessage(_ context.Context, _ gateway.Connection, folder mail.Folder, uid uint32) (*mail.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, msg := range g.messages[folder] {
		if msg.UID == uid {
			msg.HTML = "<p>full body</p>"
			return &msg, nil
		}
	}
	return nil, &gateway.Error{Status: http.StatusNotFound, Endpoint: gateway.EndpointMessage}
}

func (g *fakeGateway) FolderCount(ctx context.Context, _ gateway.Connection, folder mail.Folder, opts gateway.CallOptions) (int, error) {
	g.mu.Lock()
	g.countCalls++
	slow := g.slowCounts[folder]
	n := g.counts[folder]
	g.mu.Unlock()
	if slow {
		<-ctx.Done()
		return 0, &gateway.TimeoutError{Endpoint: gateway.EndpointCount, After: opts.Timeout}
	}
	return n, nil
}

func (g *fakeGateway) MarkRead(_ context.Context, _ gateway.Connection, folder mail.Folder, uid uint32, read bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads = append(g.reads, flagCall{folder, uid, read})
	return g.markErr
}

func (g *fakeGateway) SetStarred(_ context.Context, _ gateway.Connection, folder mail.Folder, uid uint32, starred bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stars = append(g.stars, flagCall{folder, uid, starred})
	return g.starErr
}

func (g *fakeGateway) readCalls() []flagCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.reads)
}

var testAccount = mail.Account{
	Email:    "a@x.com",
	IMAPHost: "imap.x.com",
	IMAPPort: 993,
}

var baseDate = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleMessages() []mail.Message {
	return []mail.Message{
		{
			UID:      1,
			Folder:   mail.FolderInbox,
			Subject:  "Showing request for Maple Ave",
			From:     "lead@buyers.example",
			FromName: "Dana Lead",
			Date:     baseDate,
			Snippet:  "Can we see the house on Saturday?",
			Unread:   true,
		},
		{
			UID:            42,
			Folder:         mail.FolderInbox,
			Subject:        "Signed contract",
			From:           "escrow@title.example",
			Date:           baseDate.Add(time.Hour),
			Snippet:        "Attached is the countersigned PDF",
			HasAttachments: true,
		},
	}
}

func newTestManager(t *testing.T, gw *fakeGateway, opts ...Option) *Manager {
	t.Helper()
	creds := credential.NewResolver(nil)
	creds.Remember(testAccount.Email, credential.Encode("secret-pw"))
	m := New(gw, creds, opts...)
	m.SwitchAccount(testAccount)
	return m
}

func loadedManager(t *testing.T, opts ...Option) (*Manager, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	gw.messages[mail.FolderInbox] = sampleMessages()
	m := newTestManager(t, gw, opts...)
	require.NoError(t, m.SwitchFolder(t.Context(), mail.FolderInbox))
	return m, gw
}

func TestSwitchFolderLoadsMessages(t *testing.T) {
	m, gw := loadedManager(t)

	assert.Len(t, m.Filtered(), 2)
	assert.Equal(t, mail.FolderInbox, m.Folder())
	require.NotEmpty(t, gw.conns)
	assert.Equal(t, "secret-pw", gw.conns[0].Password)
	assert.Equal(t, "imap.x.com", gw.conns[0].Host)
	assert.NoError(t, m.Err())
	assert.False(t, m.Loading())

	m.SetFilters(Filters{Unread: true})
	filtered := m.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, uint32(1), filtered[0].UID)
}

func TestFilteredSearchAndOrder(t *testing.T) {
	m, _ := loadedManager(t)

	all := m.Filtered()
	require.Len(t, all, 2)
	assert.Equal(t, uint32(42), all[0].UID, "newest first")

	tests := []struct {
		search  string
		filters Filters
		want    []uint32
	}{
		{search: "MAPLE", want: []uint32{1}},
		{search: "dana", want: []uint32{1}},
		{search: "title.example", want: []uint32{42}},
		{search: "countersigned", want: []uint32{42}},
		{search: "  ", want: []uint32{42, 1}},
		{search: "nothing matches", want: []uint32{}},
		{filters: Filters{HasAttachments: true}, want: []uint32{42}},
		{filters: Filters{Unread: true, HasAttachments: true}, want: []uint32{}},
		{search: "showing", filters: Filters{Unread: true}, want: []uint32{1}},
	}
	for _, tt := range tests {
		m.SetSearch(tt.search)
		m.SetFilters(tt.filters)
		got := []uint32{}
		for _, msg := range m.Filtered() {
			got = append(got, msg.UID)
		}
		assert.Equal(t, tt.want, got, "search=%q filters=%+v", tt.search, tt.filters)
	}
	assert.Len(t, m.Messages(), 2, "filtering never drops fetched messages")
}

func TestToggleStarTwiceRestores(t *testing.T) {
	m, gw := loadedManager(t)
	before, _ := m.Message(42)

	require.NoError(t, m.ToggleStarNow(t.Context(), 42))
	msg, _ := m.Message(42)
	assert.Equal(t, !before.Starred, msg.Starred)

	require.NoError(t, m.ToggleStarNow(t.Context(), 42))
	msg, _ = m.Message(42)
	assert.Equal(t, before.Starred, msg.Starred)

	assert.Equal(t, []flagCall{
		{mail.FolderInbox, 42, true},
		{mail.FolderInbox, 42, false},
	}, gw.stars)
}

func TestToggleStarRollsBackOnGatewayError(t *testing.T) {
	m, gw := loadedManager(t)
	gw.starErr = &gateway.Error{Status: http.StatusBadGateway, Endpoint: gateway.EndpointStar, Message: "imap down"}

	p, err := m.ToggleStar(42)
	require.NoError(t, err)
	msg, _ := m.Message(42)
	assert.True(t, msg.Starred, "applied before confirmation")

	err = p.Confirm(t.Context())
	assert.Equal(t, http.StatusBadGateway, gateway.StatusCode(err))

	msg, _ = m.Message(42)
	assert.False(t, msg.Starred)
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "imap down")
	assert.Len(t, gw.stars, 1, "no automatic retry")

	m.ClearErr()
	assert.NoError(t, m.Err())
}

func TestToggleReadRollsBackOnTimeout(t *testing.T) {
	m, gw := loadedManager(t)
	gw.markErr = &gateway.TimeoutError{Endpoint: gateway.EndpointMarkRead, After: time.Second}

	err := m.ToggleReadNow(t.Context(), 1)
	assert.True(t, gateway.IsTimeout(err))

	msg, _ := m.Message(1)
	assert.True(t, msg.Unread)
	assert.Equal(t, []flagCall{{mail.FolderInbox, 1, true}}, gw.readCalls())
}

func TestRollbackLeavesReplacedListAlone(t *testing.T) {
	m, gw := loadedManager(t)

	p, err := m.Star(42, true)
	require.NoError(t, err)

	// The server now reports the message starred by someone else.
	gw.mu.Lock()
	gw.messages[mail.FolderInbox][1].Starred = true
	gw.mu.Unlock()
	require.NoError(t, m.Reload(t.Context()))

	p.Rollback()
	msg, _ := m.Message(42)
	assert.True(t, msg.Starred)
}

func TestRollbackSurvivesFailedReload(t *testing.T) {
	m, gw := loadedManager(t)

	p, err := m.ToggleStar(42)
	require.NoError(t, err)

	gw.fetchErr = &gateway.Error{Status: http.StatusServiceUnavailable}
	require.Error(t, m.Reload(t.Context()))

	gw.starErr = &gateway.Error{Status: http.StatusBadGateway, Endpoint: gateway.EndpointStar}
	require.Error(t, p.Confirm(t.Context()))

	msg, _ := m.Message(42)
	assert.False(t, msg.Starred, "the list was never replaced")
}

func TestRollbackKeepsNewerChange(t *testing.T) {
	m, _ := loadedManager(t)

	first, err := m.ToggleStar(42)
	require.NoError(t, err)
	_, err = m.ToggleStar(42)
	require.NoError(t, err)

	first.Rollback()
	msg, _ := m.Message(42)
	assert.False(t, msg.Starred)
}

func TestFlagChangesRequireKnownMessage(t *testing.T) {
	m, _ := loadedManager(t)

	_, err := m.ToggleStar(999)
	assert.ErrorIs(t, err, ErrUnknownMessage)
	_, err = m.MarkRead(999, true)
	assert.ErrorIs(t, err, ErrUnknownMessage)

	empty := New(newFakeGateway(), credential.NewResolver(nil))
	_, err = empty.Star(1, true)
	assert.ErrorIs(t, err, ErrNoAccount)
	assert.ErrorIs(t, empty.Reload(t.Context()), ErrNoAccount)
}

func TestOpenMarksReadAfterDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, gw := loadedManager(t)

		msg, err := m.Open(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, "<p>full body</p>", msg.HTML)
		assert.True(t, msg.Unread)

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Empty(t, gw.readCalls())

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []flagCall{{mail.FolderInbox, 1, true}}, gw.readCalls())

		listed, _ := m.Message(1)
		assert.False(t, listed.Unread)
		current, ok := m.Current()
		require.True(t, ok)
		assert.False(t, current.Unread)
		assert.NotEmpty(t, m.Counts(), "marking read leaves folder totals cached")

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Len(t, gw.readCalls(), 1)
	})
}

func TestCloseCancelsMarkRead(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, gw := loadedManager(t)

		_, err := m.Open(t.Context(), 1)
		require.NoError(t, err)
		time.Sleep(2999 * time.Millisecond)
		m.Close()

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, gw.readCalls())

		msg, _ := m.Message(1)
		assert.True(t, msg.Unread)
		_, ok := m.Current()
		assert.False(t, ok)
	})
}

func TestOpeningAnotherMessageCancelsMarkRead(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, gw := loadedManager(t)

		_, err := m.Open(t.Context(), 1)
		require.NoError(t, err)
		time.Sleep(time.Second)
		_, err = m.Open(t.Context(), 42)
		require.NoError(t, err)

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, gw.readCalls(), "42 was already read and 1 was left early")
	})
}

func TestOpenReadMessageSchedulesNothing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, gw := loadedManager(t)

		_, err := m.Open(t.Context(), 42)
		require.NoError(t, err)
		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, gw.readCalls())
	})
}

func TestDelayedMarkReadFailureRollsBack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, gw := loadedManager(t)
		gw.markErr = &gateway.Error{Status: http.StatusInternalServerError, Endpoint: gateway.EndpointMarkRead}

		_, err := m.Open(t.Context(), 1)
		require.NoError(t, err)
		time.Sleep(3 * time.Second)
		synctest.Wait()

		msg, _ := m.Message(1)
		assert.True(t, msg.Unread)
		assert.Equal(t, http.StatusInternalServerError, gateway.StatusCode(m.Err()))
	})
}

func TestSwitchFolderClearsState(t *testing.T) {
	m, gw := loadedManager(t)
	gw.messages[mail.FolderSent] = []mail.Message{{UID: 7, Folder: mail.FolderSent, Subject: "Re: offer"}}

	_, err := m.ToggleSelect(1)
	require.NoError(t, err)
	_, err = m.Open(t.Context(), 42)
	require.NoError(t, err)

	require.NoError(t, m.SwitchFolder(t.Context(), mail.FolderSent))

	assert.Equal(t, mail.FolderSent, m.Folder())
	assert.Empty(t, m.Selection())
	_, ok := m.Current()
	assert.False(t, ok)

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, uint32(7), msgs[0].UID)

	assert.Error(t, m.SwitchFolder(t.Context(), mail.Folder("archive")))
}

func TestSwitchAccountResets(t *testing.T) {
	m, _ := loadedManager(t)
	m.SetSearch("maple")

	other := mail.Account{Email: "b@x.com"}
	m.SwitchAccount(other)

	acct, ok := m.Account()
	require.True(t, ok)
	assert.Equal(t, "b@x.com", acct.Email)
	assert.Equal(t, mail.FolderInbox, m.Folder())
	assert.Empty(t, m.Messages())
}

func TestLoadFailureSurfacesError(t *testing.T) {
	gw := newFakeGateway()
	gw.fetchErr = &gateway.TimeoutError{Endpoint: gateway.EndpointFetch, After: 30 * time.Second}
	m := newTestManager(t, gw)

	err := m.SwitchFolder(t.Context(), mail.FolderInbox)
	assert.True(t, gateway.IsTimeout(err))
	assert.Empty(t, m.Messages())
	assert.True(t, gateway.IsTimeout(m.Err()))
}

func TestReloadFailureKeepsList(t *testing.T) {
	m, gw := loadedManager(t)
	gw.fetchErr = &gateway.Error{Status: http.StatusServiceUnavailable}

	assert.Error(t, m.Reload(t.Context()))
	assert.Len(t, m.Messages(), 2)
	assert.Error(t, m.Err())
}

func TestMissingCredentialsNeedUpdate(t *testing.T) {
	gw := newFakeGateway()
	m := New(gw, credential.NewResolver(credential.NewMemoryStore()))
	m.SwitchAccount(testAccount)

	err := m.SwitchFolder(t.Context(), mail.FolderInbox)
	assert.ErrorIs(t, err, credential.ErrNotFound)
	assert.Zero(t, gw.fetches)

	creds := credential.NewResolver(nil)
	creds.Remember(testAccount.Email, "garbage!")
	m = New(gw, creds)
	m.SwitchAccount(testAccount)
	err = m.Reload(t.Context())
	assert.True(t, credential.NeedsUpdate(err))
}

func TestDeleteSelected(t *testing.T) {
	m, gw := loadedManager(t)

	selected, err := m.ToggleSelect(1)
	require.NoError(t, err)
	assert.True(t, selected)
	_, err = m.ToggleSelect(999)
	assert.ErrorIs(t, err, ErrUnknownMessage)
	_, err = m.Open(t.Context(), 1)
	require.NoError(t, err)

	n, err := m.DeleteSelected(false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Zero(t, n)
	assert.Len(t, m.Messages(), 2)

	n, err = m.DeleteSelected(true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, m.Messages(), 1)
	assert.Empty(t, m.Selection())
	_, ok := m.Current()
	assert.False(t, ok, "deleting the open message closes it")

	n, err = m.DeleteSelected(true)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Local only: a reload brings it back.
	require.NoError(t, m.Reload(t.Context()))
	assert.Len(t, m.Messages(), 2)
	assert.Empty(t, gw.reads)
}

func TestSelectionToggles(t *testing.T) {
	m, _ := loadedManager(t)

	_, _ = m.ToggleSelect(42)
	_, _ = m.ToggleSelect(1)
	assert.Equal(t, []uint32{1, 42}, m.Selection())
	assert.True(t, m.IsSelected(42))

	selected, err := m.ToggleSelect(42)
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Equal(t, []uint32{1}, m.Selection())

	m.ClearSelection()
	assert.Empty(t, m.Selection())
}

func TestRefreshCountsToleratesTimeouts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gw := newFakeGateway()
		gw.counts[mail.FolderInbox] = 12
		gw.counts[mail.FolderSent] = 4
		gw.counts[mail.FolderTrash] = 99
		gw.slowCounts[mail.FolderDrafts] = true
		gw.slowCounts[mail.FolderTrash] = true
		gw.slowCounts[mail.FolderSpam] = true
		m := newTestManager(t, gw, WithCountTimeout(5*time.Second))

		start := time.Now()
		counts, err := m.RefreshCounts(t.Context(), true)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, time.Since(start), "folders time out together, not one after another")

		assert.Equal(t, map[mail.Folder]int{
			mail.FolderInbox:  12,
			mail.FolderSent:   4,
			mail.FolderDrafts: 0,
			mail.FolderTrash:  0,
			mail.FolderSpam:   0,
		}, counts)
		assert.Equal(t, counts, m.Counts())
		assert.NoError(t, m.Err())
	})
}

func TestRefreshCountsUsesCache(t *testing.T) {
	shared := NewCountCache()
	m, gw := loadedManager(t, WithCountCache(shared))
	gw.mu.Lock()
	calls := gw.countCalls
	gw.mu.Unlock()
	assert.Equal(t, len(mail.Folders()), calls, "first folder switch fills counts")

	require.NoError(t, m.SwitchFolder(t.Context(), mail.FolderSent))
	_, err := m.RefreshCounts(t.Context(), false)
	require.NoError(t, err)
	assert.Equal(t, calls, gw.countCalls)

	_, err = m.RefreshCounts(t.Context(), true)
	require.NoError(t, err)
	assert.Equal(t, 2*calls, gw.countCalls)

	_, ok := shared.Get("A@X.com")
	assert.True(t, ok, "shared cache is keyed case-insensitively")
	shared.Invalidate(testAccount.Email)
	assert.Empty(t, m.Counts())
}

func TestChangesNotifiesWithoutBlocking(t *testing.T) {
	m, gw := loadedManager(t)
	gw.starErr = errors.New("boom")

	for range 100 {
		_ = m.ToggleStarNow(t.Context(), 42)
	}

	var kinds []ChangeKind
	for {
		select {
		case c := <-m.Changes():
			kinds = append(kinds, c.Kind)
			continue
		default:
		}
		break
	}
	assert.NotEmpty(t, kinds)
	assert.Contains(t, kinds, ChangeMessages)
}
