package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
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

func TestLooksLikeAddress(t *testing.T) {
	assert.True(t, LooksLikeAddress("a@b.com"))
	assert.True(t, LooksLikeAddress("first.last@host"))
	assert.False(t, LooksLikeAddress("not-an-email"))
	assert.False(t, LooksLikeAddress("user@localhost"))
	assert.False(t, LooksLikeAddress("example.com"))
}

func threeContacts(t *testing.T, r *Recipients) {
	t.Helper()
	require.NoError(t, r.AddContact(Recipient{Name: "Ann", Email: "ann@buyers.example"}))
	require.NoError(t, r.AddContact(Recipient{Name: "Bo", Email: "bo@sellers.example"}))
	require.NoError(t, r.AddContact(Recipient{Email: "cy@lender.example"}))
}

func TestTotalRecipients(t *testing.T) {
	var r Recipients
	threeContacts(t, &r)
	r.SetManual("a@b.com, not-an-email, c@d.com")

	assert.Equal(t, 5, r.Total())
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, r.ManualAddresses())
	assert.Equal(t, []string{"not-an-email"}, r.InvalidManual())
	assert.Equal(t, []string{
		"ann@buyers.example", "bo@sellers.example", "cy@lender.example", "a@b.com", "c@d.com",
	}, r.Addresses())
}

func TestRecipientsDeduplicate(t *testing.T) {
	var r Recipients
	require.NoError(t, r.AddContact(Recipient{Email: "ann@buyers.example"}))
	require.NoError(t, r.AddContact(Recipient{Email: "ANN@buyers.example"}))
	r.SetManual("ann@buyers.example,, ,new@agent.example")

	assert.Len(t, r.Contacts(), 1)
	assert.Equal(t, 2, r.Total())

	assert.True(t, r.RemoveContact("Ann@Buyers.example"))
	assert.False(t, r.RemoveContact("ann@buyers.example"))
	assert.Equal(t, 2, r.Total(), "manual copy remains")

	assert.Error(t, r.AddContact(Recipient{Name: "blank"}))
}

func TestContactCap(t *testing.T) {
	var r Recipients
	for i := range MaxContacts {
		require.NoError(t, r.AddContact(Recipient{Email: fmt.Sprintf("c%d@list.example", i)}))
	}
	assert.ErrorIs(t, r.AddContact(Recipient{Email: "one-more@list.example"}), ErrTooManyContacts)
	assert.NoError(t, r.AddContact(Recipient{Email: "c0@list.example"}), "duplicates are not counted")
	assert.Len(t, r.Contacts(), MaxContacts)

	r.SetManual("extra@list.example")
	assert.Equal(t, MaxContacts+1, r.Total(), "the cap only applies to contacts")
}

func TestIsValidToSend(t *testing.T) {
	tests := []struct {
		name    string
		manual  string
		subject string
		want    bool
	}{
		{"recipient and subject", "a@b.com", "Open house", true},
		{"no recipients", "", "Open house", false},
		{"only invalid recipients", "nobody", "Open house", false},
		{"blank subject", "a@b.com", "   ", false},
		{"empty subject", "a@b.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Draft{Subject: tt.subject}
			d.Recipients.SetManual(tt.manual)
			assert.Equal(t, tt.want, d.IsValidToSend())
			assert.Equal(t, tt.want, d.Validate(0) == nil)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	d := Draft{
		Attachments: []Attachment{
			{Filename: "small.txt", Data: make([]byte, 10)},
			{Filename: "floorplan.pdf", Data: make([]byte, 2048)},
		},
	}
	err := d.Validate(1024)
	require.Error(t, err)

	fields := map[string]bool{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var verr *ValidationError
		require.ErrorAs(t, e, &verr)
		fields[verr.Field] = true
	}
	assert.Equal(t, map[string]bool{"recipients": true, "subject": true, "attachments": true}, fields)
	assert.Contains(t, err.Error(), "floorplan.pdf is 2.0 kB")
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	a, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", a.Filename)
	assert.Contains(t, a.ContentType, "text/plain")
	assert.Equal(t, int64(5), a.Size())

	_, err = LoadAttachment(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

type sentMessage struct {
	at   time.Time
	conn gateway.Connection
	msg  gateway.OutgoingMessage
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	inFlight int
	overlap  bool
	fail     map[string]error
	onSend   func(to string)
}

func (s *fakeSender) Send(_ context.Context, conn gateway.Connection, msg gateway.OutgoingMessage) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.sent = append(s.sent, sentMessage{at: time.Now(), conn: conn, msg: msg})
	err := s.fail[msg.To]
	onSend := s.onSend
	s.mu.Unlock()

	if onSend != nil {
		onSend(msg.To)
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return err
}

var agent = mail.Account{Email: "agent@x.com", SMTPHost: "smtp.x.com", SMTPPort: 587}

func testCreds() *credential.Resolver {
	r := credential.NewResolver(nil)
	r.Remember(agent.Email, credential.Encode("smtp-secret"))
	return r
}

func TestSendIsSequentialAndPaced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fs := &fakeSender{fail: map[string]error{
			"c@d.com": &gateway.Error{Status: 550, Endpoint: gateway.EndpointSend, Message: "mailbox unavailable"},
		}}
		var progress []string
		o := NewOrchestrator(fs, testCreds(), WithProgress(func(done, total int, addr string, err error) {
			progress = append(progress, fmt.Sprintf("%d/%d %s %v", done, total, addr, err != nil))
		}))

		d := &Draft{Subject: "New listing", Body: "Take a look"}
		threeContacts(t, &d.Recipients)
		d.Recipients.SetManual("a@b.com, not-an-email, c@d.com")
		d.Attachments = []Attachment{{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}}

		start := time.Now()
		report, err := o.Send(t.Context(), agent, d)
		require.NoError(t, err)

		require.Len(t, fs.sent, 5)
		assert.False(t, fs.overlap)
		for i, s := range fs.sent {
			assert.Equal(t, time.Duration(i)*DefaultSendInterval, s.at.Sub(start), "send %d", i)
			assert.Equal(t, "smtp.x.com", s.conn.Host)
			assert.Equal(t, "smtp-secret", s.conn.Password)
			assert.Equal(t, "New listing", s.msg.Subject)
			assert.Equal(t, "aGk=", s.msg.Attachments[0].Content)
		}
		assert.Equal(t, "ann@buyers.example", fs.sent[0].msg.To)

		assert.Len(t, report.Sent, 4)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "c@d.com", report.Failed[0].Address)
		assert.Equal(t, []string{"not-an-email"}, report.Skipped)
		assert.False(t, report.OK())
		assert.Equal(t, "5/5 c@d.com true", progress[4])
	})
}

func TestSendStopsOnCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		fs := &fakeSender{}
		fs.onSend = func(to string) {
			if to == "bo@sellers.example" {
				cancel()
			}
		}
		o := NewOrchestrator(fs, testCreds())

		d := &Draft{Subject: "Price drop"}
		threeContacts(t, &d.Recipients)

		report, err := o.Send(ctx, agent, d)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, fs.sent, 2)
		assert.Equal(t, []string{"ann@buyers.example", "bo@sellers.example"}, report.Sent)
	})
}

func TestSendRejectsInvalidDraft(t *testing.T) {
	fs := &fakeSender{}
	o := NewOrchestrator(fs, testCreds(), WithMaxAttachmentBytes(1))

	_, err := o.Send(t.Context(), agent, &Draft{Subject: "Hi"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recipients", verr.Field)

	d := &Draft{Subject: "Hi", Attachments: []Attachment{{Filename: "big", Data: []byte("xx")}}}
	d.Recipients.SetManual("a@b.com")
	_, err = o.Send(t.Context(), agent, d)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "attachments", verr.Field)
	assert.Empty(t, fs.sent)
}

func TestSendNeedsCredentials(t *testing.T) {
	fs := &fakeSender{}
	o := NewOrchestrator(fs, credential.NewResolver(credential.NewMemoryStore()))

	d := &Draft{Subject: "Hi"}
	d.Recipients.SetManual("a@b.com")
	_, err := o.Send(t.Context(), agent, d)
	assert.True(t, errors.Is(err, credential.ErrNotFound))
	assert.Empty(t, fs.sent)
}

func TestSendWithoutPacing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fs := &fakeSender{}
		o := NewOrchestrator(fs, testCreds(), WithInterval(0))

		d := &Draft{Subject: "Hi"}
		d.Recipients.SetManual("a@b.com, c@d.com, e@f.com")
		start := time.Now()
		_, err := o.Send(t.Context(), agent, d)
		require.NoError(t, err)
		assert.Len(t, fs.sent, 3)
		assert.Zero(t, time.Since(start))
	})
}
