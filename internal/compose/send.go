package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/log"
	"go.withmatt.com/crmmail/internal/mail"
)

const DefaultSendInterval = 500 * time.Millisecond

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, conn gateway.Connection, msg gateway.OutgoingMessage) error
}

type CredentialSource interface {
	Resolve(email string) (string, error)
}

// Failure is one recipient the gateway refused.
type Failure struct {
	Address string
	Err     error
}

// Report says what happened to every address of a draft.
type Report struct {
	Sent    []string
	Failed  []Failure
	Skipped []string
}

// OK is true when every valid recipient got the message.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Progress is called after each attempted address.
type Progress func(done, total int, address string, err error)

type Orchestrator struct {
	sender        Sender
	creds         CredentialSource
	interval      time.Duration
	maxAttachment int64
	progress      Progress
	logger        logrus.FieldLogger
}

type Option func(*Orchestrator)

// WithInterval sets the pause between two sends.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.interval = d
		}
	}
}

func WithMaxAttachmentBytes(n int64) Option {
	return func(o *Orchestrator) { o.maxAttachment = n }
}

func WithProgress(fn Progress) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func NewOrchestrator(sender Sender, creds CredentialSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sender:   sender,
		creds:    creds,
		interval: DefaultSendInterval,
		logger:   log.Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send mails the draft to each recipient in turn, one message per address,
// waiting the configured interval between sends. A refused address does not
// stop the rest. Cancelling ctx stops before the next send and returns the
// partial report with ctx's error.
func (o *Orchestrator) Send(ctx context.Context, acct mail.Account, d *Draft) (*Report, error) {
	if err := d.Validate(o.maxAttachment); err != nil {
		return nil, err
	}
	password, err := o.creds.Resolve(acct.Email)
	if err != nil {
		return nil, err
	}
	conn := gateway.SMTPConnection(acct, password)

	attachments := make([]gateway.OutgoingAttachment, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attachments = append(attachments, gateway.NewOutgoingAttachment(a.Filename, a.ContentType, a.Data))
	}

	report := &Report{Skipped: d.Recipients.InvalidManual()}
	addresses := d.Recipients.Addresses()

	limit := rate.Inf
	if o.interval > 0 {
		limit = rate.Every(o.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, addr := range addresses {
		if err := limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("sending stopped after %d of %d: %w", i, len(addresses), err)
		}

		err := o.sender.Send(ctx, conn, gateway.OutgoingMessage{
			To:          addr,
			Subject:     d.Subject,
			Body:        d.Body,
			HTML:        d.HTML,
			Attachments: attachments,
		})
		entry := o.logger.WithFields(logrus.Fields{
			"account": acct.Email,
			"to":      addr,
			"n":       i + 1,
			"total":   len(addresses),
		})
		if err != nil {
			entry.WithError(err).Warn("send failed")
			report.Failed = append(report.Failed, Failure{Address: addr, Err: err})
		} else {
			entry.Debug("sent")
			report.Sent = append(report.Sent, addr)
		}
		if o.progress != nil {
			o.progress(i+1, len(addresses), addr, err)
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}
	return report, nil
}
