package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"go.withmatt.com/crmmail/internal/mail"
)

const (
	EndpointFetch    = "/emails/fetch"
	EndpointMessage  = "/emails/message"
	EndpointCount    = "/emails/count"
	EndpointMarkRead = "/emails/mark-read"
	EndpointStar     = "/emails/star"
	EndpointSend     = "/emails/send"
)

// Connection is the server login every gateway request carries.
type Connection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IMAPConnection builds the login used for reading mail.
func IMAPConnection(acct mail.Account, password string) Connection {
	return Connection{
		Host:     acct.IMAPHost,
		Port:     acct.IMAPPort,
		Email:    acct.LoginName(),
		Password: password,
	}
}

// SMTPConnection builds the login used for sending mail.
func SMTPConnection(acct mail.Account, password string) Connection {
	return Connection{
		Host:     acct.SMTPHost,
		Port:     acct.SMTPPort,
		Email:    acct.LoginName(),
		Password: password,
	}
}

// mailbox is a Connection without its password. Cached requests are keyed
// on it so secrets never end up in the cache.
type mailbox struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Email string `json:"email"`
}

func (c Connection) mailbox() mailbox {
	return mailbox{Host: c.Host, Port: c.Port, Email: c.Email}
}

type fetchRequest struct {
	Connection
	Folder mail.Folder `json:"folder"`
	Limit  int         `json:"limit"`
}

type messageRequest struct {
	Connection
	Folder mail.Folder `json:"folder"`
	UID    uint32      `json:"uid"`
}

type countRequest struct {
	Connection
	Folder mail.Folder `json:"folder"`
}

func (r fetchRequest) cacheIdentity() any {
	return struct {
		mailbox
		Folder mail.Folder `json:"folder"`
		Limit  int         `json:"limit"`
	}{r.mailbox(), r.Folder, r.Limit}
}

func (r messageRequest) cacheIdentity() any {
	return struct {
		mailbox
		Folder mail.Folder `json:"folder"`
		UID    uint32      `json:"uid"`
	}{r.mailbox(), r.Folder, r.UID}
}

func (r countRequest) cacheIdentity() any {
	return struct {
		mailbox
		Folder mail.Folder `json:"folder"`
	}{r.mailbox(), r.Folder}
}

type markReadRequest struct {
	Connection
	Folder mail.Folder `json:"folder"`
	UID    uint32      `json:"uid"`
	Read   bool        `json:"read"`
}

type starRequest struct {
	Connection
	Folder  mail.Folder `json:"folder"`
	UID     uint32      `json:"uid"`
	Starred bool        `json:"starred"`
}

// OutgoingAttachment is a file sent along with a message.
type OutgoingAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// NewOutgoingAttachment base64-encodes data for the wire.
func NewOutgoingAttachment(filename, contentType string, data []byte) OutgoingAttachment {
	return OutgoingAttachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     base64.StdEncoding.EncodeToString(data),
	}
}

// OutgoingMessage is one message to one recipient.
type OutgoingMessage struct {
	To          string               `json:"to"`
	Subject     string               `json:"subject"`
	Body        string               `json:"body"`
	HTML        bool                 `json:"html,omitempty"`
	Attachments []OutgoingAttachment `json:"attachments,omitempty"`
}

type sendRequest struct {
	Connection
	OutgoingMessage
}

// FetchMessages returns up to limit messages from folder, newest first.
func (c *Client) FetchMessages(
	ctx context.Context,
	conn Connection,
	folder mail.Folder,
	limit int,
) ([]mail.Message, error) {
	resp, err := c.Call(ctx, EndpointFetch, fetchRequest{
		Connection: conn,
		Folder:     folder,
		Limit:      limit,
	}, CallOptions{UseCache: true, Idempotent: true})
	if err != nil {
		return nil, err
	}
	var wire []wireMessage
	if resp.Has("emails") {
		if err := resp.Decode("emails", &wire); err != nil {
			return nil, err
		}
	}
	return toMessages(wire, folder), nil
}

// FetchMessage returns one message with its bodies and attachment list.
func (c *Client) FetchMessage(
	ctx context.Context,
	conn Connection,
	folder mail.Folder,
	uid uint32,
) (*mail.Message, error) {
	resp, err := c.Call(ctx, EndpointMessage, messageRequest{
		Connection: conn,
		Folder:     folder,
		UID:        uid,
	}, CallOptions{UseCache: true, Idempotent: true})
	if err != nil {
		return nil, err
	}

	var wire wireMessage
	switch {
	case resp.Has("email"):
		err = resp.Decode("email", &wire)
	case resp.Has("emails"):
		var list []wireMessage
		err = resp.Decode("emails", &list)
		if err == nil {
			if len(list) == 0 {
				return nil, &Error{Status: http.StatusNotFound, Endpoint: EndpointMessage, Message: fmt.Sprintf("uid %d not found", uid)}
			}
			wire = list[0]
		}
	default:
		return nil, fmt.Errorf("gateway response missing %q", "email")
	}
	if err != nil {
		return nil, err
	}
	msg := wire.toMessage(folder)
	return &msg, nil
}

// FolderCount returns the number of messages in folder.
func (c *Client) FolderCount(
	ctx context.Context,
	conn Connection,
	folder mail.Folder,
	opts CallOptions,
) (int, error) {
	opts.Idempotent = true
	resp, err := c.Call(ctx, EndpointCount, countRequest{Connection: conn, Folder: folder}, opts)
	if err != nil {
		return 0, err
	}
	var count int
	if err := resp.Decode("count", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead sets or clears the seen flag.
func (c *Client) MarkRead(
	ctx context.Context,
	conn Connection,
	folder mail.Folder,
	uid uint32,
	read bool,
) error {
	_, err := c.Call(ctx, EndpointMarkRead, markReadRequest{
		Connection: conn,
		Folder:     folder,
		UID:        uid,
		Read:       read,
	}, CallOptions{})
	if err != nil {
		return err
	}
	c.invalidateMailbox()
	return nil
}

// SetStarred sets or clears the flagged state.
func (c *Client) SetStarred(
	ctx context.Context,
	conn Connection,
	folder mail.Folder,
	uid uint32,
	starred bool,
) error {
	_, err := c.Call(ctx, EndpointStar, starRequest{
		Connection: conn,
		Folder:     folder,
		UID:        uid,
		Starred:    starred,
	}, CallOptions{})
	if err != nil {
		return err
	}
	c.invalidateMailbox()
	return nil
}

// Send delivers msg. Sends are never retried or cached.
func (c *Client) Send(ctx context.Context, conn Connection, msg OutgoingMessage) error {
	_, err := c.Call(ctx, EndpointSend, sendRequest{
		Connection:      conn,
		OutgoingMessage: msg,
	}, CallOptions{})
	if err != nil {
		return err
	}
	c.Invalidate(EndpointCount)
	return nil
}

func (c *Client) invalidateMailbox() {
	c.Invalidate(EndpointFetch)
	c.Invalidate(EndpointMessage)
}
