package gateway

import (
	netmail "net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.withmatt.com/crmmail/internal/mail"
)

const snippetLength = 140

// wireMessage mirrors the gateway's email object. Dates arrive as strings in
// whatever format the upstream server used.
type wireMessage struct {
	UID            uint32            `json:"uid"`
	Subject        string            `json:"subject"`
	From           string            `json:"from"`
	FromName       string            `json:"fromName"`
	To             string            `json:"to"`
	Date           string            `json:"date"`
	Snippet        string            `json:"snippet"`
	HTML           string            `json:"html"`
	Text           string            `json:"text"`
	Unread         bool              `json:"unread"`
	Starred        bool              `json:"starred"`
	HasAttachments bool              `json:"hasAttachments"`
	Attachments    []mail.Attachment `json:"attachments"`
}

func toMessages(wire []wireMessage, folder mail.Folder) []mail.Message {
	messages := make([]mail.Message, 0, len(wire))
	for _, w := range wire {
		messages = append(messages, w.toMessage(folder))
	}
	return messages
}

func (w wireMessage) toMessage(folder mail.Folder) mail.Message {
	msg := mail.Message{
		UID:            w.UID,
		Folder:         folder,
		Subject:        w.Subject,
		From:           w.From,
		FromName:       w.FromName,
		To:             w.To,
		Date:           parseDate(w.Date),
		Snippet:        w.Snippet,
		HTML:           w.HTML,
		Text:           w.Text,
		Unread:         w.Unread,
		Starred:        w.Starred,
		HasAttachments: w.HasAttachments || len(w.Attachments) > 0,
		Attachments:    w.Attachments,
	}

	if msg.FromName == "" && msg.From != "" {
		if addr, err := netmail.ParseAddress(msg.From); err == nil {
			msg.FromName = addr.Name
			msg.From = addr.Address
		}
	}
	if msg.Snippet == "" && msg.Text != "" {
		msg.Snippet = makeSnippet(msg.Text)
	}
	return msg
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if t, err := netmail.ParseDate(s); err == nil {
		return t
	}
	return time.Time{}
}

func makeSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength])
}
