package mail

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Folder is one of the fixed mailboxes the gateway exposes.
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderSent   Folder = "sent"
	FolderDrafts Folder = "drafts"
	FolderTrash  Folder = "trash"
	FolderSpam   Folder = "spam"
)

var folders = []Folder{FolderInbox, FolderSent, FolderDrafts, FolderTrash, FolderSpam}

// Folders returns every folder in display order.
func Folders() []Folder {
	out := make([]Folder, len(folders))
	copy(out, folders)
	return out
}

// ParseFolder accepts a folder name in any case.
func ParseFolder(s string) (Folder, error) {
	f := Folder(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown folder %q", s)
	}
	return f, nil
}

func (f Folder) Valid() bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderTrash, FolderSpam:
		return true
	}
	return false
}

// Label is the human facing name.
func (f Folder) Label() string {
	switch f {
	case FolderInbox:
		return "Inbox"
	case FolderSent:
		return "Sent"
	case FolderDrafts:
		return "Drafts"
	case FolderTrash:
		return "Trash"
	case FolderSpam:
		return "Spam"
	}
	return string(f)
}

// Next returns the folder after f, wrapping around.
func (f Folder) Next() Folder {
	for i, candidate := range folders {
		if candidate == f {
			return folders[(i+1)%len(folders)]
		}
	}
	return FolderInbox
}

// Account is a mailbox the user can sign in to.
type Account struct {
	Name     string `toml:"name"`
	Email    string `toml:"email"`
	Username string `toml:"username"`
	IMAPHost string `toml:"imap_host"`
	IMAPPort int    `toml:"imap_port"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`

	// EncryptedPassword is populated at sign-in and only lives for the session.
	EncryptedPassword string `toml:"-"`
}

// DisplayName prefers the configured name over the bare address.
func (a Account) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}
	return a.Email
}

// LoginName is the IMAP/SMTP user, falling back to the address.
func (a Account) LoginName() string {
	if strings.TrimSpace(a.Username) != "" {
		return a.Username
	}
	return a.Email
}

// Message is a single email as returned by the gateway. UID is only unique
// within a folder.
type Message struct {
	UID            uint32       `json:"uid"`
	Folder         Folder       `json:"folder,omitempty"`
	Subject        string       `json:"subject"`
	From           string       `json:"from"`
	FromName       string       `json:"fromName"`
	To             string       `json:"to"`
	Date           time.Time    `json:"date"`
	Snippet        string       `json:"snippet"`
	HTML           string       `json:"html,omitempty"`
	Text           string       `json:"text,omitempty"`
	Unread         bool         `json:"unread"`
	Starred        bool         `json:"starred"`
	HasAttachments bool         `json:"hasAttachments"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Key identifies a message within its folder.
func (m Message) Key() string {
	return string(m.Folder) + ":" + strconv.FormatUint(uint64(m.UID), 10)
}

// Sender returns the display name when known.
func (m Message) Sender() string {
	if strings.TrimSpace(m.FromName) != "" {
		return m.FromName
	}
	return m.From
}

// Attachment describes one MIME part. PartID is the position inside the
// message and is only meaningful for the folder and uid it came from.
type Attachment struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	PartID      string `json:"partID"`
}
