package compose

import (
	"errors"
	"fmt"
	"strings"
)

// MaxContacts caps how many address-book entries one message can go to.
const MaxContacts = 99

var ErrTooManyContacts = fmt.Errorf("at most %d contacts per message", MaxContacts)

// Recipient is an address-book entry picked as a recipient.
type Recipient struct {
	Name  string
	Email string
}

func (r Recipient) String() string {
	if r.Name == "" {
		return r.Email
	}
	return fmt.Sprintf("%s <%s>", r.Name, r.Email)
}

// LooksLikeAddress is a loose check: anything with an @ and a dot passes.
func LooksLikeAddress(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// Recipients combines picked contacts with a free-text, comma separated
// address list.
type Recipients struct {
	contacts []Recipient
	manual   string
}

// AddContact appends c. Adding an address already present is a no-op.
func (r *Recipients) AddContact(c Recipient) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return errors.New("contact has no email address")
	}
	if r.hasContact(c.Email) {
		return nil
	}
	if len(r.contacts) >= MaxContacts {
		return ErrTooManyContacts
	}
	r.contacts = append(r.contacts, c)
	return nil
}

// RemoveContact reports whether email was picked.
func (r *Recipients) RemoveContact(email string) bool {
	for i, c := range r.contacts {
		if strings.EqualFold(c.Email, email) {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Recipients) Contacts() []Recipient {
	out := make([]Recipient, len(r.contacts))
	copy(out, r.contacts)
	return out
}

func (r *Recipients) SetManual(text string) {
	r.manual = text
}

func (r *Recipients) Manual() string {
	return r.manual
}

// ManualAddresses returns the free-text entries that look like addresses.
func (r *Recipients) ManualAddresses() []string {
	valid, _ := splitManual(r.manual)
	return valid
}

// InvalidManual returns the free-text entries that were rejected.
func (r *Recipients) InvalidManual() []string {
	_, invalid := splitManual(r.manual)
	return invalid
}

// Addresses is every address a message goes to: contacts first, then the
// valid free-text entries, each address once.
func (r *Recipients) Addresses() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(addr string) {
		key := strings.ToLower(addr)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, addr)
	}
	for _, c := range r.contacts {
		add(c.Email)
	}
	for _, addr := range r.ManualAddresses() {
		add(addr)
	}
	return out
}

// Total is the number of messages a send produces.
func (r *Recipients) Total() int {
	return len(r.Addresses())
}

func splitManual(text string) (valid, invalid []string) {
	for part := range strings.SplitSeq(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if LooksLikeAddress(part) {
			valid = append(valid, part)
		} else {
			invalid = append(invalid, part)
		}
	}
	return valid, invalid
}
