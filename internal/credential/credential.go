package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"go.withmatt.com/crmmail/internal/mail"
)

// Reason explains why a stored credential could not be used.
type Reason string

const (
	ReasonNoPassword      Reason = "NO_PASSWORD"
	ReasonNotEncrypted    Reason = "NOT_ENCRYPTED"
	ReasonInvalidPassword Reason = "INVALID_PASSWORD"
)

const (
	separator         = ":"
	minPasswordLength = 4
)

// ErrNotFound is returned when an account has no stored credential at all.
var ErrNotFound = errors.New("no stored credentials")

// Error reports a credential that exists but cannot be decoded. Every reason
// means the user has to enter the password again.
type Error struct {
	Email  string
	Reason Reason
}

func (e *Error) Error() string {
	if e.Email == "" {
		return fmt.Sprintf("credential unusable: %s", e.Reason)
	}
	return fmt.Sprintf("credential for %s unusable: %s", e.Email, e.Reason)
}

// NeedsUpdate is true for every decode failure.
func (e *Error) NeedsUpdate() bool {
	return true
}

// NeedsUpdate reports whether err asks for credential re-entry.
func NeedsUpdate(err error) bool {
	var credErr *Error
	return errors.As(err, &credErr) && credErr.NeedsUpdate()
}

// Encode wraps a password for storage. A random secondary field precedes the
// password so two encodings of the same secret differ.
func Encode(password string) string {
	raw := uuid.NewString() + separator + password
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	if strings.TrimSpace(encoded) == "" {
		return "", &Error{Reason: ReasonNoPassword}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &Error{Reason: ReasonNotEncrypted}
	}
	_, password, ok := strings.Cut(string(raw), separator)
	if !ok {
		return "", &Error{Reason: ReasonNotEncrypted}
	}
	if len(password) < minPasswordLength {
		return "", &Error{Reason: ReasonInvalidPassword}
	}
	return password, nil
}

// Resolver finds the password for an account, preferring credentials handed
// over at sign-in to the persisted store.
type Resolver struct {
	mu      sync.RWMutex
	session map[string]string
	store   Store
}

// NewResolver returns a resolver backed by store. store may be nil.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		session: make(map[string]string),
		store:   store,
	}
}

// Remember keeps an encoded credential in memory for this session.
func (r *Resolver) Remember(email, encoded string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session[normalize(email)] = encoded
}

// RememberAccount is Remember for an account populated at sign-in.
func (r *Resolver) RememberAccount(acct mail.Account) {
	if acct.EncryptedPassword == "" {
		return
	}
	r.Remember(acct.Email, acct.EncryptedPassword)
}

// Forget drops the in-memory credential. The persisted copy is untouched.
func (r *Resolver) Forget(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.session, normalize(email))
}

// Resolve returns the decoded password for email.
func (r *Resolver) Resolve(email string) (string, error) {
	key := normalize(email)
	if key == "" {
		return "", &Error{Reason: ReasonNoPassword}
	}

	r.mu.RLock()
	encoded, ok := r.session[key]
	r.mu.RUnlock()

	if !ok {
		if r.store == nil {
			return "", fmt.Errorf("%s: %w", email, ErrNotFound)
		}
		var err error
		encoded, err = r.store.Get(key)
		if err != nil {
			return "", err
		}
	}

	password, err := Decode(encoded)
	if err != nil {
		var credErr *Error
		if errors.As(err, &credErr) {
			credErr.Email = email
		}
		return "", err
	}
	return password, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
