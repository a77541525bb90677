// Package addressbook stores the contacts recipients are picked from.
package addressbook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"go.withmatt.com/crmmail/internal/compose"
	"go.withmatt.com/crmmail/internal/config"
)

const dbFileName = "contacts.sqlite"

var ErrNotFound = errors.New("contact not found")

type Contact struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recipient converts the contact for a compose draft.
func (c Contact) Recipient() compose.Recipient {
	return compose.Recipient{Name: c.Name, Email: c.Email}
}

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenDefault opens the contacts database in the user's data directory.
func OpenDefault() (*Store, error) {
	path, err := config.DataFile(dbFileName)
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			phone TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add stores c, updating the existing contact with the same email.
func (s *Store) Add(c Contact) (Contact, error) {
	c.Email = strings.TrimSpace(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	if !compose.LooksLikeAddress(c.Email) {
		return Contact{}, &compose.ValidationError{
			Field:   "email",
			Message: fmt.Sprintf("%q does not look like an email address", c.Email),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Unix()
	if _, err := s.db.ExecContext(context.Background(), `
		INSERT INTO contacts (name, email, phone, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, c.Name, c.Email, c.Phone, c.Notes, now, now); err != nil {
		return Contact{}, fmt.Errorf("saving contact: %w", err)
	}
	return s.get(c.Email)
}

// Get looks a contact up by email, ignoring case.
func (s *Store) Get(email string) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(strings.TrimSpace(email))
}

func (s *Store) get(email string) (Contact, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM contacts WHERE email = ?
	`, email)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, fmt.Errorf("%s: %w", email, ErrNotFound)
	}
	return c, err
}

// List returns every contact ordered by name.
func (s *Store) List() ([]Contact, error) {
	return s.query(`
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM contacts ORDER BY name COLLATE NOCASE, email
	`)
}

// Search matches query against names and emails. limit <= 0 means no limit.
func (s *Store) Search(query string, limit int) ([]Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		contacts, err := s.List()
		if err != nil || limit <= 0 || len(contacts) <= limit {
			return contacts, err
		}
		return contacts[:limit], nil
	}
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(query) + "%"
	return s.query(`
		SELECT id, name, email, phone, notes, created_at, updated_at
		FROM contacts
		WHERE name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE, email
		LIMIT ?
	`, pattern, pattern, limit)
}

// Remove deletes the contact with email.
func (s *Store) Remove(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(context.Background(),
		`DELETE FROM contacts WHERE email = ?`, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", email, ErrNotFound)
	}
	return nil
}

func (s *Store) query(q string, args ...any) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(context.Background(), q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (Contact, error) {
	var c Contact
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &created, &updated); err != nil {
		return Contact{}, err
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	c.UpdatedAt = time.Unix(updated, 0).UTC()
	return c, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
