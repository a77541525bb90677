package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const keyringService = "go.withmatt.com/crmmail"

// Store persists encoded credentials keyed by account email.
type Store interface {
	Get(email string) (string, error)
	Set(email, encoded string) error
	Delete(email string) error
}

// KeyringStore keeps credentials in the OS keyring.
type KeyringStore struct {
	service string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

func (s *KeyringStore) Get(email string) (string, error) {
	secret, err := keyring.Get(s.service, normalize(email))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", email, ErrNotFound)
		}
		return "", fmt.Errorf("unable to read credential from keyring: %w", err)
	}
	return secret, nil
}

func (s *KeyringStore) Set(email, encoded string) error {
	if err := keyring.Set(s.service, normalize(email), encoded); err != nil {
		return fmt.Errorf("unable to store credential in keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(email string) error {
	err := keyring.Delete(s.service, normalize(email))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("unable to delete credential from keyring: %w", err)
	}
	return nil
}

// MemoryStore is a Store that never touches the OS.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) Get(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.items[normalize(email)]
	if !ok {
		return "", fmt.Errorf("%s: %w", email, ErrNotFound)
	}
	return secret, nil
}

func (s *MemoryStore) Set(email, encoded string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[normalize(email)] = encoded
	return nil
}

func (s *MemoryStore) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, normalize(email))
	return nil
}
