package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a response stays fresh.
	DefaultTTL = 60 * time.Second
	// DefaultSweepInterval is how often Run evicts stale entries.
	DefaultSweepInterval = 120 * time.Second
)

// Entry is a cached gateway response.
type Entry struct {
	Data      []byte
	Timestamp time.Time
}

// RequestCache maps a request (endpoint plus payload) to its last successful
// response. It is bounded by age only; Sweep keeps it from growing without
// limit.
type RequestCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*RequestCache)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *RequestCache) {
		c.now = now
	}
}

func New(ttl time.Duration, opts ...Option) *RequestCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &RequestCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key joins the endpoint with the JSON encoding of payload. Struct fields
// and map keys encode in a stable order, so equal payloads give equal keys.
func Key(endpoint string, payload any) (string, error) {
	if payload == nil {
		return endpoint, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", endpoint, err)
	}
	return endpoint + string(data), nil
}

// Get returns the entry for key unless it is older than the TTL.
func (c *RequestCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.stale(entry, c.now()) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return entry, true
}

func (c *RequestCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Data: data, Timestamp: c.now()}
}

func (c *RequestCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// how many were removed.
func (c *RequestCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep evicts stale entries and returns how many were removed.
func (c *RequestCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if c.stale(entry, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *RequestCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache, e.g. on sign-out.
func (c *RequestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Run sweeps on every interval until ctx is done.
func (c *RequestCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *RequestCache) stale(entry Entry, now time.Time) bool {
	return now.Sub(entry.Timestamp) > c.ttl
}
