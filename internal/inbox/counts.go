package inbox

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/mail"
)

// CountCache keeps per-account folder counts for the life of the process.
type CountCache struct {
	mu     sync.Mutex
	counts map[string]map[mail.Folder]int
}

func NewCountCache() *CountCache {
	return &CountCache{counts: make(map[string]map[mail.Folder]int)}
}

// Get returns a copy of the counts cached for email.
func (c *CountCache) Get(email string) (map[mail.Folder]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts, ok := c.counts[strings.ToLower(email)]
	if !ok {
		return nil, false
	}
	return maps.Clone(counts), true
}

func (c *CountCache) Set(email string, counts map[mail.Folder]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[strings.ToLower(email)] = maps.Clone(counts)
}

func (c *CountCache) Invalidate(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, strings.ToLower(email))
}

// Clear drops every account, for sign-out.
func (c *CountCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.counts)
}

// Counts returns the cached counts of the current account, or an empty map.
func (m *Manager) Counts() map[mail.Folder]int {
	acct, ok := m.Account()
	if !ok {
		return map[mail.Folder]int{}
	}
	counts, ok := m.counts.Get(acct.Email)
	if !ok {
		return map[mail.Folder]int{}
	}
	return counts
}

// RefreshCounts asks for every folder's count in parallel. Each folder has
// its own timeout, and a folder that fails counts as zero without affecting
// the others. Unless force is set, cached counts are returned as is.
func (m *Manager) RefreshCounts(ctx context.Context, force bool) (map[mail.Folder]int, error) {
	acct, ok := m.Account()
	if !ok {
		return nil, ErrNoAccount
	}
	if !force {
		if counts, ok := m.counts.Get(acct.Email); ok {
			return counts, nil
		}
	}

	conn, err := m.connection(acct)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	folders := mail.Folders()
	results := make([]int, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	for i, folder := range folders {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, m.countTimeout)
			defer cancel()
			n, err := m.gw.FolderCount(fctx, conn, folder, gateway.CallOptions{
				Timeout: m.countTimeout,
				Retries: -1,
			})
			if err != nil {
				m.logger.WithFields(logrus.Fields{
					"account": acct.Email,
					"folder":  folder,
				}).WithError(err).Warn("folder count failed, using 0")
				return nil
			}
			results[i] = n
			return nil
		})
	}
	// Workers never return errors; a failed folder is already a zero.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[mail.Folder]int, len(folders))
	for i, folder := range folders {
		counts[folder] = results[i]
	}
	m.counts.Set(acct.Email, counts)
	m.notify(Change{Kind: ChangeCounts})
	return counts, nil
}
