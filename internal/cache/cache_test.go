package cache

import (
	"context"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration) (*RequestCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return New(ttl, WithClock(clock.Now)), clock
}

func TestKeyIsStableForStructPayloads(t *testing.T) {
	type payload struct {
		Email  string `json:"email"`
		Folder string `json:"folder"`
	}
	a, err := Key("/emails/fetch", payload{Email: "a@x.com", Folder: "inbox"})
	require.NoError(t, err)
	b, err := Key("/emails/fetch", payload{Email: "a@x.com", Folder: "inbox"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, `/emails/fetch{"email":"a@x.com","folder":"inbox"}`, a)

	c, err := Key("/emails/fetch", payload{Email: "b@x.com", Folder: "inbox"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := Key("/emails/count", payload{Email: "a@x.com", Folder: "inbox"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestKeyRejectsUnencodablePayload(t *testing.T) {
	_, err := Key("/x", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestGetMissesAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Set("k", []byte("v"))

	clock.Advance(time.Minute)
	entry, ok := c.Get("k")
	require.True(t, ok, "an entry exactly TTL old is still fresh")
	assert.Equal(t, []byte("v"), entry.Data)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "stale entry is dropped on read")
}

func TestSetRefreshesTimestamp(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Set("k", []byte("old"))
	clock.Advance(50 * time.Second)
	c.Set("k", []byte("new"))
	clock.Advance(50 * time.Second)

	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), entry.Data)
}

func TestSweepBoundsGrowth(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	for i := range 1000 {
		c.Set(fmt.Sprintf("old-%d", i), []byte("x"))
	}
	clock.Advance(2 * time.Minute)
	for i := range 10 {
		c.Set(fmt.Sprintf("new-%d", i), []byte("x"))
	}

	assert.Equal(t, 1000, c.Sweep())
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, 0, c.Sweep())
}

func TestDeletePrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set(`/emails/fetch{"folder":"inbox"}`, nil)
	c.Set(`/emails/fetch{"folder":"sent"}`, nil)
	c.Set(`/emails/count{"folder":"inbox"}`, nil)

	assert.Equal(t, 2, c.DeletePrefix("/emails/fetch"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestRunSweepsOnInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := New(time.Minute)
		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan struct{})
		go func() {
			c.Run(ctx, 2*time.Minute)
			close(done)
		}()

		c.Set("k", []byte("v"))
		time.Sleep(90 * time.Second)
		synctest.Wait()
		assert.Equal(t, 1, c.Len(), "no sweep before the interval")

		time.Sleep(31 * time.Second)
		synctest.Wait()
		assert.Equal(t, 0, c.Len())

		cancel()
		<-done
	})
}
