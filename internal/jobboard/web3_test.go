package jobboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOffenderCacheEscalates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewOffenderCache(time.Hour)

	require.Equal(t, 1, c.Record("a", now))
	require.Equal(t, 2, c.Record("a", now.Add(time.Minute)))
	require.Equal(t, 3, c.Record("a", now.Add(2*time.Minute)))

	count, ok := c.Active("a", now.Add(3*time.Minute))
	require.True(t, ok)
	require.Equal(t, 3, count)
}

func TestOffenderCacheCooldownScalesWithCount(t *testing.T) {
	t.Parallel()

	c := NewOffenderCache(time.Hour)

	require.Equal(t, time.Hour, c.Cooldown(1))
	require.Equal(t, 3*time.Hour, c.Cooldown(3))
}

func TestOffenderCacheExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewOffenderCache(time.Hour)

	c.Record("a", now)
	c.Record("a", now) // count 2, window 2h

	_, ok := c.Active("a", now.Add(2*time.Hour-time.Minute))
	require.True(t, ok)

	_, ok = c.Active("a", now.Add(2*time.Hour))
	require.False(t, ok)

	// A fresh offense after expiry starts over.
	require.Equal(t, 1, c.Record("a", now.Add(3*time.Hour)))
}

func TestOffenderCacheForget(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewOffenderCache(time.Hour)
	c.Record("a", now)

	c.Forget("a")

	_, ok := c.Active("a", now)
	require.False(t, ok)
	require.Equal(t, 1, c.Record("a", now))
}

func TestOffenderCacheIsolatesAuthors(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := NewOffenderCache(time.Hour)

	c.Record("a", now)
	c.Record("a", now)
	require.Equal(t, 1, c.Record("b", now))
}
