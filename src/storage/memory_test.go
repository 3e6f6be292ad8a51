package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryBackendSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemoryBackend(clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))

	clock.Advance(59 * time.Minute)
	_, err := m.GetAndTouch(ctx, "k", time.Hour)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	ttl, ok := m.TTL("k")
	require.True(t, ok)
	assert.Equal(t, time.Minute, ttl)

	clock.Advance(time.Minute)
	_, err = m.GetAndTouch(ctx, "k", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryBackendSetIfAbsent(t *testing.T) {
	m := NewMemoryBackend(nil)
	ctx := context.Background()

	ok, err := m.SetIfAbsent(ctx, "k", []byte("a"), time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetIfAbsent(ctx, "k", []byte("b"), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := m.GetAndTouch(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestMemoryBackendHonoursCancelledContext(t *testing.T) {
	m := NewMemoryBackend(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GetAndTouch(ctx, "k", time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Set(ctx, "k", nil, time.Hour), context.Canceled)
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	m := NewMemoryBackend(nil)
	ctx := context.Background()
	buf := []byte("abc")

	require.NoError(t, m.Set(ctx, "k", buf, time.Hour))
	buf[0] = 'z'

	got, err := m.GetAndTouch(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
