package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process Backend with TTL semantics, used for tests
// and single-process development.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend. A nil clock uses time.Now.
func NewMemoryBackend(now func() time.Time) *MemoryBackend {
	if now == nil {
		now = time.Now
	}
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// lookup returns the live entry for key, dropping it if expired. Caller holds mu.
func (m *MemoryBackend) lookup(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryBackend) GetAndTouch(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	e.expiresAt = m.now().Add(ttl)
	m.entries[key] = e
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryBackend) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return nil
}

// TTL returns the remaining lifetime of a key
func (m *MemoryBackend) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return 0, false
	}
	return e.expiresAt.Sub(m.now()), true
}

// Len returns the number of live keys
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.entries {
		if _, ok := m.lookup(k); ok {
			n++
		}
	}
	return n
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryBackend) Close() error {
	return nil
}
