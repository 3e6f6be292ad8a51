package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired
var ErrNotFound = errors.New("key not found")

// Backend is the shared key-value service the context store is built on.
// Every value is written with a TTL and reads refresh it.
type Backend interface {
	// GetAndTouch reads the value and resets its TTL in one call
	GetAndTouch(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	// SetIfAbsent writes the value only if the key does not exist yet
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Set writes the full value with a fresh TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}
