package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss signals that a key was not present in the cache.
var ErrCacheMiss = errors.New("cache: key not found")

// Provider is the byte-oriented cache surface the repo clients consume
// for telemetry lookups. Implementations must be safe for concurrent
// use.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// NoopProvider satisfies Provider without storing anything. It is the
// fallback when no cache backend is configured or reachable, turning
// every read into a miss.
type NoopProvider struct{}

var _ Provider = NoopProvider{}

// Get always reports a miss.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value.
func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// SetNX pretends the value was stored.
func (NoopProvider) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}

// Del has nothing to delete.
func (NoopProvider) Del(context.Context, string) error { return nil }

// Close has nothing to release.
func (NoopProvider) Close() error { return nil }
