package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheProvider.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider stores rendered dashboard responses.
type CacheProvider interface {
	// Get returns ErrCacheMiss when key is not cached.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}
