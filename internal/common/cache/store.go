// Package cache provides the byte-oriented stores behind the search result cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"rentcomps/internal/common/config"
	"rentcomps/internal/common/logger"
)

// Store is a key/value store with per-entry expiry. A miss is reported as
// (nil, false, nil); err is reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds the store selected by cfg.Backend. It returns (nil, nil) for
// the "none" backend. Remote backends are always fronted by an in-process
// layer.
func New(cfg config.CacheConfig, log logger.Logger) (Store, error) {
	localTTL := config.GetDuration(cfg.LocalTTL)

	switch cfg.Backend {
	case config.CacheBackendNone, "":
		return nil, nil
	case config.CacheBackendLocal:
		return NewLayered(nil, cfg.LocalMaxSize, localTTL, log), nil
	case config.CacheBackendRedis:
		return NewLayered(NewRedis(cfg.Redis), cfg.LocalMaxSize, localTTL, log), nil
	case config.CacheBackendMemcached:
		return NewLayered(NewMemcached(cfg.Memcached), cfg.LocalMaxSize, localTTL, log), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
