package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"rentcomps/internal/common/config"
)

// MemcachedStore stores entries in memcached. The client has no context
// support, so ctx is only checked before each call.
type MemcachedStore struct {
	client *memcache.Client
}

func NewMemcached(cfg config.MemcachedConfig) *MemcachedStore {
	return &MemcachedStore{client: memcache.New(cfg.Servers...)}
}

func (s *MemcachedStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Ping(); err != nil {
		return fmt.Errorf("memcached ping failed: %w", err)
	}
	return nil
}

func (s *MemcachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	item, err := s.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcached get %s: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *MemcachedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item := &memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirationSeconds(ttl),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("memcached set %s: %w", key, err)
	}
	return nil
}

// expirationSeconds converts ttl to memcached's relative expiration. Zero
// means no expiry; anything else is kept between 1s and 30 days, past which
// memcached reads the value as a unix timestamp.
func expirationSeconds(ttl time.Duration) int32 {
	const maxRelative = 30 * 24 * time.Hour
	switch {
	case ttl <= 0:
		return 0
	case ttl < time.Second:
		return 1
	case ttl > maxRelative:
		return int32(maxRelative / time.Second)
	default:
		return int32(ttl / time.Second)
	}
}

func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.client.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcached delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the client keeps only idle connections.
func (s *MemcachedStore) Close() error {
	return nil
}
