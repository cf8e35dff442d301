package cache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"

	"rentcomps/internal/common/logger"
	"rentcomps/internal/common/metrics"
)

const (
	layerLocal  = "local"
	layerRemote = "remote"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Layered checks an in-process ccache first and falls back to an optional
// remote store. Remote hits are copied into the local layer.
type Layered struct {
	local    *ccache.Cache[[]byte]
	remote   Store
	localTTL time.Duration
	log      logger.Logger
}

// NewLayered builds a two-level store. remote may be nil for a local-only cache.
func NewLayered(remote Store, maxSize int64, localTTL time.Duration, log logger.Logger) *Layered {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if localTTL <= 0 {
		localTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Layered{
		local:    ccache.New(ccache.Configure[[]byte]().MaxSize(maxSize)),
		remote:   remote,
		localTTL: localTTL,
		log:      log,
	}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item := l.local.Get(key)
	if item != nil && !item.Expired() {
		metrics.CacheLookups.WithLabelValues(layerLocal, resultHit).Inc()
		return item.Value(), true, nil
	}
	metrics.CacheLookups.WithLabelValues(layerLocal, resultMiss).Inc()

	if l.remote == nil {
		return nil, false, nil
	}

	val, ok, err := l.remote.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues(layerRemote, resultError).Inc()
		return nil, false, err
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues(layerRemote, resultMiss).Inc()
		return nil, false, nil
	}

	metrics.CacheLookups.WithLabelValues(layerRemote, resultHit).Inc()
	l.local.Set(key, val, l.localTTL)
	l.log.Debug("remote cache hit copied to local layer", map[string]interface{}{
		"key": key,
	})
	return val, true, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	localTTL := l.localTTL
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	l.local.Set(key, value, localTTL)

	if l.remote == nil {
		return nil
	}
	return l.remote.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	l.local.Delete(key)
	if l.remote == nil {
		return nil
	}
	return l.remote.Delete(ctx, key)
}

// Ping checks the remote layer when it supports it.
func (l *Layered) Ping(ctx context.Context) error {
	if p, ok := l.remote.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (l *Layered) Close() error {
	l.local.Stop()
	if l.remote == nil {
		return nil
	}
	return l.remote.Close()
}
