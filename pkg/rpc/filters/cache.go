package filters

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// DefaultCacheSize bounds the cache filter's storage when no size is
// configured.
const DefaultCacheSize = 1024

// CacheFilter short-circuits invocations whose successful reply is already
// cached. Entries expire after the configured TTL; a TTL of zero means
// entries never expire. Storage is a bounded LRU so a hot service cannot
// grow it without limit.
type CacheFilter struct {
	ttl     time.Duration
	store   *lru.Cache
	nowFunc func() time.Time
}

var _ rpc.Filter = (*CacheFilter)(nil)

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// NewCacheFilter creates a cache filter with the given TTL and maximum entry
// count.
func NewCacheFilter(ttl time.Duration, size int) (*CacheFilter, error) {
	store, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}
	return &CacheFilter{ttl: ttl, store: store, nowFunc: time.Now}, nil
}

// Invoke serves a fresh cached reply when one exists, otherwise delegates and
// caches the eventual successful value.
func (f *CacheFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	key := cacheKey(inv)
	if v, ok := f.store.Get(key); ok {
		entry := v.(*cacheEntry)
		if f.ttl == 0 || f.nowFunc().Sub(entry.storedAt) <= f.ttl {
			logging.Debug("cache hit", zap.Stringer("invocation", inv))
			return rpc.CompletedResult(entry.value), nil
		}
		f.store.Remove(key)
	}

	res, err := next.Invoke(ctx, inv)
	if err != nil {
		return nil, err
	}
	res.WhenComplete(func(value any, err error) {
		if err == nil {
			f.store.Add(key, &cacheEntry{value: value, storedAt: f.nowFunc()})
		}
	})
	return res, nil
}

func cacheKey(inv *rpc.Invocation) string {
	return fmt.Sprintf("%s.%s%v", inv.Service(), inv.Method(), inv.Arguments())
}
