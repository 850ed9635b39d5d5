package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/cache"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
)

// CachedAdapter memoizes the idempotent queries of an Adapter. Bodies are
// cached per block, validity and success per (block, transaction) pair.
// Unpin passes through untouched; stale entries age out via TTL.
type CachedAdapter struct {
	inner   Adapter
	bodies  *cache.LRU[string, []model.TxRef]
	valid   *cache.LRU[string, bool]
	success *cache.LRU[string, bool]
}

var _ Adapter = (*CachedAdapter)(nil)

// NewCachedAdapter wraps inner with TTL LRU caches of the given capacity.
func NewCachedAdapter(inner Adapter, capacity int, ttl time.Duration) *CachedAdapter {
	return &CachedAdapter{
		inner:   inner,
		bodies:  cache.NewLRU[string, []model.TxRef](capacity, ttl),
		valid:   cache.NewLRU[string, bool](capacity, ttl),
		success: cache.NewLRU[string, bool](capacity, ttl),
	}
}

func pairKey(blockHash string, tx model.TxRef) string {
	return fmt.Sprintf("%s:%s", blockHash, tx)
}

func (c *CachedAdapter) GetBody(ctx context.Context, blockHash string) ([]model.TxRef, error) {
	if body, ok := c.bodies.Get(blockHash); ok {
		metrics.CacheHitsTotal.WithLabelValues("body").Inc()
		return body, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("body").Inc()

	body, err := c.inner.GetBody(ctx, blockHash)
	if err != nil {
		return nil, err
	}
	c.bodies.Put(blockHash, body)
	return body, nil
}

func (c *CachedAdapter) IsTxValid(ctx context.Context, blockHash string, tx model.TxRef) (bool, error) {
	key := pairKey(blockHash, tx)
	if valid, ok := c.valid.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("valid").Inc()
		return valid, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("valid").Inc()

	valid, err := c.inner.IsTxValid(ctx, blockHash, tx)
	if err != nil {
		return false, err
	}
	c.valid.Put(key, valid)
	return valid, nil
}

func (c *CachedAdapter) IsTxSuccessful(ctx context.Context, blockHash string, tx model.TxRef) (bool, error) {
	key := pairKey(blockHash, tx)
	if successful, ok := c.success.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("success").Inc()
		return successful, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("success").Inc()

	successful, err := c.inner.IsTxSuccessful(ctx, blockHash, tx)
	if err != nil {
		return false, err
	}
	c.success.Put(key, successful)
	return successful, nil
}

func (c *CachedAdapter) Unpin(ctx context.Context, blockHashes ...string) error {
	return c.inner.Unpin(ctx, blockHashes...)
}
