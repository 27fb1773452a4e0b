package users

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/authgate/pkg/observability"
)

const cacheName = "users"

// CachedStore is a read-through LRU in front of another Store.
// Only found records are cached, so a signup right after a miss is never hidden.
type CachedStore struct {
	next    Store
	cache   *expirable.LRU[string, Record]
	metrics *observability.Metrics
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps next with an expiring LRU of size entries
func NewCachedStore(next Store, size int, ttl time.Duration, metrics *observability.Metrics) *CachedStore {
	return &CachedStore{
		next:    next,
		cache:   expirable.NewLRU[string, Record](size, nil, ttl),
		metrics: metrics,
	}
}

// FindByEmail serves from cache, falling back to the wrapped store
func (c *CachedStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	if r, ok := c.cache.Get(email); ok {
		c.metrics.RecordCacheLookup(cacheName, true)
		return &r, nil
	}
	c.metrics.RecordCacheLookup(cacheName, false)

	record, err := c.next.FindByEmail(ctx, email)
	if err != nil || record == nil {
		return record, err
	}
	c.cache.Add(email, *record)
	return record, nil
}

// Create writes through and caches the new record
func (c *CachedStore) Create(ctx context.Context, record *Record) error {
	if err := c.next.Create(ctx, record); err != nil {
		return err
	}
	c.cache.Add(record.Email, *record)
	return nil
}

// MarkConfirmed writes through and evicts the stale entry
func (c *CachedStore) MarkConfirmed(ctx context.Context, email string) error {
	c.cache.Remove(email)
	err := c.next.MarkConfirmed(ctx, email)
	// a lookup racing the update may have re-cached the old step
	c.cache.Remove(email)
	return err
}

// ListPending always reads the wrapped store
func (c *CachedStore) ListPending(ctx context.Context, limit int) ([]*Record, error) {
	return c.next.ListPending(ctx, limit)
}

// Len returns the number of cached records
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
