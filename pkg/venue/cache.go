package venue

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Cache remembers per-token market facts for the life of a client.
// Entries never expire on their own; call Invalidate when a market changes.
// Concurrent misses on one token may each hit the venue; the last write wins.
type Cache struct {
	mu        sync.RWMutex
	tickSizes map[string]rounding.TickSize
	negRisk   map[string]bool
	feeRates  map[string]int64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		tickSizes: make(map[string]rounding.TickSize),
		negRisk:   make(map[string]bool),
		feeRates:  make(map[string]int64),
	}
}

func (c *Cache) TickSize(tokenID string) (rounding.TickSize, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tickSizes[tokenID]
	return t, ok
}

func (c *Cache) SetTickSize(tokenID string, t rounding.TickSize) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickSizes[tokenID] = t
}

func (c *Cache) NegRisk(tokenID string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.negRisk[tokenID]
	return v, ok
}

func (c *Cache) SetNegRisk(tokenID string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negRisk[tokenID] = v
}

func (c *Cache) FeeRateBps(tokenID string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.feeRates[tokenID]
	return v, ok
}

func (c *Cache) SetFeeRateBps(tokenID string, v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeRates[tokenID] = v
}

// Invalidate forgets everything known about tokenID.
func (c *Cache) Invalidate(tokenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickSizes, tokenID)
	delete(c.negRisk, tokenID)
	delete(c.feeRates, tokenID)
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickSizes = make(map[string]rounding.TickSize)
	c.negRisk = make(map[string]bool)
	c.feeRates = make(map[string]int64)
}

// Len returns the number of tokens with at least one cached fact.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range c.tickSizes {
		seen[k] = struct{}{}
	}
	for k := range c.negRisk {
		seen[k] = struct{}{}
	}
	for k := range c.feeRates {
		seen[k] = struct{}{}
	}
	return len(seen)
}

// CachedVenue reads market facts through a Cache. Books and order posts
// always go to the underlying venue, and venue errors are never cached.
type CachedVenue struct {
	next  Venue
	cache *Cache
	log   *zap.SugaredLogger
}

var _ Venue = (*CachedVenue)(nil)

func NewCachedVenue(next Venue, cache *Cache, log *zap.SugaredLogger) *CachedVenue {
	if cache == nil {
		cache = NewCache()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CachedVenue{next: next, cache: cache, log: log}
}

func (v *CachedVenue) Cache() *Cache { return v.cache }

func (v *CachedVenue) TickSize(ctx context.Context, tokenID string) (rounding.TickSize, error) {
	if t, ok := v.cache.TickSize(tokenID); ok {
		return t, nil
	}
	t, err := v.next.TickSize(ctx, tokenID)
	if err != nil {
		return "", err
	}
	v.cache.SetTickSize(tokenID, t)
	v.log.Debugw("tick_size_cached", "token_id", tokenID, "tick_size", t)
	return t, nil
}

func (v *CachedVenue) NegRisk(ctx context.Context, tokenID string) (bool, error) {
	if nr, ok := v.cache.NegRisk(tokenID); ok {
		return nr, nil
	}
	nr, err := v.next.NegRisk(ctx, tokenID)
	if err != nil {
		return false, err
	}
	v.cache.SetNegRisk(tokenID, nr)
	v.log.Debugw("neg_risk_cached", "token_id", tokenID, "neg_risk", nr)
	return nr, nil
}

func (v *CachedVenue) FeeRateBps(ctx context.Context, tokenID string) (int64, error) {
	if fee, ok := v.cache.FeeRateBps(tokenID); ok {
		return fee, nil
	}
	fee, err := v.next.FeeRateBps(ctx, tokenID)
	if err != nil {
		return 0, err
	}
	v.cache.SetFeeRateBps(tokenID, fee)
	v.log.Debugw("fee_rate_cached", "token_id", tokenID, "fee_rate_bps", fee)
	return fee, nil
}

func (v *CachedVenue) OrderBook(ctx context.Context, tokenID string) (*order.OrderBookSummary, error) {
	return v.next.OrderBook(ctx, tokenID)
}

func (v *CachedVenue) PostOrder(ctx context.Context, req order.PostOrderRequest, headers http.Header) (*OrderAccepted, error) {
	return v.next.PostOrder(ctx, req, headers)
}
