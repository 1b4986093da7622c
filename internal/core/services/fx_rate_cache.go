package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	portssvc "github.com/statera-app/statera/internal/core/ports/services"
)

type fxCacheEntry struct {
	rate     decimal.Decimal
	cachedAt time.Time
}

// FxRateCache memoizes an FxRateProvider per (pair, day) with a TTL, so a
// statement import does not hit the upstream source once per line.
type FxRateCache struct {
	upstream   portssvc.FxRateProvider
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]fxCacheEntry
}

// NewFxRateCache wraps upstream with a TTL cache bounded to maxEntries.
func NewFxRateCache(upstream portssvc.FxRateProvider, ttl time.Duration, maxEntries int) *FxRateCache {
	return &FxRateCache{
		upstream:   upstream,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]fxCacheEntry),
	}
}

var _ portssvc.FxRateProvider = (*FxRateCache)(nil)

// GetRate returns the cached rate for the pair and day, falling back to the
// upstream provider on a miss or an expired entry. Upstream errors are never
// cached.
func (c *FxRateCache) GetRate(ctx context.Context, fromCurrency, toCurrency string, on time.Time) (decimal.Decimal, error) {
	key := fromCurrency + "/" + toCurrency + "@" + on.UTC().Format("2006-01-02")

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.cachedAt) < c.ttl {
		c.mu.Unlock()
		return entry.rate, nil
	}
	c.mu.Unlock()

	rate, err := c.upstream.GetRate(ctx, fromCurrency, toCurrency, on)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = fxCacheEntry{rate: rate, cachedAt: time.Now()}
	return rate, nil
}

// Clear drops every cached rate. Exposed for admin-triggered refreshes after
// an upstream correction.
func (c *FxRateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]fxCacheEntry)
}

// Len returns the number of cached rates, expired or not.
func (c *FxRateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *FxRateCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.cachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
