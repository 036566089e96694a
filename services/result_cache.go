package services

import (
	"fmt"
	"strconv"
	"time"

	"pricewatch/models"

	cache "github.com/go-pkgz/expirable-cache"
)

// ResultCache memoizes final price results per (url, user price). Entries
// expire after the TTL and the key count is capped with LRU eviction.
type ResultCache struct {
	entries cache.Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewResultCache creates a bounded cache
func NewResultCache(ttl time.Duration, maxKeys int) (*ResultCache, error) {
	entries, err := cache.NewCache(cache.MaxKeys(maxKeys), cache.LRU(), cache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// CacheKey builds the key for a url and optional user price
func CacheKey(rawURL string, userPrice *float64) string {
	price := "none"
	if userPrice != nil {
		price = strconv.FormatFloat(*userPrice, 'f', -1, 64)
	}
	return rawURL + "|" + price
}

// Get returns a live entry. Stale entries are dropped on lookup.
func (c *ResultCache) Get(rawURL string, userPrice *float64) (*models.ValidatedOutcome, bool) {
	key := CacheKey(rawURL, userPrice)
	value, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	entry, ok := value.(models.CacheEntry)
	if !ok || entry.Expired(c.now()) {
		c.entries.Invalidate(key)
		return nil, false
	}

	return cloneOutcome(entry.Value), true
}

// Set stores a result, replacing any entry for the same key
func (c *ResultCache) Set(rawURL string, userPrice *float64, value *models.ValidatedOutcome) {
	c.entries.Set(CacheKey(rawURL, userPrice), models.CacheEntry{
		Value:     cloneOutcome(value),
		ExpiresAt: c.now().Add(c.ttl),
	}, c.ttl)
}

// Sweep removes expired entries and returns how many were dropped
func (c *ResultCache) Sweep() int {
	before := c.entries.Len()
	now := c.now()
	for _, key := range c.entries.Keys() {
		value, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		if entry, ok := value.(models.CacheEntry); !ok || entry.Expired(now) {
			c.entries.Invalidate(key)
		}
	}
	c.entries.DeleteExpired()
	return before - c.entries.Len()
}

// Len returns the number of cached keys
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// cloneOutcome copies the outcome and every pointer field so cache hits
// never share memory with callers
func cloneOutcome(v *models.ValidatedOutcome) *models.ValidatedOutcome {
	out := *v
	out.Price = clonePrice(v.Price)
	out.ScrapedPrice = clonePrice(v.ScrapedPrice)
	out.UserPrice = clonePrice(v.UserPrice)
	out.DiffPercent = clonePrice(v.DiffPercent)
	return &out
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return models.Float64Ptr(*p)
}
