// Package cache memoizes filtered views of the data set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sells-group/where2work/internal/dataset"
	"github.com/sells-group/where2work/internal/filter"
	"github.com/sells-group/where2work/internal/model"
)

// Key derives a cache key from a data set version and a selection.
func Key(version string, sel filter.Selection) string {
	hash := sha256.Sum256([]byte(version + "\x00" + sel.Key()))
	return "where2work:v1:" + hex.EncodeToString(hash[:])
}

// ViewCache holds filtered record slices keyed by data version and selection.
// Entries for an old data version simply expire.
type ViewCache struct {
	cache *gocache.Cache
}

// NewViewCache creates a cache. A zero ttl disables caching.
func NewViewCache(ttl, cleanupInterval time.Duration) *ViewCache {
	if ttl <= 0 {
		return &ViewCache{}
	}
	return &ViewCache{cache: gocache.New(ttl, cleanupInterval)}
}

// Get retrieves a cached view.
func (c *ViewCache) Get(key string) ([]model.Company, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	if val, found := c.cache.Get(key); found {
		return val.([]model.Company), true
	}
	return nil, false
}

// Set stores a view with the default TTL.
func (c *ViewCache) Set(key string, records []model.Company) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.SetDefault(key, records)
}

// Filter returns the records of d matching sel, computing and caching on a miss.
func (c *ViewCache) Filter(d *dataset.Dataset, sel filter.Selection) []model.Company {
	key := Key(d.Version, sel)
	if records, ok := c.Get(key); ok {
		return records
	}
	records := filter.Apply(d.Records(), sel)
	c.Set(key, records)
	return records
}

// Len returns the number of cached views, including expired ones not yet cleaned up.
func (c *ViewCache) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// Flush removes every cached view.
func (c *ViewCache) Flush() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Flush()
}
