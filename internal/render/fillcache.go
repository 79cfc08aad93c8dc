package render

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// fillKey identifies one colouring of the polygon set: a snapshot date under
// a display mode.
type fillKey struct {
	date domain.Date
	mode Mode
}

// FillCache memoises target fills per (snapshot date, mode) and is safe for
// concurrent use. Fills are stored in feature order, so a cache may only be
// shared by renderers initialised with the same feature slice.
type FillCache struct {
	lru *lru.Cache[fillKey, []Fill]
}

// NewFillCache creates a cache holding up to maxEntries colourings. A
// non-positive size disables caching.
func NewFillCache(maxEntries int) *FillCache {
	if maxEntries <= 0 {
		return nil
	}
	c, err := lru.New[fillKey, []Fill](maxEntries)
	if err != nil {
		return nil
	}
	return &FillCache{lru: c}
}

func (c *FillCache) get(k fillKey) ([]Fill, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(k)
}

func (c *FillCache) put(k fillKey, fills []Fill) {
	if c == nil {
		return
	}
	c.lru.Add(k, fills)
}

// Len reports the number of cached colourings.
func (c *FillCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
