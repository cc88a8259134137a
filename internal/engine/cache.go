package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/litescript/ls-armillary/internal/astro"
)

// DefaultCacheSize bounds a RiseSetCache created with a non-positive size.
const DefaultCacheSize = 512

// RiseSetKey identifies one day's scan at one place, as displayed in one
// zone. Coordinates are rounded to 1e-4° so float noise does not split
// entries.
type RiseSetKey struct {
	Day  int
	Year int
	Lat  float64
	Lon  float64
	TZ   string
}

// NewRiseSetKey builds a key with rounded coordinates.
func NewRiseSetKey(year, dayOfYear int, loc astro.GeoLocation, tz string) RiseSetKey {
	return RiseSetKey{
		Day:  dayOfYear,
		Year: year,
		Lat:  roundCoord(loc.LatDeg),
		Lon:  roundCoord(loc.LonDeg),
		TZ:   tz,
	}
}

func roundCoord(deg float64) float64 {
	return math.Round(deg*1e4) / 1e4
}

// RiseSetEntry is a cached scan result.
type RiseSetEntry struct {
	RiseSet      astro.RiseSet
	Local        astro.LocalTimes
	Approximated bool // zone offset estimated from longitude
	Trace        []astro.AltitudeSample
}

// RiseSetStore is a second-level, usually persistent, rise/set cache.
type RiseSetStore interface {
	LoadRiseSet(ctx context.Context, key RiseSetKey) (RiseSetEntry, error)
	SaveRiseSet(ctx context.Context, key RiseSetKey, entry RiseSetEntry) error
}

// RiseSetCache memoizes rise/set scans. It is owned by the caller and safe
// for concurrent use. When full, the oldest entry is evicted.
type RiseSetCache struct {
	mu      sync.RWMutex
	entries map[RiseSetKey]RiseSetEntry
	order   []RiseSetKey // insertion order for eviction
	max     int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRiseSetCache creates a cache holding at most size entries.
func NewRiseSetCache(size int) *RiseSetCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &RiseSetCache{
		entries: make(map[RiseSetKey]RiseSetEntry, size),
		max:     size,
	}
}

// Get returns the entry for key.
func (c *RiseSetCache) Get(key RiseSetKey) (RiseSetEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Put stores an entry, replacing any previous value for key.
func (c *RiseSetCache) Put(key RiseSetKey, e RiseSetEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = e
}

// Len returns the number of cached entries.
func (c *RiseSetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *RiseSetCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Clear removes all entries.
func (c *RiseSetCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[RiseSetKey]RiseSetEntry, c.max)
	c.order = nil
	c.mu.Unlock()
}
