package geo

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QuantizePrecision is the number of decimal degrees kept in cache keys.
// Six decimals is roughly 0.11 m at the equator, well below any region
// boundary feature, so quantisation never crosses a boundary spuriously.
const QuantizePrecision = 1e6

// DefaultCacheSize bounds the number of memoised point lookups.
const DefaultCacheSize = 100_000

// Locator resolves a point to a region. Implemented by RegionIndex and by
// GeocodeCache in front of it.
type Locator interface {
	Locate(lat, lon float64) (Region, bool)
}

// cacheKey is a quantised point plus the shapefile version it was resolved
// against. A reload changes the version component, making prior entries
// unreachable without a sweep.
type cacheKey struct {
	lat, lon int64
	version  string
}

// cacheValue memoises both positive and negative lookups; repeated misses
// over international waters are as expensive as hits otherwise.
type cacheValue struct {
	region Region
	found  bool
}

// GeocodeCache memoises RegionIndex lookups. Reads never block on writes
// from other keys; a racing duplicate recomputation is acceptable because
// the index is pure for a fixed version.
type GeocodeCache struct {
	index *RegionIndex
	lru   *lru.Cache[cacheKey, cacheValue]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewGeocodeCache wraps the region index with an LRU of the given size.
// Size <= 0 uses DefaultCacheSize.
func NewGeocodeCache(index *RegionIndex, size int) (*GeocodeCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, cacheValue](size)
	if err != nil {
		return nil, err
	}
	return &GeocodeCache{index: index, lru: c}, nil
}

// quantize snaps a coordinate to the cache precision.
func quantize(v float64) int64 {
	if v < 0 {
		return int64(v*QuantizePrecision - 0.5)
	}
	return int64(v*QuantizePrecision + 0.5)
}

// Locate resolves a point via the cache, querying the region index on a
// miss and storing the result (including negative results). The snapshot
// is loaded once so the key's version and the stored result always belong
// to the same region set, even when a reload lands mid-lookup.
func (c *GeocodeCache) Locate(lat, lon float64) (Region, bool) {
	snap := c.index.snap.Load()
	key := cacheKey{lat: quantize(lat), lon: quantize(lon), version: snap.version}

	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v.region, v.found
	}

	region, found := snap.locate(lat, lon)
	c.lru.Add(key, cacheValue{region: region, found: found})
	c.misses.Add(1)
	return region, found
}

// Invalidate evicts every entry tagged with the given shapefile version.
// Entries from other versions are untouched. Returns the number evicted.
func (c *GeocodeCache) Invalidate(version string) int {
	evicted := 0
	for _, key := range c.lru.Keys() {
		if key.version == version {
			if c.lru.Remove(key) {
				evicted++
			}
		}
	}
	return evicted
}

// Purge drops every cached entry.
func (c *GeocodeCache) Purge() {
	c.lru.Purge()
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Stats returns a snapshot of the cache counters.
func (c *GeocodeCache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.lru.Len(),
	}
}
