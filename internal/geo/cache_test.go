package geo

import (
	"sync"
	"testing"
)

func newTestCache(t *testing.T, idx *RegionIndex, size int) *GeocodeCache {
	t.Helper()
	cache, err := NewGeocodeCache(idx, size)
	if err != nil {
		t.Fatalf("NewGeocodeCache: %v", err)
	}
	return cache
}

func TestCacheAgreesWithIndex(t *testing.T) {
	idx := testIndex()
	cache := newTestCache(t, idx, 16)

	points := []struct{ lat, lon float64 }{
		{55.5, 37.5},
		{55.5, 38.5},
		{10.0, 10.0},
	}

	for _, p := range points {
		wantRegion, wantOK := idx.Locate(p.lat, p.lon)
		gotRegion, gotOK := cache.Locate(p.lat, p.lon)
		if gotOK != wantOK || gotRegion.Code != wantRegion.Code {
			t.Errorf("cache.Locate(%v, %v) = %q, %v, index gives %q, %v",
				p.lat, p.lon, gotRegion.Code, gotOK, wantRegion.Code, wantOK)
		}
	}
}

func TestCacheHitsAndMisses(t *testing.T) {
	cache := newTestCache(t, testIndex(), 16)

	cache.Locate(55.5, 37.5)
	cache.Locate(55.5, 37.5)
	cache.Locate(55.5, 37.5)

	stats := cache.Stats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}

func TestCacheNegativeResultsCached(t *testing.T) {
	cache := newTestCache(t, testIndex(), 16)

	if _, ok := cache.Locate(10.0, 10.0); ok {
		t.Fatal("point outside all regions resolved")
	}
	if _, ok := cache.Locate(10.0, 10.0); ok {
		t.Fatal("point outside all regions resolved on second lookup")
	}

	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want one miss then one hit", stats)
	}
}

func TestCacheVersionedKeys(t *testing.T) {
	idx := testIndex()
	cache := newTestCache(t, idx, 16)

	region, ok := cache.Locate(55.5, 37.5)
	if !ok || region.Code != "RU-MOW" {
		t.Fatalf("Locate = %q, %v, want RU-MOW", region.Code, ok)
	}

	// After a reload the point belongs to a different region; stale entries
	// must not answer for the new version.
	idx.Reload([]Region{
		{Code: "RU-NEW", Name: "New", Geometry: square(37.0, 55.0, 38.0, 56.0)},
	}, "v2")

	region, ok = cache.Locate(55.5, 37.5)
	if !ok || region.Code != "RU-NEW" {
		t.Errorf("Locate after reload = %q, %v, want RU-NEW", region.Code, ok)
	}
}

func TestCacheNoCrossVersionEntries(t *testing.T) {
	regionsV1 := []Region{
		{Code: "RU-A", Name: "A", Geometry: square(37.0, 55.0, 38.0, 56.0)},
	}
	regionsV2 := []Region{
		{Code: "RU-B", Name: "B", Geometry: square(37.0, 55.0, 38.0, 56.0)},
	}

	idx := NewRegionIndex()
	idx.Reload(regionsV1, "v1")
	cache := newTestCache(t, idx, 1024)

	// Hammer one point while the index flips between versions. Every cached
	// entry must hold the answer of the region set its key names.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				idx.Reload(regionsV2, "v2")
			} else {
				idx.Reload(regionsV1, "v1")
			}
		}
	}()

	for i := 0; i < 200_000; i++ {
		cache.Locate(55.5, 37.5)
		if i%100 == 99 {
			cache.Purge()
		}
	}
	close(done)
	wg.Wait()

	wantByVersion := map[string]string{"v1": "RU-A", "v2": "RU-B"}
	for _, key := range cache.lru.Keys() {
		v, ok := cache.lru.Get(key)
		if !ok {
			continue
		}
		want := wantByVersion[key.version]
		if !v.found || v.region.Code != want {
			t.Fatalf("entry for version %s holds %q, want %q", key.version, v.region.Code, want)
		}
	}
}

func TestCacheInvalidate(t *testing.T) {
	idx := testIndex()
	cache := newTestCache(t, idx, 16)

	cache.Locate(55.5, 37.5)
	cache.Locate(55.5, 38.5)

	if evicted := cache.Invalidate("v1"); evicted != 2 {
		t.Errorf("Invalidate(v1) = %d, want 2", evicted)
	}
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Errorf("Entries after invalidate = %d, want 0", stats.Entries)
	}

	if evicted := cache.Invalidate("v1"); evicted != 0 {
		t.Errorf("second Invalidate(v1) = %d, want 0", evicted)
	}
}

func TestCachePurge(t *testing.T) {
	cache := newTestCache(t, testIndex(), 16)

	cache.Locate(55.5, 37.5)
	cache.Purge()
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Errorf("Entries after purge = %d, want 0", stats.Entries)
	}
}
