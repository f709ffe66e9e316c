package geo

import (
	"sort"
	"sync/atomic"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Region is one administrative region polygon (a Russian federal subject),
// possibly multi-part to cover enclaves and exclaves. Immutable once loaded.
type Region struct {
	Code            string
	Name            string
	FederalDistrict string
	Geometry        orb.MultiPolygon
}

// regionEntry pairs a region with its precomputed bounding box used as the
// coarse prefilter before exact containment testing.
type regionEntry struct {
	region Region
	bound  orb.Bound
}

// snapshot is one fully-built, immutable generation of the index.
type snapshot struct {
	version string
	entries []regionEntry
}

// RegionIndex answers point-containment queries against the active region
// snapshot. Reload builds a new snapshot off to the side and swaps the
// active pointer, so concurrent Locate calls never observe a half-built
// index.
type RegionIndex struct {
	snap atomic.Pointer[snapshot]
}

// NewRegionIndex returns an empty index. Until the first Reload, Locate
// returns no region for every point.
func NewRegionIndex() *RegionIndex {
	idx := &RegionIndex{}
	idx.snap.Store(&snapshot{})
	return idx
}

// Reload replaces the active snapshot with one built from the given
// regions, tagged with the shapefile version. Safe to call concurrently
// with ongoing lookups; in-flight Locate calls finish against the snapshot
// they started with.
func (x *RegionIndex) Reload(regions []Region, version string) {
	entries := make([]regionEntry, 0, len(regions))
	for _, r := range regions {
		entries = append(entries, regionEntry{region: r, bound: r.Geometry.Bound()})
	}
	// Ascending region code is the documented border tie-break: the first
	// region whose boundary test passes wins, identically across runs.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].region.Code < entries[j].region.Code
	})
	x.snap.Store(&snapshot{version: version, entries: entries})
}

// Version returns the shapefile version tag of the active snapshot.
func (x *RegionIndex) Version() string {
	return x.snap.Load().version
}

// Len returns the number of regions in the active snapshot.
func (x *RegionIndex) Len() int {
	return len(x.snap.Load().entries)
}

// Regions returns copies of the regions in the active snapshot, in
// tie-break order.
func (x *RegionIndex) Regions() []Region {
	snap := x.snap.Load()
	out := make([]Region, len(snap.entries))
	for i, e := range snap.entries {
		out[i] = e.region
	}
	return out
}

// locate resolves a point against this snapshot only. Exact containment,
// no buffer: bounding-box prefilter first, then ring containment honouring
// holes (a point inside a hole is outside the region). Points on a shared
// border go to the lowest region code whose test reports on-or-inside.
func (s *snapshot) locate(lat, lon float64) (Region, bool) {
	p := orb.Point{lon, lat}
	for _, e := range s.entries {
		if !e.bound.Contains(p) {
			continue
		}
		if planar.MultiPolygonContains(e.region.Geometry, p) {
			return e.region, true
		}
	}
	return Region{}, false
}

// Locate resolves a WGS84 point to the containing region of the active
// snapshot. Returns false when no region contains the point.
func (x *RegionIndex) Locate(lat, lon float64) (Region, bool) {
	return x.snap.Load().locate(lat, lon)
}

// DistanceKm returns the great-circle distance in kilometres between two
// decimal-degree points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000.0
}
