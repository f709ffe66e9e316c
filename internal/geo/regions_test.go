package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

// square builds a single-ring square polygon from (minLon,minLat) to
// (maxLon,maxLat).
func square(minLon, minLat, maxLon, maxLat float64) orb.MultiPolygon {
	return orb.MultiPolygon{{
		{
			{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
		},
	}}
}

func testIndex() *RegionIndex {
	idx := NewRegionIndex()
	idx.Reload([]Region{
		{Code: "RU-MOW", Name: "Moscow", FederalDistrict: "Central", Geometry: square(37.0, 55.0, 38.0, 56.0)},
		{Code: "RU-MOS", Name: "Moscow Oblast", FederalDistrict: "Central", Geometry: square(38.0, 55.0, 39.0, 56.0)},
	}, "v1")
	return idx
}

func TestLocate(t *testing.T) {
	idx := testIndex()

	tests := []struct {
		name     string
		lat, lon float64
		wantCode string
		wantOK   bool
	}{
		{"inside first region", 55.5, 37.5, "RU-MOW", true},
		{"inside second region", 55.5, 38.5, "RU-MOS", true},
		{"outside all regions", 10.0, 10.0, "", false},
		{"north of both", 60.0, 37.5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := idx.Locate(tt.lat, tt.lon)
			if ok != tt.wantOK {
				t.Fatalf("Locate(%v, %v) ok = %v, want %v", tt.lat, tt.lon, ok, tt.wantOK)
			}
			if region.Code != tt.wantCode {
				t.Errorf("Locate(%v, %v) = %q, want %q", tt.lat, tt.lon, region.Code, tt.wantCode)
			}
		})
	}
}

func TestLocateBorderTieBreak(t *testing.T) {
	idx := testIndex()

	// The shared edge at lon 38.0 belongs to both squares; the lower region
	// code must win, deterministically.
	region, ok := idx.Locate(55.5, 38.0)
	if !ok {
		t.Fatal("Locate on shared border found no region")
	}
	if region.Code != "RU-MOS" {
		t.Errorf("border point resolved to %q, want %q", region.Code, "RU-MOS")
	}
}

func TestLocateHonoursHoles(t *testing.T) {
	outer := orb.Ring{{30, 50}, {40, 50}, {40, 60}, {30, 60}, {30, 50}}
	hole := orb.Ring{{34, 54}, {36, 54}, {36, 56}, {34, 56}, {34, 54}}

	idx := NewRegionIndex()
	idx.Reload([]Region{
		{Code: "RU-XXX", Name: "Ring", Geometry: orb.MultiPolygon{{outer, hole}}},
	}, "v1")

	if _, ok := idx.Locate(55.0, 35.0); ok {
		t.Error("point inside hole resolved to the region, want none")
	}
	if region, ok := idx.Locate(52.0, 32.0); !ok || region.Code != "RU-XXX" {
		t.Errorf("point in ring body = %v, %v, want RU-XXX", region.Code, ok)
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	idx := testIndex()
	if idx.Version() != "v1" {
		t.Fatalf("Version = %q, want v1", idx.Version())
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}

	idx.Reload([]Region{
		{Code: "RU-SPE", Name: "Saint Petersburg", Geometry: square(30.0, 59.5, 31.0, 60.5)},
	}, "v2")

	if idx.Version() != "v2" {
		t.Errorf("Version = %q, want v2", idx.Version())
	}
	if _, ok := idx.Locate(55.5, 37.5); ok {
		t.Error("point from the old snapshot still resolves after reload")
	}
	if region, ok := idx.Locate(60.0, 30.5); !ok || region.Code != "RU-SPE" {
		t.Errorf("Locate after reload = %v, %v, want RU-SPE", region.Code, ok)
	}
}

func TestRegionsOrdered(t *testing.T) {
	idx := testIndex()
	regions := idx.Regions()
	if len(regions) != 2 {
		t.Fatalf("Regions() returned %d regions, want 2", len(regions))
	}
	if regions[0].Code != "RU-MOS" || regions[1].Code != "RU-MOW" {
		t.Errorf("Regions() order = %q, %q, want RU-MOS, RU-MOW", regions[0].Code, regions[1].Code)
	}
}

func TestDistanceKm(t *testing.T) {
	// Moscow Sheremetyevo to Domodedovo, roughly 74 km.
	d := DistanceKm(55.9726, 37.4146, 55.4088, 37.9063)
	if d < 68 || d > 76 {
		t.Errorf("DistanceKm = %v, want roughly 72", d)
	}

	if d := DistanceKm(55.0, 37.0, 55.0, 37.0); d != 0 {
		t.Errorf("zero distance = %v, want 0", d)
	}
}
