package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property name aliases seen across region shapefile exports. The first
// populated alias wins.
var (
	nameAliases     = []string{"NAME", "REGION_NAME", "name"}
	codeAliases     = []string{"CODE", "REGION_CODE", "code"}
	districtAliases = []string{"FED_DIST", "FEDERAL_DISTRICT", "federal_district"}
)

// RegionsFromGeoJSON parses a GeoJSON feature collection (the shapefile
// collaborator converts Rosreestr shapefiles to GeoJSON) into the region
// set for a Reload. Features missing a name or code are skipped; a feature
// with a non-areal geometry is an error.
func RegionsFromGeoJSON(data []byte) ([]Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse region geojson: %w", err)
	}

	regions := make([]Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := firstProperty(f.Properties, nameAliases)
		code := firstProperty(f.Properties, codeAliases)
		if name == "" || code == "" {
			continue
		}

		var geom orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			geom = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			geom = g
		default:
			return nil, fmt.Errorf("region feature %d (%s): geometry %T is not areal", i, code, f.Geometry)
		}

		regions = append(regions, Region{
			Code:            code,
			Name:            name,
			FederalDistrict: firstProperty(f.Properties, districtAliases),
			Geometry:        geom,
		})
	}
	return regions, nil
}

func firstProperty(props geojson.Properties, aliases []string) string {
	for _, key := range aliases {
		if v := props.MustString(key, ""); v != "" {
			return v
		}
	}
	return ""
}
