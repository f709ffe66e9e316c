package geo

import (
	"errors"
	"math"
	"testing"
)

// almostEqual checks if two floats are equal within a tolerance.
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestParseCoordinateDMS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
	}{
		{
			name:    "degree minute",
			input:   "5557N03731E",
			wantLat: 55.95,     // 55 + 57/60
			wantLon: 37.516667, // 37 + 31/60
		},
		{
			name:    "degree minute second",
			input:   "555712N0373108E",
			wantLat: 55.953333, // 55 + 57/60 + 12/3600
			wantLon: 37.518889, // 37 + 31/60 + 8/3600
		},
		{
			name:    "southern western hemispheres",
			input:   "3352S15113W",
			wantLat: -33.866667,
			wantLon: -151.216667,
		},
		{
			name:    "equator and prime meridian",
			input:   "0000N00000E",
			wantLat: 0,
			wantLon: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseCoordinate(tt.input)
			if err != nil {
				t.Fatalf("ParseCoordinate(%q) error: %v", tt.input, err)
			}
			if !almostEqual(lat, tt.wantLat, 0.0001) {
				t.Errorf("lat = %v, want %v", lat, tt.wantLat)
			}
			if !almostEqual(lon, tt.wantLon, 0.0001) {
				t.Errorf("lon = %v, want %v", lon, tt.wantLon)
			}
		})
	}
}

func TestParseCoordinateDecimal(t *testing.T) {
	tests := []struct {
		input   string
		wantLat float64
		wantLon float64
	}{
		{"55.9571 37.5183", 55.9571, 37.5183},
		{"-33.86,151.21", -33.86, 151.21},
		{"55.9571, 37.5183", 55.9571, 37.5183},
		{"0 0", 0, 0},
	}

	for _, tt := range tests {
		lat, lon, err := ParseCoordinate(tt.input)
		if err != nil {
			t.Errorf("ParseCoordinate(%q) error: %v", tt.input, err)
			continue
		}
		if !almostEqual(lat, tt.wantLat, 1e-9) || !almostEqual(lon, tt.wantLon, 1e-9) {
			t.Errorf("ParseCoordinate(%q) = %v, %v, want %v, %v", tt.input, lat, lon, tt.wantLat, tt.wantLon)
		}
	}
}

func TestParseCoordinateMalformed(t *testing.T) {
	inputs := []string{
		"",
		"5557X03731E",        // bad hemisphere letter
		"5577N03731E",        // minutes out of range
		"9557N03731E",        // latitude out of range
		"5557N19131E",        // longitude out of range
		"95.0 37.5",          // decimal latitude out of range
		"55.0 181.0",         // decimal longitude out of range
		"UUEE1200",           // not a coordinate
		"5557N",              // latitude only
		"555712N037310E",     // truncated longitude seconds
	}

	for _, input := range inputs {
		_, _, err := ParseCoordinate(input)
		if err == nil {
			t.Errorf("ParseCoordinate(%q) parsed, want error", input)
			continue
		}
		if !errors.Is(err, ErrMalformedCoordinate) {
			t.Errorf("ParseCoordinate(%q) error = %v, want ErrMalformedCoordinate", input, err)
		}
	}
}

func TestFormatDMSRoundTrip(t *testing.T) {
	tokens := []string{
		"555712N0373108E",
		"343348S1512335E",
		"000000N0000000E",
		"120000N0453000W",
	}

	for _, token := range tokens {
		lat, lon, err := ParseCoordinate(token)
		if err != nil {
			t.Fatalf("ParseCoordinate(%q) error: %v", token, err)
		}
		if got := FormatDMS(lat, lon); got != token {
			t.Errorf("FormatDMS(ParseCoordinate(%q)) = %q", token, got)
		}
	}
}
