// Package geo provides coordinate normalisation, the region spatial index,
// and the geocode cache for attributing WGS84 points to Russian federal
// subjects.
package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedCoordinate is wrapped by every coordinate parse failure.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// dmsRe matches degree-minute(-second) tokens with hemisphere letters:
// DDMM[SS]N DDDMM[SS]E, e.g. "5557N03731E" or "555712N0373108E".
var dmsRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})?([NS])(\d{3})(\d{2})(\d{2})?([EW])$`)

// decimalRe matches a signed decimal-degree pair separated by whitespace
// or a comma, e.g. "55.9571 37.5183" or "-33.86,151.21".
var decimalRe = regexp.MustCompile(`^([+-]?\d{1,3}(?:\.\d+)?)[,\s]+([+-]?\d{1,3}(?:\.\d+)?)$`)

// ParseCoordinate normalises a coordinate token in either degree-minute
// or decimal notation into a signed decimal-degree (lat, lon) pair.
// Pure function; fails with an ErrMalformedCoordinate-wrapped error on a
// missing/invalid hemisphere letter, out-of-range components, or a failed
// numeric parse.
func ParseCoordinate(token string) (lat, lon float64, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, 0, fmt.Errorf("%w: empty token", ErrMalformedCoordinate)
	}

	if m := dmsRe.FindStringSubmatch(token); m != nil {
		lat, err = dmsToDecimal(m[1], m[2], m[3], m[4])
		if err != nil {
			return 0, 0, err
		}
		lon, err = dmsToDecimal(m[5], m[6], m[7], m[8])
		if err != nil {
			return 0, 0, err
		}
		return lat, lon, nil
	}

	if m := decimalRe.FindStringSubmatch(token); m != nil {
		lat, err = strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
		}
		lon, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return 0, 0, fmt.Errorf("%w: %s out of range", ErrMalformedCoordinate, token)
		}
		return lat, lon, nil
	}

	return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, token)
}

// dmsToDecimal converts degree/minute/second strings plus a hemisphere
// letter to signed decimal degrees.
func dmsToDecimal(degStr, minStr, secStr, hemi string) (float64, error) {
	deg, err := strconv.Atoi(degStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
	}
	min, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
	}
	sec := 0
	if secStr != "" {
		sec, err = strconv.Atoi(secStr)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedCoordinate, err)
		}
	}
	if min > 59 || sec > 59 {
		return 0, fmt.Errorf("%w: minute/second out of range in %s%s%s%s", ErrMalformedCoordinate, degStr, minStr, secStr, hemi)
	}

	val := float64(deg) + float64(min)/60.0 + float64(sec)/3600.0

	switch hemi {
	case "N":
		if val > 90 {
			return 0, fmt.Errorf("%w: latitude %v out of range", ErrMalformedCoordinate, val)
		}
	case "S":
		if val > 90 {
			return 0, fmt.Errorf("%w: latitude %v out of range", ErrMalformedCoordinate, val)
		}
		val = -val
	case "E":
		if val > 180 {
			return 0, fmt.Errorf("%w: longitude %v out of range", ErrMalformedCoordinate, val)
		}
	case "W":
		if val > 180 {
			return 0, fmt.Errorf("%w: longitude %v out of range", ErrMalformedCoordinate, val)
		}
		val = -val
	default:
		return 0, fmt.Errorf("%w: hemisphere %q", ErrMalformedCoordinate, hemi)
	}
	return val, nil
}

// FormatDMS renders a decimal-degree pair back into the degree-minute
// telegram notation (DDMMSSN DDDMMSSE, without a separator).
func FormatDMS(lat, lon float64) string {
	latHemi, lonHemi := "N", "E"
	if lat < 0 {
		lat, latHemi = -lat, "S"
	}
	if lon < 0 {
		lon, lonHemi = -lon, "W"
	}
	latDeg := int(lat)
	latRem := (lat - float64(latDeg)) * 60
	latMin := int(latRem)
	latSec := int((latRem-float64(latMin))*60 + 0.5)
	if latSec == 60 {
		latSec = 0
		latMin++
	}
	lonDeg := int(lon)
	lonRem := (lon - float64(lonDeg)) * 60
	lonMin := int(lonRem)
	lonSec := int((lonRem-float64(lonMin))*60 + 0.5)
	if lonSec == 60 {
		lonSec = 0
		lonMin++
	}
	return fmt.Sprintf("%02d%02d%02d%s%03d%02d%02d%s",
		latDeg, latMin, latSec, latHemi, lonDeg, lonMin, lonSec, lonHemi)
}
