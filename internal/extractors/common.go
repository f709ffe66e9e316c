package extractors

import (
	"regexp"
	"strings"

	"telegram_parser/internal/geo"
	"telegram_parser/internal/telegram"
)

var (
	// UUDD1200 -> aerodrome UUDD, time 1200.
	airportTimeRe = regexp.MustCompile(`^([A-Z][A-Z0-9]{3})(\d{4})$`)

	// Bare 4-char ICAO code.
	icaoRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)

	// Degree-minute(-second) coordinate token inside free text.
	coordTokenRe = regexp.MustCompile(`\b\d{4}(?:\d{2})?[NS]\d{5}(?:\d{2})?[EW]\b`)

	// Decimal coordinate pair inside free text.
	decimalPairRe = regexp.MustCompile(`[+-]?\d{1,3}\.\d{1,6}[,\s]+[+-]?\d{1,3}\.\d{1,6}`)

	// Standalone altitude: F050 / FL050 / A050, hundreds of feet.
	altitudeRe = regexp.MustCompile(`\b(?:FL|F|A)(\d{3})\b`)

	// Combined cruise speed and level, e.g. N0100F050. No word boundary
	// separates the speed digits from the level letter, so the standalone
	// patterns cannot see inside this token.
	speedLevelRe = regexp.MustCompile(`\bN(\d{4})(?:(?:FL|F|A)(\d{3}))?\b`)

	dofRe = regexp.MustCompile(`^DOF/(\d{6})$`)
	oprRe = regexp.MustCompile(`^OPR/(.+)$`)
	regRe = regexp.MustCompile(`^REG/([A-Z]{1,2}[A-Z0-9]{1,5})$`)
	rmkRe = regexp.MustCompile(`^RMK/(.+)$`)
)

// extractFlightID validates and assigns the flight identifier from the
// first structured field.
func extractFlightID(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	id := tok.Field(0)
	if id == "" {
		msg.AddError("flight_id", telegram.ErrMissingRequiredField, "")
		return
	}
	if len(id) > telegram.MaxFlightIDLen {
		msg.AddError("flight_id", telegram.ErrFlightIDTooLong, id)
	}
	msg.FlightID = id
}

// extractAircraftType assigns the aircraft type from a token, defaulting
// to UNKN when absent or unrecognised rather than failing the message.
func extractAircraftType(token string, msg *telegram.ParsedMessage) {
	msg.AircraftType, _ = telegram.ParseAircraftType(token)
}

// extractAirportTime parses an ICAO+HHMM token (e.g. UUDD1200) into the
// message's airport code and event time. A bare ICAO code is accepted
// without a time. Out-of-range HHMM records InvalidTimeFormat; a missing
// token records MissingRequiredField when required.
func extractAirportTime(token string, required bool, msg *telegram.ParsedMessage) {
	if token == "" {
		if required {
			msg.AddError("airport_time", telegram.ErrMissingRequiredField, "")
		}
		return
	}
	if icaoRe.MatchString(token) {
		msg.AirportCode = token
		return
	}
	m := airportTimeRe.FindStringSubmatch(token)
	if m == nil {
		msg.AddError("airport_time", telegram.ErrInvalidTimeFormat, token)
		return
	}
	msg.AirportCode = m[1]
	t, err := telegram.ParseClockTime(m[2])
	if err != nil {
		msg.AddError("event_time", telegram.ErrInvalidTimeFormat, m[2])
		return
	}
	msg.EventTime = &t
}

// scanCoordinates finds the first coordinate token in free text and
// normalises it onto the message. A malformed candidate records
// MalformedCoordinate; absence is fine.
func scanCoordinates(text string, msg *telegram.ParsedMessage) {
	token := coordTokenRe.FindString(text)
	if token == "" {
		token = decimalPairRe.FindString(text)
	}
	if token == "" {
		return
	}
	lat, lon, err := geo.ParseCoordinate(token)
	if err != nil {
		msg.AddError("coordinates", telegram.ErrMalformedCoordinate, token)
		return
	}
	msg.Coordinates = &telegram.Coordinates{Lat: lat, Lon: lon}
}

// scanAltitude extracts an altitude token (hundreds of feet), either from
// a combined speed-level token or a standalone level token.
func scanAltitude(text string, msg *telegram.ParsedMessage) {
	digits := ""
	if m := speedLevelRe.FindStringSubmatch(text); m != nil && m[2] != "" {
		digits = m[2]
	} else if m := altitudeRe.FindStringSubmatch(text); m != nil {
		digits = m[1]
	}
	if digits == "" {
		return
	}
	ft := 0
	for _, c := range digits {
		ft = ft*10 + int(c-'0')
	}
	msg.AltitudeFt = ft * 100
}

// extractRouteWaypoints pulls DCT-separated waypoints from a route segment
// and sets the destination when the route ends in an ICAO code.
func extractRouteWaypoints(route string, msg *telegram.ParsedMessage) {
	fields := strings.Fields(route)
	last := ""
	for i, f := range fields {
		if f == "DCT" && i+1 < len(fields) {
			last = fields[i+1]
		}
	}
	if icaoRe.MatchString(last) {
		msg.Destination = last
	}
}
