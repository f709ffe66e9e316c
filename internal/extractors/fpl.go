package extractors

import (
	"strings"

	"telegram_parser/internal/telegram"
)

// FPLExtractor parses flight plan telegrams:
//
//	FPL-UAV001-QUAD-UUDD1200-N0100F050 DCT UUEE-DOF/251015-OPR/AEROSCAN
//
// Structured fields: flight id, aircraft type, departure aerodrome+time.
// The tail carries the cruise/route segment and keyword fields (DOF/,
// OPR/, REG/, RMK/), still hyphen-separated but free-form inside.
type FPLExtractor struct{}

func (e *FPLExtractor) Type() telegram.MessageType { return telegram.TypeFPL }

func (e *FPLExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	extractAircraftType(tok.Field(1), msg)
	extractAirportTime(tok.Field(2), true, msg)

	var routeParts []string
	for _, piece := range strings.Split(tok.Tail, "-") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		switch {
		case strings.HasPrefix(piece, "DOF/"):
			if m := dofRe.FindStringSubmatch(piece); m != nil {
				msg.DateOfFlight = m[1]
			} else {
				msg.AddError("dof", telegram.ErrInvalidTimeFormat, piece)
			}
		case strings.HasPrefix(piece, "OPR/"):
			if m := oprRe.FindStringSubmatch(piece); m != nil {
				msg.Operator = strings.TrimSpace(m[1])
			}
		case strings.HasPrefix(piece, "REG/"):
			if m := regRe.FindStringSubmatch(piece); m != nil {
				msg.Registration = m[1]
			}
		case strings.HasPrefix(piece, "RMK/"):
			if m := rmkRe.FindStringSubmatch(piece); m != nil {
				msg.Remarks = strings.TrimSpace(m[1])
			}
		default:
			routeParts = append(routeParts, piece)
		}
	}

	if len(routeParts) > 0 {
		msg.Route = strings.Join(routeParts, " ")
		scanAltitude(msg.Route, msg)
		scanCoordinates(msg.Route, msg)
		extractRouteWaypoints(msg.Route, msg)
		if m := speedLevelRe.FindStringSubmatch(msg.Route); m != nil {
			msg.AddExtra("cruise_speed", m[1])
		}
	}
}
