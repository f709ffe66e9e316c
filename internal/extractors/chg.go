package extractors

import (
	"strings"

	"telegram_parser/internal/telegram"
)

// CHGExtractor parses flight plan change telegrams:
//
//	CHG-UAV003-FIXW-UUDD1300-ROUTE CHANGE DCT UUWW
//
// Structured fields: flight id, aircraft type, aerodrome+time. The tail is
// the change description; when it carries a DCT route the new route and
// destination are extracted from it.
type CHGExtractor struct{}

func (e *CHGExtractor) Type() telegram.MessageType { return telegram.TypeCHG }

func (e *CHGExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	extractAircraftType(tok.Field(1), msg)
	extractAirportTime(tok.Field(2), true, msg)

	if tok.Tail == "" {
		return
	}
	msg.AddExtra("change", tok.Tail)
	scanCoordinates(tok.Tail, msg)
	if strings.Contains(tok.Tail, "DCT") {
		msg.Route = tok.Tail
		extractRouteWaypoints(tok.Tail, msg)
	}
}
