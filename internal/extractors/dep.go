package extractors

import "telegram_parser/internal/telegram"

// DEPExtractor parses departure telegrams:
//
//	DEP-UAV001-QUAD-UUDD1205-ACTUAL DEPARTURE TIME
//
// Structured fields: flight id, aircraft type, departure aerodrome+time.
// The tail is a free-text status, kept as an extra field.
type DEPExtractor struct{}

func (e *DEPExtractor) Type() telegram.MessageType { return telegram.TypeDEP }

func (e *DEPExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	extractAircraftType(tok.Field(1), msg)
	extractAirportTime(tok.Field(2), true, msg)

	if tok.Tail != "" {
		msg.AddExtra("status", tok.Tail)
		scanCoordinates(tok.Tail, msg)
	}
}
