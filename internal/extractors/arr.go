package extractors

import "telegram_parser/internal/telegram"

// ARRExtractor parses arrival telegrams:
//
//	ARR-UAV001-QUAD-UUEE1245-ARRIVAL COMPLETED
//
// Same shape as DEP; the aerodrome+time is the arrival side.
type ARRExtractor struct{}

func (e *ARRExtractor) Type() telegram.MessageType { return telegram.TypeARR }

func (e *ARRExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	extractAircraftType(tok.Field(1), msg)
	extractAirportTime(tok.Field(2), true, msg)

	if tok.Tail != "" {
		msg.AddExtra("status", tok.Tail)
		scanCoordinates(tok.Tail, msg)
	}
}
