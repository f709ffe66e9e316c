package extractors

import (
	"strings"

	"telegram_parser/internal/telegram"
)

// DLAExtractor parses delay telegrams:
//
//	DLA-UAV004-UUDD1330-WEATHER DELAY
//
// Only the flight id is structured. The tail may carry a revised
// aerodrome+time token followed by the delay reason; both are optional.
type DLAExtractor struct{}

func (e *DLAExtractor) Type() telegram.MessageType { return telegram.TypeDLA }

func (e *DLAExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)

	var reason []string
	for _, piece := range strings.Split(tok.Tail, "-") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if msg.EventTime == nil && airportTimeRe.MatchString(piece) {
			extractAirportTime(piece, false, msg)
			continue
		}
		reason = append(reason, piece)
	}
	if len(reason) > 0 {
		msg.AddExtra("reason", strings.Join(reason, " "))
	}
}
