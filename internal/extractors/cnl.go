package extractors

import "telegram_parser/internal/telegram"

// CNLExtractor parses cancellation telegrams:
//
//	CNL-UAV002-FLIGHT CANCELLED BY OPERATOR
//
// Only the flight id is structured; the tail is the cancellation reason.
type CNLExtractor struct{}

func (e *CNLExtractor) Type() telegram.MessageType { return telegram.TypeCNL }

func (e *CNLExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	if tok.Tail != "" {
		msg.AddExtra("reason", tok.Tail)
	}
}
