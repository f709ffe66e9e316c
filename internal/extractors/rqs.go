package extractors

import "telegram_parser/internal/telegram"

// RQSExtractor parses status request telegrams:
//
//	RQS-UAV001-STATUS
//
// Requests never mutate flight state; they are answered from the current
// record. The tail names the query target.
type RQSExtractor struct{}

func (e *RQSExtractor) Type() telegram.MessageType { return telegram.TypeRQS }

func (e *RQSExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	if tok.Tail != "" {
		msg.AddExtra("query", tok.Tail)
	}
}
