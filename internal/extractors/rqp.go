package extractors

import "telegram_parser/internal/telegram"

// RQPExtractor parses flight plan request telegrams:
//
//	RQP-UAV001-PLAN
//
// Like RQS, plan requests are read-only against the current record.
type RQPExtractor struct{}

func (e *RQPExtractor) Type() telegram.MessageType { return telegram.TypeRQP }

func (e *RQPExtractor) Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage) {
	extractFlightID(tok, msg)
	if tok.Tail != "" {
		msg.AddExtra("query", tok.Tail)
	}
}
