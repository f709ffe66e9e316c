// Package extractors turns tokenised telegram lines into typed parsed
// messages. One extractor per message type, dispatched through a closed
// selection table keyed by the type tag.
package extractors

import (
	"sync"

	"telegram_parser/internal/geo"
	"telegram_parser/internal/telegram"
)

// Locator resolves a coordinate to a region. Satisfied by geo.RegionIndex
// and geo.GeocodeCache.
type Locator interface {
	Locate(lat, lon float64) (geo.Region, bool)
}

// Extractor is implemented by each per-type field extractor.
type Extractor interface {
	// Type returns the message type this extractor handles.
	Type() telegram.MessageType

	// Extract consumes the tokenised fields and fills the message in
	// place, recording every field-level failure into msg.Errors.
	Extract(tok *telegram.Tokens, msg *telegram.ParsedMessage)
}

// Registry holds the extractor table and the geocoder used to attach
// regions to extracted coordinates.
type Registry struct {
	mu      sync.RWMutex
	byType  map[telegram.MessageType]Extractor
	locator Locator
}

// NewRegistry builds the registry with all eight extractors installed.
// The locator may be nil; coordinates then stay unattributed.
func NewRegistry(locator Locator) *Registry {
	r := &Registry{
		byType:  make(map[telegram.MessageType]Extractor, len(telegram.MessageTypes)),
		locator: locator,
	}
	for _, e := range []Extractor{
		&FPLExtractor{},
		&DEPExtractor{},
		&ARRExtractor{},
		&CHGExtractor{},
		&CNLExtractor{},
		&DLAExtractor{},
		&RQSExtractor{},
		&RQPExtractor{},
	} {
		r.byType[e.Type()] = e
	}
	return r
}

// SetLocator swaps the geocoder, e.g. after wiring in a cache.
func (r *Registry) SetLocator(locator Locator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locator = locator
}

// Dispatch tokenises one raw telegram and routes it to the extractor for
// its type. Always returns a ParsedMessage: an unknown type tag or any
// field-level failure marks the message invalid without raising.
func (r *Registry) Dispatch(raw telegram.RawMessage) *telegram.ParsedMessage {
	tok, ok := telegram.Tokenize(raw.Text)

	msg := &telegram.ParsedMessage{
		ID:           raw.ID,
		BatchID:      raw.BatchID,
		Source:       raw.Source,
		AircraftType: telegram.AircraftUnknown,
		RawText:      tok.Raw,
	}

	if !ok {
		msg.AddError("type", telegram.ErrUnrecognizedMessageType, firstToken(tok.Raw))
		return msg
	}
	msg.Type = tok.Type

	r.mu.RLock()
	e := r.byType[tok.Type]
	locator := r.locator
	r.mu.RUnlock()

	e.Extract(tok, msg)

	// Attach the resolved region for any coordinate the extractor found.
	// A geocode miss is not a validation error.
	if locator != nil && msg.Coordinates != nil {
		if region, found := locator.Locate(msg.Coordinates.Lat, msg.Coordinates.Lon); found {
			msg.Region = region.Code
		}
	}
	return msg
}

func firstToken(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '-' || raw[i] == ' ' {
			return raw[:i]
		}
	}
	return raw
}
