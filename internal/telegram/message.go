// Package telegram provides the aeronautical telegram message model:
// message and aircraft type enums, raw/parsed message structures, and the
// field-level error records produced during extraction.
package telegram

import "fmt"

// MessageType is the telegram type tag, the first hyphen-separated field
// of every line.
type MessageType string

const (
	TypeFPL MessageType = "FPL" // flight plan
	TypeDEP MessageType = "DEP" // departure
	TypeARR MessageType = "ARR" // arrival
	TypeCHG MessageType = "CHG" // flight plan change
	TypeCNL MessageType = "CNL" // cancellation
	TypeDLA MessageType = "DLA" // delay
	TypeRQS MessageType = "RQS" // status request
	TypeRQP MessageType = "RQP" // plan request
)

// MessageTypes lists all known telegram types in dispatch order.
var MessageTypes = []MessageType{
	TypeFPL, TypeDEP, TypeARR, TypeCHG, TypeCNL, TypeDLA, TypeRQS, TypeRQP,
}

// ParseMessageType validates a type tag against the known set.
func ParseMessageType(s string) (MessageType, bool) {
	for _, t := range MessageTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// AircraftType is the unmanned aircraft category carried in the telegram.
type AircraftType string

const (
	AircraftQuad    AircraftType = "QUAD"
	AircraftHexa    AircraftType = "HEXA"
	AircraftOcto    AircraftType = "OCTO"
	AircraftFixWing AircraftType = "FIXW"
	AircraftHeli    AircraftType = "HELI"
	AircraftGyro    AircraftType = "GYRO"
	AircraftBalloon AircraftType = "BALL"
	AircraftGlider  AircraftType = "GLID"
	AircraftPara    AircraftType = "PARA"
	AircraftUnknown AircraftType = "UNKN"
)

var aircraftTypes = map[string]AircraftType{
	"QUAD": AircraftQuad, "HEXA": AircraftHexa, "OCTO": AircraftOcto,
	"FIXW": AircraftFixWing, "HELI": AircraftHeli, "GYRO": AircraftGyro,
	"BALL": AircraftBalloon, "GLID": AircraftGlider, "PARA": AircraftPara,
	"UNKN": AircraftUnknown,
}

// ParseAircraftType maps a token to the aircraft type enum.
// Unrecognised or absent tokens map to AircraftUnknown; the second return
// reports whether the token matched a known type.
func ParseAircraftType(s string) (AircraftType, bool) {
	if t, ok := aircraftTypes[s]; ok {
		return t, true
	}
	return AircraftUnknown, false
}

// Source identifies where a raw telegram entered the system.
type Source string

const (
	SourceAPI  Source = "api"
	SourceFile Source = "file"
	SourceWeb  Source = "web"
)

// MaxFlightIDLen is the maximum flight identifier length per the telegram
// grammar.
const MaxFlightIDLen = 7

// RawMessage is one telegram line as submitted, before tokenisation.
// Retained only for audit and error reporting.
type RawMessage struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text"`
	Source  Source `json:"source"`
	BatchID string `json:"batch_id,omitempty"`
}

// ErrorKind classifies a field-level parse failure. All kinds are
// message-local: they invalidate the message but never abort a batch.
type ErrorKind string

const (
	ErrUnrecognizedMessageType ErrorKind = "UnrecognizedMessageType"
	ErrMalformedCoordinate     ErrorKind = "MalformedCoordinate"
	ErrInvalidTimeFormat       ErrorKind = "InvalidTimeFormat"
	ErrMissingRequiredField    ErrorKind = "MissingRequiredField"
	ErrFlightIDTooLong         ErrorKind = "FlightIdTooLong"
)

// FieldError records a single field-level failure.
type FieldError struct {
	Field  string    `json:"field"`
	Reason ErrorKind `json:"reason"`
	Detail string    `json:"detail,omitempty"`
}

func (e FieldError) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Reason, e.Detail)
}

// Coordinates is a WGS84 point in signed decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Field is one ordered key/value pair from the extra-field section of a
// telegram.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParsedMessage is the typed result of tokenising and extracting one
// telegram line. It is never mutated after validation completes.
type ParsedMessage struct {
	ID           string       `json:"id,omitempty"`
	BatchID      string       `json:"batch_id,omitempty"`
	Source       Source       `json:"source,omitempty"`
	Type         MessageType  `json:"type"`
	FlightID     string       `json:"flight_id"`
	AircraftType AircraftType `json:"aircraft_type"`
	AirportCode  string       `json:"airport_code,omitempty"` // 4-char ICAO
	EventTime    *ClockTime   `json:"event_time,omitempty"`   // local HHMM
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Region       string       `json:"region,omitempty"` // resolved region code
	Route        string       `json:"route,omitempty"`
	Destination  string       `json:"destination,omitempty"` // ICAO at route end
	DateOfFlight string       `json:"date_of_flight,omitempty"` // YYMMDD
	Operator     string       `json:"operator,omitempty"`
	Registration string       `json:"registration,omitempty"` // aircraft registration mark
	Remarks      string       `json:"remarks,omitempty"`
	AltitudeFt   int          `json:"altitude_ft,omitempty"`
	Extra        []Field      `json:"extra_fields,omitempty"`
	RawText      string       `json:"raw_text"`
	Errors       []FieldError `json:"errors,omitempty"`
}

// IsValid reports whether the message parsed without any field-level
// failures.
func (m *ParsedMessage) IsValid() bool {
	return len(m.Errors) == 0
}

// AddError records a field-level failure against the message.
func (m *ParsedMessage) AddError(field string, reason ErrorKind, detail string) {
	m.Errors = append(m.Errors, FieldError{Field: field, Reason: reason, Detail: detail})
}

// AddExtra appends an ordered extra field.
func (m *ParsedMessage) AddExtra(key, value string) {
	m.Extra = append(m.Extra, Field{Key: key, Value: value})
}
