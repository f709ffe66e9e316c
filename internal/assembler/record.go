// Package assembler correlates parsed telegrams sharing a flight id into
// evolving flight records, tracking a state machine across message
// arrivals.
package assembler

import (
	"telegram_parser/internal/telegram"
)

// State is the lifecycle state of a flight record. It only advances
// forward or into a terminal state, never regresses.
type State string

const (
	StatePlanned   State = "PLANNED"
	StateDeparted  State = "DEPARTED"
	StateArrived   State = "ARRIVED"   // terminal
	StateCancelled State = "CANCELLED" // terminal
	StateChanged   State = "CHANGED"
	StateDelayed   State = "DELAYED"
)

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateArrived || s == StateCancelled
}

// FlightRecord is the assembled view of one flight across its correlated
// telegrams. Mutated only by the Assembler under the per-flight lock;
// callers always receive copies.
type FlightRecord struct {
	FlightID     string                `json:"flight_id"`
	AircraftType telegram.AircraftType `json:"aircraft_type"`

	DepartureAirport string              `json:"departure_airport,omitempty"`
	DepartureTime    *telegram.ClockTime `json:"departure_time,omitempty"`
	ArrivalAirport   string              `json:"arrival_airport,omitempty"`
	ArrivalTime      *telegram.ClockTime `json:"arrival_time,omitempty"`
	DurationMinutes  *int                `json:"duration_minutes,omitempty"`

	DepartureCoordinates *telegram.Coordinates `json:"departure_coordinates,omitempty"`
	ArrivalCoordinates   *telegram.Coordinates `json:"arrival_coordinates,omitempty"`
	RegionDeparture      string                `json:"region_departure,omitempty"`
	RegionArrival        string                `json:"region_arrival,omitempty"`
	DistanceKm           *float64              `json:"distance_km,omitempty"`

	Route         string `json:"route,omitempty"`
	DateOfFlight  string `json:"date_of_flight,omitempty"`
	OperatorName  string `json:"operator_name,omitempty"`
	FlightPurpose string `json:"flight_purpose,omitempty"`

	State State `json:"state"`
	// PriorState is the non-terminal state a CHANGED/DELAYED record came
	// from, and returns to on the next progressing message.
	PriorState State `json:"prior_state,omitempty"`

	IsValid                bool     `json:"is_valid"`
	ContributingMessageIDs []string `json:"contributing_message_ids,omitempty"`
}

// clone returns a deep copy safe to hand outside the per-flight lock.
func (r *FlightRecord) clone() FlightRecord {
	out := *r
	if r.DepartureTime != nil {
		t := *r.DepartureTime
		out.DepartureTime = &t
	}
	if r.ArrivalTime != nil {
		t := *r.ArrivalTime
		out.ArrivalTime = &t
	}
	if r.DurationMinutes != nil {
		d := *r.DurationMinutes
		out.DurationMinutes = &d
	}
	if r.DepartureCoordinates != nil {
		c := *r.DepartureCoordinates
		out.DepartureCoordinates = &c
	}
	if r.ArrivalCoordinates != nil {
		c := *r.ArrivalCoordinates
		out.ArrivalCoordinates = &c
	}
	if r.DistanceKm != nil {
		d := *r.DistanceKm
		out.DistanceKm = &d
	}
	out.ContributingMessageIDs = append([]string(nil), r.ContributingMessageIDs...)
	return out
}
