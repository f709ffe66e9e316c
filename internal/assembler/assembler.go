package assembler

import (
	"sync"

	"telegram_parser/internal/geo"
	"telegram_parser/internal/telegram"
)

// entry is the per-flight arena slot. Its mutex serialises every mutation
// for one flight id, so correlated messages never interleave field writes.
type entry struct {
	mu  sync.Mutex
	rec FlightRecord

	// setBy tracks which message type last set each backfillable field.
	// A later FPL fills only fields that are unset or FPL-owned; it never
	// clobbers actuals contributed by DEP/ARR/CHG/DLA.
	setBy map[string]telegram.MessageType
}

// Assembler maintains the arena of flight records keyed by flight id.
type Assembler struct {
	mu      sync.RWMutex
	entries map[string]*entry

	onUpdate func(FlightRecord)
}

// New creates an empty assembler.
func New() *Assembler {
	return &Assembler{entries: make(map[string]*entry)}
}

// OnRecordUpdated sets the callback invoked with a copy of the record
// after every mutating message. Set it before processing starts; the
// persistence collaborator consumes this stream.
func (a *Assembler) OnRecordUpdated(fn func(FlightRecord)) {
	a.onUpdate = fn
}

// entryFor returns the arena slot for a flight id, creating it lazily on
// first reference (out-of-order arrival: a DEP or CHG before any FPL
// still gets a record).
func (a *Assembler) entryFor(flightID string) *entry {
	a.mu.RLock()
	e, ok := a.entries[flightID]
	a.mu.RUnlock()
	if ok {
		return e
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok = a.entries[flightID]; ok {
		return e
	}
	e = &entry{
		rec: FlightRecord{
			FlightID:     flightID,
			AircraftType: telegram.AircraftUnknown,
			State:        StatePlanned,
			IsValid:      true,
		},
		setBy: make(map[string]telegram.MessageType),
	}
	a.entries[flightID] = e
	return e
}

// Apply feeds one parsed message into the arena. The message's whole
// effect is applied atomically under the per-flight lock, or not at all.
// RQS/RQP messages mutate nothing and are answered from the current
// record. Returns a copy of the resulting record; ok is false when the
// message carries no flight id to correlate on.
func (a *Assembler) Apply(msg *telegram.ParsedMessage) (FlightRecord, bool) {
	if msg.FlightID == "" {
		return FlightRecord{}, false
	}

	if msg.Type == telegram.TypeRQS || msg.Type == telegram.TypeRQP {
		return a.Record(msg.FlightID)
	}

	e := a.entryFor(msg.FlightID)
	e.mu.Lock()
	rec := &e.rec

	rec.IsValid = rec.IsValid && msg.IsValid()
	if msg.ID != "" {
		rec.ContributingMessageIDs = append(rec.ContributingMessageIDs, msg.ID)
	}

	e.contribute(msg)
	e.transition(msg.Type)
	e.recompute()

	out := rec.clone()
	e.mu.Unlock()

	if a.onUpdate != nil {
		a.onUpdate(out)
	}
	return out, true
}

// setField assigns a field under the ownership rules: same-type duplicates
// are last-write-wins, other types overwrite freely, but FPL backfills
// only fields that no other type has set.
func (e *entry) setField(key string, mt telegram.MessageType, assign func()) {
	owner, set := e.setBy[key]
	if set && mt == telegram.TypeFPL && owner != telegram.TypeFPL {
		return
	}
	assign()
	e.setBy[key] = mt
}

// contribute applies the message's fields to the record per message type.
func (e *entry) contribute(msg *telegram.ParsedMessage) {
	rec := &e.rec
	mt := msg.Type

	if msg.AircraftType != telegram.AircraftUnknown {
		e.setField("aircraft_type", mt, func() { rec.AircraftType = msg.AircraftType })
	}

	switch mt {
	case telegram.TypeFPL:
		if msg.AirportCode != "" {
			e.setField("dep_airport", mt, func() { rec.DepartureAirport = msg.AirportCode })
		}
		if msg.EventTime != nil {
			e.setField("dep_time", mt, func() { t := *msg.EventTime; rec.DepartureTime = &t })
		}
		if msg.Coordinates != nil {
			e.setField("dep_coords", mt, func() {
				c := *msg.Coordinates
				rec.DepartureCoordinates = &c
				rec.RegionDeparture = msg.Region
			})
		}
		if msg.Destination != "" {
			e.setField("arr_airport", mt, func() { rec.ArrivalAirport = msg.Destination })
		}
		if msg.Route != "" {
			e.setField("route", mt, func() { rec.Route = msg.Route })
		}
		if msg.DateOfFlight != "" {
			e.setField("dof", mt, func() { rec.DateOfFlight = msg.DateOfFlight })
		}
		if msg.Operator != "" {
			e.setField("operator", mt, func() { rec.OperatorName = msg.Operator })
		}
		if msg.Remarks != "" {
			e.setField("purpose", mt, func() { rec.FlightPurpose = msg.Remarks })
		}

	case telegram.TypeDEP:
		if msg.AirportCode != "" {
			e.setField("dep_airport", mt, func() { rec.DepartureAirport = msg.AirportCode })
		}
		if msg.EventTime != nil {
			e.setField("dep_time", mt, func() { t := *msg.EventTime; rec.DepartureTime = &t })
		}
		if msg.Coordinates != nil {
			e.setField("dep_coords", mt, func() {
				c := *msg.Coordinates
				rec.DepartureCoordinates = &c
				rec.RegionDeparture = msg.Region
			})
		}

	case telegram.TypeARR:
		if msg.AirportCode != "" {
			e.setField("arr_airport", mt, func() { rec.ArrivalAirport = msg.AirportCode })
		}
		if msg.EventTime != nil {
			e.setField("arr_time", mt, func() { t := *msg.EventTime; rec.ArrivalTime = &t })
		}
		if msg.Coordinates != nil {
			e.setField("arr_coords", mt, func() {
				c := *msg.Coordinates
				rec.ArrivalCoordinates = &c
				rec.RegionArrival = msg.Region
			})
		}

	case telegram.TypeCHG:
		if msg.Route != "" {
			e.setField("route", mt, func() { rec.Route = msg.Route })
		}
		if msg.Destination != "" {
			e.setField("arr_airport", mt, func() { rec.ArrivalAirport = msg.Destination })
		}

	case telegram.TypeDLA:
		// A delay carries the revised departure time.
		if msg.EventTime != nil {
			e.setField("dep_time", mt, func() { t := *msg.EventTime; rec.DepartureTime = &t })
		}
		if msg.AirportCode != "" {
			e.setField("dep_airport", mt, func() { rec.DepartureAirport = msg.AirportCode })
		}
	}
}

// transition advances the state machine. Terminal states never regress.
func (e *entry) transition(mt telegram.MessageType) {
	rec := &e.rec
	if rec.State.Terminal() {
		return
	}
	switch mt {
	case telegram.TypeDEP:
		rec.State = StateDeparted
		rec.PriorState = ""
	case telegram.TypeARR:
		rec.State = StateArrived
		rec.PriorState = ""
	case telegram.TypeCNL:
		rec.State = StateCancelled
		rec.PriorState = ""
	case telegram.TypeCHG:
		if rec.State != StateChanged && rec.State != StateDelayed {
			rec.PriorState = rec.State
		}
		rec.State = StateChanged
	case telegram.TypeDLA:
		if rec.State != StateChanged && rec.State != StateDelayed {
			rec.PriorState = rec.State
		}
		rec.State = StateDelayed
	}
}

// recompute derives duration and distance once both endpoints are known.
// Arrival clock-earlier than departure is treated as a next-day arrival.
func (e *entry) recompute() {
	rec := &e.rec
	if rec.DepartureTime != nil && rec.ArrivalTime != nil {
		d := rec.DepartureTime.MinutesUntil(*rec.ArrivalTime)
		rec.DurationMinutes = &d
	}
	if rec.DepartureCoordinates != nil && rec.ArrivalCoordinates != nil {
		km := geo.DistanceKm(
			rec.DepartureCoordinates.Lat, rec.DepartureCoordinates.Lon,
			rec.ArrivalCoordinates.Lat, rec.ArrivalCoordinates.Lon,
		)
		rec.DistanceKm = &km
	}
}

// Record returns a copy of the current record for a flight id.
func (a *Assembler) Record(flightID string) (FlightRecord, bool) {
	a.mu.RLock()
	e, ok := a.entries[flightID]
	a.mu.RUnlock()
	if !ok {
		return FlightRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.clone(), true
}

// Records returns copies of all current records.
func (a *Assembler) Records() []FlightRecord {
	a.mu.RLock()
	entries := make([]*entry, 0, len(a.entries))
	for _, e := range a.entries {
		entries = append(entries, e)
	}
	a.mu.RUnlock()

	out := make([]FlightRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.rec.clone())
		e.mu.Unlock()
	}
	return out
}

// Len returns the number of tracked flights.
func (a *Assembler) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
