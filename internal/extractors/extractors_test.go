package extractors

import (
	"testing"

	"telegram_parser/internal/geo"
	"telegram_parser/internal/telegram"
)

// stubLocator attributes every point to a fixed region.
type stubLocator struct {
	code string
}

func (s *stubLocator) Locate(lat, lon float64) (geo.Region, bool) {
	if s.code == "" {
		return geo.Region{}, false
	}
	return geo.Region{Code: s.code}, true
}

func dispatch(t *testing.T, text string) *telegram.ParsedMessage {
	t.Helper()
	r := NewRegistry(nil)
	return r.Dispatch(telegram.RawMessage{ID: "test/1", Text: text})
}

func TestDispatchFPL(t *testing.T) {
	msg := dispatch(t, "FPL-UAV001-QUAD-UUEE1200-N0100F050 DCT 5544N03733E DCT UUDD-DOF/250715-OPR/AEROSCAN LLC-RMK/SURVEY FLIGHT")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.Type != telegram.TypeFPL {
		t.Errorf("Type = %q, want FPL", msg.Type)
	}
	if msg.FlightID != "UAV001" {
		t.Errorf("FlightID = %q, want UAV001", msg.FlightID)
	}
	if msg.AircraftType != telegram.AircraftQuad {
		t.Errorf("AircraftType = %q, want QUAD", msg.AircraftType)
	}
	if msg.AirportCode != "UUEE" {
		t.Errorf("AirportCode = %q, want UUEE", msg.AirportCode)
	}
	if msg.EventTime == nil || msg.EventTime.String() != "1200" {
		t.Errorf("EventTime = %v, want 1200", msg.EventTime)
	}
	if msg.Coordinates == nil {
		t.Fatal("Coordinates not extracted from route")
	}
	if lat := msg.Coordinates.Lat; lat < 55.72 || lat > 55.75 {
		t.Errorf("Coordinates.Lat = %v, want about 55.733", lat)
	}
	if msg.Destination != "UUDD" {
		t.Errorf("Destination = %q, want UUDD", msg.Destination)
	}
	if msg.DateOfFlight != "250715" {
		t.Errorf("DateOfFlight = %q, want 250715", msg.DateOfFlight)
	}
	if msg.Operator != "AEROSCAN LLC" {
		t.Errorf("Operator = %q, want AEROSCAN LLC", msg.Operator)
	}
	if msg.Remarks != "SURVEY FLIGHT" {
		t.Errorf("Remarks = %q, want SURVEY FLIGHT", msg.Remarks)
	}
	if msg.AltitudeFt != 5000 {
		t.Errorf("AltitudeFt = %d, want 5000", msg.AltitudeFt)
	}
}

func TestDispatchCarriesProvenance(t *testing.T) {
	r := NewRegistry(nil)
	msg := r.Dispatch(telegram.RawMessage{
		ID:      "b1/3",
		BatchID: "b1",
		Source:  telegram.SourceWeb,
		Text:    "DEP-UAV001-QUAD-UUEE1205",
	})

	if msg.ID != "b1/3" {
		t.Errorf("ID = %q, want b1/3", msg.ID)
	}
	if msg.BatchID != "b1" {
		t.Errorf("BatchID = %q, want b1", msg.BatchID)
	}
	if msg.Source != telegram.SourceWeb {
		t.Errorf("Source = %q, want web", msg.Source)
	}
}

func TestDispatchRegistration(t *testing.T) {
	msg := dispatch(t, "FPL-UAV001-QUAD-UUEE1200-DCT UUDD-REG/RA0774G-DOF/250715")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.Registration != "RA0774G" {
		t.Errorf("Registration = %q, want RA0774G", msg.Registration)
	}
	if msg.DateOfFlight != "250715" {
		t.Errorf("DateOfFlight = %q, want 250715", msg.DateOfFlight)
	}
	// The keyword piece must not leak into the route.
	if msg.Destination != "UUDD" {
		t.Errorf("Destination = %q, want UUDD", msg.Destination)
	}
}

func TestDispatchDEP(t *testing.T) {
	msg := dispatch(t, "DEP-UAV001-QUAD-UUEE1205")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.Type != telegram.TypeDEP {
		t.Errorf("Type = %q, want DEP", msg.Type)
	}
	if msg.AirportCode != "UUEE" || msg.EventTime == nil || msg.EventTime.String() != "1205" {
		t.Errorf("airport/time = %q/%v, want UUEE/1205", msg.AirportCode, msg.EventTime)
	}
}

func TestDispatchARRWithCoordinates(t *testing.T) {
	msg := dispatch(t, "ARR-UAV001-QUAD-UUDD1245-LANDED 5536N03751E")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.AirportCode != "UUDD" {
		t.Errorf("AirportCode = %q, want UUDD", msg.AirportCode)
	}
	if msg.Coordinates == nil {
		t.Fatal("Coordinates not extracted from tail")
	}
}

func TestDispatchCHG(t *testing.T) {
	msg := dispatch(t, "CHG-UAV002-HEXA-UUEE1300-DCT 5544N03733E DCT UUWW")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.Route == "" {
		t.Error("Route not captured from change tail")
	}
	if msg.Destination != "UUWW" {
		t.Errorf("Destination = %q, want UUWW", msg.Destination)
	}
}

func TestDispatchCNL(t *testing.T) {
	msg := dispatch(t, "CNL-UAV004-BAD-WEATHER")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.FlightID != "UAV004" {
		t.Errorf("FlightID = %q, want UAV004", msg.FlightID)
	}
	if len(msg.Extra) != 1 || msg.Extra[0].Key != "reason" || msg.Extra[0].Value != "BAD-WEATHER" {
		t.Errorf("Extra = %v, want reason=BAD-WEATHER", msg.Extra)
	}
}

func TestDispatchDLA(t *testing.T) {
	msg := dispatch(t, "DLA-UAV005-UUEE1400-FOG AT DEPARTURE")

	if !msg.IsValid() {
		t.Fatalf("message invalid: %v", msg.Errors)
	}
	if msg.AirportCode != "UUEE" || msg.EventTime == nil || msg.EventTime.String() != "1400" {
		t.Errorf("airport/time = %q/%v, want UUEE/1400", msg.AirportCode, msg.EventTime)
	}
	if len(msg.Extra) != 1 || msg.Extra[0].Value != "FOG AT DEPARTURE" {
		t.Errorf("Extra = %v, want reason=FOG AT DEPARTURE", msg.Extra)
	}
}

func TestDispatchRequests(t *testing.T) {
	for _, text := range []string{"RQS-UAV001-STATUS", "RQP-UAV001-PLAN"} {
		msg := dispatch(t, text)
		if !msg.IsValid() {
			t.Errorf("%q invalid: %v", text, msg.Errors)
		}
		if msg.FlightID != "UAV001" {
			t.Errorf("%q FlightID = %q, want UAV001", text, msg.FlightID)
		}
	}
}

func TestDispatchUnknownType(t *testing.T) {
	msg := dispatch(t, "XXX-UAV001-QUAD-UUEE1200")

	if msg.IsValid() {
		t.Fatal("unknown type tag accepted")
	}
	if msg.Errors[0].Reason != telegram.ErrUnrecognizedMessageType {
		t.Errorf("Reason = %q, want UnrecognizedMessageType", msg.Errors[0].Reason)
	}
	if msg.Errors[0].Detail != "XXX" {
		t.Errorf("Detail = %q, want XXX", msg.Errors[0].Detail)
	}
}

func TestDispatchFieldErrors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantField  string
		wantReason telegram.ErrorKind
	}{
		{
			name:       "missing airport time",
			text:       "FPL-UAV001-QUAD",
			wantField:  "airport_time",
			wantReason: telegram.ErrMissingRequiredField,
		},
		{
			name:       "hour out of range",
			text:       "DEP-UAV001-QUAD-UUEE2545",
			wantField:  "event_time",
			wantReason: telegram.ErrInvalidTimeFormat,
		},
		{
			name:       "garbage airport token",
			text:       "DEP-UAV001-QUAD-12345",
			wantField:  "airport_time",
			wantReason: telegram.ErrInvalidTimeFormat,
		},
		{
			name:       "flight id too long",
			text:       "DEP-UAV0012345-QUAD-UUEE1205",
			wantField:  "flight_id",
			wantReason: telegram.ErrFlightIDTooLong,
		},
		{
			name:       "bad date of flight",
			text:       "FPL-UAV001-QUAD-UUEE1200-DOF/25071",
			wantField:  "dof",
			wantReason: telegram.ErrInvalidTimeFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := dispatch(t, tt.text)
			if msg.IsValid() {
				t.Fatalf("%q parsed clean, want %s on %s", tt.text, tt.wantReason, tt.wantField)
			}
			found := false
			for _, e := range msg.Errors {
				if e.Field == tt.wantField && e.Reason == tt.wantReason {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want %s on %s", msg.Errors, tt.wantReason, tt.wantField)
			}
		})
	}
}

func TestDispatchTooLongFlightIDStillCorrelates(t *testing.T) {
	msg := dispatch(t, "DEP-UAV0012345-QUAD-UUEE1205")
	if msg.FlightID != "UAV0012345" {
		t.Errorf("FlightID = %q, want the oversized id preserved for correlation", msg.FlightID)
	}
}

func TestDispatchMalformedCoordinate(t *testing.T) {
	msg := dispatch(t, "ARR-UAV001-QUAD-UUDD1245-LANDED 5577N03751E")
	if msg.IsValid() {
		t.Fatal("malformed coordinate accepted")
	}
	if msg.Errors[0].Reason != telegram.ErrMalformedCoordinate {
		t.Errorf("Reason = %q, want MalformedCoordinate", msg.Errors[0].Reason)
	}
	if msg.Coordinates != nil {
		t.Error("Coordinates set despite malformed token")
	}
}

func TestDispatchAttachesRegion(t *testing.T) {
	r := NewRegistry(&stubLocator{code: "RU-MOW"})
	msg := r.Dispatch(telegram.RawMessage{Text: "DEP-UAV001-QUAD-UUEE1205-5544N03733E"})

	if msg.Coordinates == nil {
		t.Fatal("Coordinates not extracted")
	}
	if msg.Region != "RU-MOW" {
		t.Errorf("Region = %q, want RU-MOW", msg.Region)
	}
}

func TestDispatchGeocodeMissIsNotError(t *testing.T) {
	r := NewRegistry(&stubLocator{})
	msg := r.Dispatch(telegram.RawMessage{Text: "DEP-UAV001-QUAD-UUEE1205-5544N03733E"})

	if !msg.IsValid() {
		t.Errorf("geocode miss invalidated the message: %v", msg.Errors)
	}
	if msg.Region != "" {
		t.Errorf("Region = %q, want empty", msg.Region)
	}
}

func TestDispatchUnknownAircraftType(t *testing.T) {
	msg := dispatch(t, "DEP-UAV001-ZZZZ-UUEE1205")
	if !msg.IsValid() {
		t.Fatalf("unknown aircraft type invalidated the message: %v", msg.Errors)
	}
	if msg.AircraftType != telegram.AircraftUnknown {
		t.Errorf("AircraftType = %q, want UNKN", msg.AircraftType)
	}
}
