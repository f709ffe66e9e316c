package telegram

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fpl-uav001-quad-uuee1200", "FPL-UAV001-QUAD-UUEE1200"},
		{"  DEP-UAV002-HEXA-UUDD0830  ", "DEP-UAV002-HEXA-UUDD0830"},
		{"ARR-UAV003\t-\tOCTO", "ARR-UAV003 - OCTO"},
		{"CNL-UAV004   WEATHER", "CNL-UAV004 WEATHER"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantType   MessageType
		wantFields []string
		wantTail   string
		wantOK     bool
	}{
		{
			name:       "full flight plan",
			input:      "FPL-UAV001-QUAD-UUEE1200-DCT 5544N03733E DCT UUDD-DOF/250715-OPR/AEROSCAN",
			wantType:   TypeFPL,
			wantFields: []string{"UAV001", "QUAD", "UUEE1200"},
			wantTail:   "DCT 5544N03733E DCT UUDD-DOF/250715-OPR/AEROSCAN",
			wantOK:     true,
		},
		{
			name:       "departure",
			input:      "DEP-UAV001-QUAD-UUEE1205",
			wantType:   TypeDEP,
			wantFields: []string{"UAV001", "QUAD", "UUEE1205"},
			wantOK:     true,
		},
		{
			name:       "cancellation keeps hyphens in tail",
			input:      "CNL-UAV004-BAD-WEATHER-FRONT",
			wantType:   TypeCNL,
			wantFields: []string{"UAV004"},
			wantTail:   "BAD-WEATHER-FRONT",
			wantOK:     true,
		},
		{
			name:       "delay with revised time",
			input:      "DLA-UAV005-UUEE1400",
			wantType:   TypeDLA,
			wantFields: []string{"UAV005"},
			wantTail:   "UUEE1400",
			wantOK:     true,
		},
		{
			name:       "status request",
			input:      "RQS-UAV001-STATUS",
			wantType:   TypeRQS,
			wantFields: []string{"UAV001"},
			wantTail:   "STATUS",
			wantOK:     true,
		},
		{
			name:   "unknown type tag",
			input:  "XXX-UAV001-QUAD",
			wantOK: false,
		},
		{
			name:   "empty line",
			input:  "",
			wantOK: false,
		},
		{
			name:       "lowercase input is normalised",
			input:      "arr-uav002-hexa-uudd0915",
			wantType:   TypeARR,
			wantFields: []string{"UAV002", "HEXA", "UUDD0915"},
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := Tokenize(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Tokenize(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if tok.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tok.Type, tt.wantType)
			}
			if !reflect.DeepEqual(tok.Fields, tt.wantFields) {
				t.Errorf("Fields = %v, want %v", tok.Fields, tt.wantFields)
			}
			if tok.Tail != tt.wantTail {
				t.Errorf("Tail = %q, want %q", tok.Tail, tt.wantTail)
			}
		})
	}
}

func TestTokensField(t *testing.T) {
	tok, ok := Tokenize("DEP-UAV001-QUAD-UUEE1205")
	if !ok {
		t.Fatal("Tokenize failed")
	}
	if got := tok.Field(0); got != "UAV001" {
		t.Errorf("Field(0) = %q, want %q", got, "UAV001")
	}
	if got := tok.Field(5); got != "" {
		t.Errorf("Field(5) = %q, want empty", got)
	}
	if got := tok.Field(-1); got != "" {
		t.Errorf("Field(-1) = %q, want empty", got)
	}
}

func TestParseMessageType(t *testing.T) {
	for _, mt := range MessageTypes {
		got, ok := ParseMessageType(string(mt))
		if !ok || got != mt {
			t.Errorf("ParseMessageType(%q) = %q, %v", mt, got, ok)
		}
	}
	if _, ok := ParseMessageType("ZZZ"); ok {
		t.Error("ParseMessageType(\"ZZZ\") accepted an unknown tag")
	}
}

func TestParseAircraftType(t *testing.T) {
	tests := []struct {
		input  string
		want   AircraftType
		wantOK bool
	}{
		{"QUAD", AircraftQuad, true},
		{"HEXA", AircraftHexa, true},
		{"FIXW", AircraftFixWing, true},
		{"UNKN", AircraftUnknown, true},
		{"ZZZZ", AircraftUnknown, false},
		{"", AircraftUnknown, false},
	}

	for _, tt := range tests {
		got, ok := ParseAircraftType(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseAircraftType(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
