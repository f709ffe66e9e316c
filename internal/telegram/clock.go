package telegram

import "fmt"

// ClockTime is a local time of day in minutes since midnight, parsed from
// the HHMM token of a telegram.
type ClockTime int

// ParseClockTime parses a 4-digit HHMM token. Exactly four digits, no
// sign or whitespace; hours must be 00-23 and minutes 00-59.
func ParseClockTime(s string) (ClockTime, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("time %q: want 4 digits HHMM", s)
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("time %q: want 4 digits HHMM", s)
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	if hh > 23 {
		return 0, fmt.Errorf("time %q: hour out of range", s)
	}
	if mm > 59 {
		return 0, fmt.Errorf("time %q: minute out of range", s)
	}
	return ClockTime(hh*60 + mm), nil
}

// Minutes returns the time as minutes since midnight.
func (t ClockTime) Minutes() int { return int(t) }

// String formats the time back to HHMM.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d%02d", int(t)/60, int(t)%60)
}

// MinutesUntil returns the minutes from t to later, assuming next-day
// wraparound when later is clock-earlier than t.
func (t ClockTime) MinutesUntil(later ClockTime) int {
	d := int(later) - int(t)
	if d < 0 {
		d += 24 * 60
	}
	return d
}

// MarshalJSON encodes the time as its HHMM string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts an HHMM string.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	ct, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = ct
	return nil
}
