package domain

import (
	"encoding/json" // Validating JSON input
	"fmt"           // Error formatting
)

// Frequency tags how often an entry repeats.
type Frequency string

const (
	OneTime      Frequency = "One time"
	Weekly       Frequency = "Weekly"
	Biweekly     Frequency = "Biweekly"
	TwiceMonthly Frequency = "Twice a month"
	Monthly      Frequency = "Monthly"
	Yearly       Frequency = "Yearly"
)

// Frequencies lists every frequency.
var Frequencies = []Frequency{OneTime, Weekly, Biweekly, TwiceMonthly, Monthly, Yearly}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Recurring reports whether entries with this frequency act as templates.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != OneTime
}

// ParseFrequency converts a raw string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q", s)
	}
	return f, nil
}

func (f *Frequency) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("frequency must be a string: %w", err)
	}
	parsed, err := ParseFrequency(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
