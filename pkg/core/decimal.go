package core

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Decimal is an exact base-10 decimal used for every price, volume, balance,
// and fee field in the library. It unmarshals JSON numbers and quoted numeric
// strings directly from their textual form, so a value like
// "50000000.12345678" survives a round trip without floating-point drift.
type Decimal struct {
	apd.Decimal
}

// NewDecimal parses the given string into a Decimal.
func NewDecimal(s string) (Decimal, error) {
	var d Decimal
	if _, _, err := d.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// MustDecimal parses the given string into a Decimal and panics on failure.
// Intended for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the plain decimal notation of the value (no exponent).
func (d Decimal) String() string {
	return d.Text('f')
}

// MarshalJSON implements json.Marshaler. Values are emitted as quoted
// strings to keep full precision on the wire.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Text('f') + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. It accepts JSON numbers,
// quoted numeric strings, and null (which leaves the value zero).
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		d.Decimal = apd.Decimal{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		d.Decimal = apd.Decimal{}
		return nil
	}
	if _, _, err := d.SetString(s); err != nil {
		return fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return nil
}
