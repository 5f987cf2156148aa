// Package numeric provides tolerant numeric parsing and display formatting
// for scraped price fields.
package numeric

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Value is a decimal that records whether parsing fell back to the zero default.
// Callers can distinguish a true zero from an unparsable field.
type Value struct {
	Decimal   decimal.Decimal
	Defaulted bool
}

// Zero returns the defaulted zero value.
func Zero() Value {
	return Value{Decimal: decimal.Zero, Defaulted: true}
}

// FromDecimal wraps an already-parsed decimal.
func FromDecimal(d decimal.Decimal) Value {
	return Value{Decimal: d, Defaulted: false}
}

// Parse converts a scraped field into a Value. It is total: any input that
// cannot be read as a number yields the defaulted zero, never an error.
// Thousands separators and surrounding whitespace are tolerated.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "--" {
		return Zero()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero()
	}
	return FromDecimal(d)
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
// Malformed payloads decode to the defaulted zero rather than failing the
// surrounding document.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = Zero()
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = Zero()
			return nil
		}
		*v = Parse(s)
		return nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		*v = Zero()
		return nil
	}
	*v = FromDecimal(d)
	return nil
}

// MarshalJSON renders the value as a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Decimal.String()), nil
}

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	one      = decimal.NewFromInt(1)
)

// DisplayScale returns the display precision for a price magnitude: large
// values drop fractional digits, sub-unit values keep enough to stay legible.
func DisplayScale(d decimal.Decimal) int32 {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(thousand):
		return 0
	case abs.GreaterThanOrEqual(hundred):
		return 1
	case abs.GreaterThanOrEqual(one):
		return 2
	default:
		return 4
	}
}

// FormatPrice renders a price with magnitude-tiered precision.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(DisplayScale(d))
}
