package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Quantity is a numeric field of an imported document. Decoding never fails:
// numbers and numeric strings keep their value, booleans become 1 or 0 and
// anything else becomes 0.
type Quantity float64

// Float returns the value as float64, with non-finite values mapped to 0.
func (q Quantity) Float() float64 {
	f := float64(q)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Ptr returns a pointer to a copy of q.
func (q Quantity) Ptr() *Quantity {
	return &q
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(ParseLenient(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, q.Float(), 'f', -1, 64), nil
}

// ParseLenient converts a raw JSON value to a finite number.
func ParseLenient(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		return ParseNumber(s)
	case 't':
		return 1
	case 'f', 'n', '[', '{':
		return 0
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseNumber converts user-entered text to a finite number. Blank or
// malformed input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// PositiveOrNil returns a pointer to v when it is finite and greater than
// zero, and nil otherwise.
func PositiveOrNil(v float64) *Quantity {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil
	}
	return Quantity(v).Ptr()
}
