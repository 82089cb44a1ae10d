package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Patient is the mutable patient record of a session.
type Patient struct {
	WeightKg           *Quantity `json:"weightKg"`
	EBVPresetID        string    `json:"ebvPresetId"`
	EBVOverrideMlPerKg *Quantity `json:"ebvOverrideMlPerKg"`
	ContextFlags       []string  `json:"contextFlags"`
}

// Day is one hospital day. HD is 1-based and kept contiguous.
type Day struct {
	HD          int      `json:"hd"`
	DateISO     string   `json:"dateISO"`
	Orderables  []string `json:"orderables"`
	LineWasteMl Quantity `json:"lineWasteMl"`
}

// State is the persisted patient and day sequence.
type State struct {
	Patient Patient `json:"patient"`
	Days    []Day   `json:"days"`
}

// UnmarshalJSON decodes a patient leniently. Numbers go through
// ParseLenient, and fields of the wrong type read as unset.
func (p *Patient) UnmarshalJSON(data []byte) error {
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	*p = Patient{
		WeightKg:           optionalQuantity(fields["weightKg"]),
		EBVPresetID:        lenientString(fields["ebvPresetId"]),
		EBVOverrideMlPerKg: optionalQuantity(fields["ebvOverrideMlPerKg"]),
		ContextFlags:       lenientStrings(fields["contextFlags"]),
	}
	return nil
}

// UnmarshalJSON decodes a day leniently. hd is truncated to a whole number
// and a value that is not an object reads as an empty day.
func (d *Day) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	fields, _ := objectFields(data)
	*d = Day{
		HD:          lenientOrdinal(fields["hd"]),
		DateISO:     lenientString(fields["dateISO"]),
		Orderables:  lenientStrings(fields["orderables"]),
		LineWasteMl: Quantity(ParseLenient(fields["lineWasteMl"])),
	}
	return nil
}

// Weight returns the usable weight in kg, or 0 when unknown or not positive.
func (p Patient) Weight() float64 {
	if p.WeightKg == nil {
		return 0
	}
	if w := p.WeightKg.Float(); w > 0 {
		return w
	}
	return 0
}

// Override returns the mL/kg override, or 0 when unset or not positive.
func (p Patient) Override() float64 {
	if p.EBVOverrideMlPerKg == nil {
		return 0
	}
	if v := p.EBVOverrideMlPerKg.Float(); v > 0 {
		return v
	}
	return 0
}

// HasOrderable reports whether id is selected for the day.
func (d Day) HasOrderable(id string) bool {
	for _, o := range d.Orderables {
		if o == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{Patient: s.Patient}
	if s.Patient.WeightKg != nil {
		out.Patient.WeightKg = s.Patient.WeightKg.Ptr()
	}
	if s.Patient.EBVOverrideMlPerKg != nil {
		out.Patient.EBVOverrideMlPerKg = s.Patient.EBVOverrideMlPerKg.Ptr()
	}
	if s.Patient.ContextFlags != nil {
		out.Patient.ContextFlags = append([]string{}, s.Patient.ContextFlags...)
	}
	if s.Days != nil {
		out.Days = make([]Day, len(s.Days))
		for i, d := range s.Days {
			out.Days[i] = d
			if d.Orderables != nil {
				out.Days[i].Orderables = append([]string{}, d.Orderables...)
			}
		}
	}
	return out
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func objectFields(data []byte) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func optionalQuantity(raw json.RawMessage) *Quantity {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	return Quantity(ParseLenient(raw)).Ptr()
}

func lenientOrdinal(raw json.RawMessage) int {
	f := math.Trunc(ParseLenient(raw))
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func lenientString(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	s, _ := scalarText(v)
	return s
}

// lenientStrings keeps the string and number items of a JSON list. A value
// that is not a list reads as nil.
func lenientStrings(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalarText(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}
