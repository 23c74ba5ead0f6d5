package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// OptionalString records how a JSON field was supplied: absent, null, a
// string, or some other JSON type. It never fails to decode, so type errors
// surface as field-level validation failures instead of a body parse error.
type OptionalString struct {
	Set    bool
	Null   bool
	Valid  bool
	String string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	o.Valid = true
	o.String = s
	return nil
}

// Value returns the string if one was supplied, otherwise "".
func (o OptionalString) Value() string {
	if !o.Valid {
		return ""
	}
	return o.String
}

// OptionalInt is OptionalString's counterpart for integral JSON numbers.
// Fractional numbers and non-numbers leave Valid false. Whole numbers beyond
// the int32 range are clamped to its bounds.
type OptionalInt struct {
	Set   bool
	Null  bool
	Valid bool
	Int   int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil
	}
	o.Valid = true
	o.Int = int(max(min(f, math.MaxInt32), math.MinInt32))
	return nil
}

func (o OptionalInt) Value() int {
	if !o.Valid {
		return 0
	}
	return o.Int
}
