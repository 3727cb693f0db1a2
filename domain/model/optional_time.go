package model

import (
	"encoding/json"
	"time"
)

// OptionalTime distinguishes an omitted JSON field from an explicit null.
// Set is true only when the field was present in the payload; a present
// field with a null value leaves Time nil. The distinction is carried
// through the reconciler so an omitted effective timestamp preserves the
// stored override while an explicit null clears it.
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Time = nil
		return nil
	}
	return json.Unmarshal(data, &o.Time)
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Time)
}
