package httputil

import (
	"bytes"
	"encoding/json"
	"time"
)

// OptionalTime tracks presence and value for JSON PATCH semantics
// (RFC 7396), like OptionalString but for timestamps:
//   - Present=false: field absent from JSON (don't change)
//   - Present=true, Value=nil: field is JSON null (clear)
//   - Present=true, Value set: field has a timestamp
type OptionalTime struct {
	Present bool
	Value   *time.Time
}

// UnmarshalJSON implements json.Unmarshaler. Accepts RFC 3339
// timestamps and bare dates.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return err
		}
	}
	o.Value = &t
	return nil
}
