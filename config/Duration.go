package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration which is written to JSON as a string
// such as "1.5s". Plain numbers are read as nanoseconds.
type Duration time.Duration

// MarshalJSON implements the json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("unmarshaljson: %w", err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("unmarshaljson: duration must be a string or "+
			"an integer: %w", err)
	}
	*d = Duration(ns)
	return nil
}
