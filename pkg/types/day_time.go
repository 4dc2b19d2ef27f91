package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// DayTime is a timestamp that tolerates the date formats upstream sources
// actually emit: RFC 3339 with or without fractional seconds, or a bare
// calendar date. Values that cannot be parsed unmarshal to the zero time
// instead of failing the whole payload.
type DayTime struct {
	time.Time
}

var dayTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (d *DayTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		d.Time = time.Time{}
		return nil
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range dayTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed.UTC()
			return nil
		}
	}

	d.Time = time.Time{}
	return nil
}

func (d DayTime) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

// DayKey returns the UTC calendar day the timestamp falls on, formatted
// as YYYY-MM-DD. Callers use it as a bucket key for daily series.
func (d DayTime) DayKey() string {
	return d.Time.UTC().Format("2006-01-02")
}
