package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayTimeUnmarshalFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "rfc3339", raw: `"2026-03-14T09:30:00Z"`, want: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		{name: "rfc3339 nano", raw: `"2026-03-14T09:30:00.123456789Z"`, want: time.Date(2026, 3, 14, 9, 30, 0, 123456789, time.UTC)},
		{name: "bare date", raw: `"2026-03-14"`, want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "no zone", raw: `"2026-03-14T09:30:00"`, want: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		{name: "null", raw: `null`, want: time.Time{}},
		{name: "garbage", raw: `"not a date"`, want: time.Time{}},
		{name: "number", raw: `1234`, want: time.Time{}},
	}

	for _, tt := range tests {
		var d DayTime
		if err := json.Unmarshal([]byte(tt.raw), &d); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !d.Time.Equal(tt.want) {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, d.Time)
		}
	}
}

func TestDayTimeDayKey(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	d := DayTime{Time: time.Date(2026, 3, 15, 0, 30, 0, 0, loc)}
	if got := d.DayKey(); got != "2026-03-14" {
		t.Fatalf("expected UTC day 2026-03-14, got %s", got)
	}
}

func TestDayTimeMarshal(t *testing.T) {
	d := DayTime{Time: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `"2026-03-14T09:30:00Z"` {
		t.Fatalf("unexpected marshal output %s", out)
	}

	var zero DayTime
	out, err = json.Marshal(zero)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("zero time should marshal to null, got %s", out)
	}
}
