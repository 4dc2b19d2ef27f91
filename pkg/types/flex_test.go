package types

import (
	"encoding/json"
	"testing"
)

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want FlexString
	}{
		{raw: `"ord-991"`, want: "ord-991"},
		{raw: `991`, want: "991"},
		{raw: `12.5`, want: "12.5"},
		{raw: `null`, want: ""},
		{raw: `{"nested":true}`, want: ""},
	}

	for _, tt := range tests {
		var f FlexString
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("raw %s: unexpected error: %v", tt.raw, err)
		}
		if f != tt.want {
			t.Fatalf("raw %s: expected %q got %q", tt.raw, tt.want, f)
		}
	}
}

func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want FlexInt
	}{
		{raw: `42`, want: 42},
		{raw: `"42"`, want: 42},
		{raw: `"42.9"`, want: 42},
		{raw: `42.9`, want: 42},
		{raw: `null`, want: 0},
		{raw: `"many"`, want: 0},
	}

	for _, tt := range tests {
		var f FlexInt
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("raw %s: unexpected error: %v", tt.raw, err)
		}
		if f != tt.want {
			t.Fatalf("raw %s: expected %d got %d", tt.raw, tt.want, f)
		}
	}
}
