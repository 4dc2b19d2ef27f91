package money

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a monetary amount decoded leniently from upstream payloads.
// Sources emit amounts as JSON numbers, as plain numeric strings, or as
// display strings with a currency symbol and thousands separators. Anything
// unparsable decodes to zero with Valid set to false so a record is never
// dropped over a bad amount field.
type Value struct {
	Amount decimal.Decimal
	Valid  bool
}

func FromFloat(f float64) Value {
	return Value{Amount: decimal.NewFromFloat(f), Valid: true}
}

func Zero() Value {
	return Value{Amount: decimal.Zero, Valid: true}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Value{Amount: decimal.Zero, Valid: false}
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(trimmed, &asNumber); err == nil {
		if amount, err := decimal.NewFromString(asNumber.String()); err == nil {
			*v = Value{Amount: amount, Valid: true}
			return nil
		}
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil {
		if amount, ok := parseDisplayAmount(asString); ok {
			*v = Value{Amount: amount, Valid: true}
			return nil
		}
	}

	*v = Value{Amount: decimal.Zero, Valid: false}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Amount.Round(2).String()), nil
}

// Round2 returns the amount rounded half-up to two decimal places.
func (v Value) Round2() decimal.Decimal {
	return v.Amount.Round(2)
}

func (v Value) Float64() float64 {
	f, _ := v.Amount.Round(2).Float64()
	return f
}

var currencyMarkers = []string{"₦", "$", "€", "£", "NGN", "USD", "EUR", "GBP"}

// parseDisplayAmount strips currency markers, thousands separators, and
// whitespace from a display string before parsing it as a decimal.
func parseDisplayAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, false
	}

	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
