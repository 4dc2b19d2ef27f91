package sources

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
)

// Source IDs as they appear in fetch reports, snapshot error maps, and
// metrics labels.
const (
	IDSummary        = "summary"
	IDSales          = "sales"
	IDTopProducts    = "top_products"
	IDTransactions   = "transactions"
	IDNetProfit      = "net_profit"
	IDConversionRate = "conversion_rate"
	IDPreferences    = "preferences"
	IDInventory      = "inventory"
	IDCashFlow       = "cash_flow"
)

// Source is a single upstream metric endpoint.
type Source interface {
	ID() string
	Critical() bool
	Fetch(ctx context.Context, win window.Window) (Payload, error)
}

// Payload is the tolerant response envelope. Upstream endpoints answer
// either with a bare JSON array, with an object wrapping the array under
// "results", or with a plain object for scalar metrics. All three decode
// without error.
type Payload struct {
	Records []json.RawMessage
	Object  json.RawMessage
	Count   int
}

type resultsEnvelope struct {
	Results []json.RawMessage `json:"results"`
	Count   *int              `json:"count"`
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Payload{}
		return nil
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return err
		}
		*p = Payload{Records: records, Count: len(records)}
		return nil
	}

	var envelope resultsEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Results != nil {
		count := len(envelope.Results)
		if envelope.Count != nil {
			count = *envelope.Count
		}
		*p = Payload{Records: envelope.Results, Count: count}
		return nil
	}

	*p = Payload{Object: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// IsEmpty reports whether the payload carries neither records nor an object.
func (p Payload) IsEmpty() bool {
	return len(p.Records) == 0 && len(p.Object) == 0
}
