package live

import (
	"encoding/json"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/pkg/enums"
	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
	"github.com/merchantpulse/merchantpulse-backend/pkg/types"
)

// Envelope is a decoded live event ready for routing.
type Envelope struct {
	EventID    string
	EventType  enums.LiveEventType
	OccurredAt time.Time
	Payload    json.RawMessage
}

// payloadEnvelope is the wire shape of a live message body.
type payloadEnvelope struct {
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// SummaryUpdateEvent carries a partial summary; present keys overwrite
// the matching snapshot keys, absent keys are left alone.
type SummaryUpdateEvent map[string]any

// SalesUpdateEvent is a single sale to merge into the sales series.
type SalesUpdateEvent struct {
	ID     types.FlexString `json:"id"`
	Date   types.DayTime    `json:"date"`
	Amount money.Value      `json:"amount"`
}

// ProductsUpdateEvent carries product rows to append to the top
// products table.
type ProductsUpdateEvent struct {
	Products []ProductEntry `json:"products"`
}

// ProductEntry mirrors the top products wire shape.
type ProductEntry struct {
	ID        types.FlexString `json:"id"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	UnitsSold types.FlexInt    `json:"units_sold"`
	Revenue   money.Value      `json:"revenue"`
}

// TransactionCreatedEvent is a new transaction to prepend to the table.
type TransactionCreatedEvent struct {
	ID       types.FlexString `json:"id"`
	Date     types.DayTime    `json:"date"`
	Customer string           `json:"customer"`
	Product  string           `json:"product"`
	Amount   money.Value      `json:"amount"`
	Status   string           `json:"status"`
}
