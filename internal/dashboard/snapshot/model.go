package snapshot

import (
	"sort"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// SalesPoint is one day of the sales series. Day is the UTC calendar day
// in YYYY-MM-DD form; the series is kept sorted ascending by Day.
type SalesPoint struct {
	Day    string      `json:"day"`
	Amount money.Value `json:"amount"`
}

// Product is one row of the top products table.
type Product struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	UnitsSold int         `json:"units_sold"`
	Revenue   money.Value `json:"revenue"`
}

// Transaction is one row of the recent transactions table, newest first.
type Transaction struct {
	ID       string      `json:"id"`
	Day      string      `json:"day"`
	Customer string      `json:"customer"`
	Product  string      `json:"product"`
	Amount   money.Value `json:"amount"`
	Status   string      `json:"status"`
}

// InventoryItem is one row of the inventory table.
type InventoryItem struct {
	ID       string `json:"id"`
	Product  string `json:"product"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
	Reorder  int    `json:"reorder_level"`
	LowStock bool   `json:"low_stock"`
}

// CashFlowEntry is one movement in the cash flow ledger with the running
// balance after it was applied.
type CashFlowEntry struct {
	Day     string      `json:"day"`
	Label   string      `json:"label"`
	Amount  money.Value `json:"amount"`
	Balance money.Value `json:"balance"`
}

// NetProfit is the profit breakdown block.
type NetProfit struct {
	Revenue  money.Value `json:"revenue"`
	Expenses money.Value `json:"expenses"`
	Profit   money.Value `json:"profit"`
}

// ConversionRate is the conversion block.
type ConversionRate struct {
	Visits      int         `json:"visits"`
	Conversions int         `json:"conversions"`
	Rate        money.Value `json:"rate"`
}

// MetricSnapshot is the full dashboard state handed to readers. Values
// are plain data; a snapshot returned from the store is a private copy
// the caller may keep.
type MetricSnapshot struct {
	Summary        map[string]any         `json:"summary"`
	SalesSeries    []SalesPoint           `json:"sales_series"`
	TopProducts    []Product              `json:"top_products"`
	Transactions   []Transaction          `json:"transactions"`
	Inventory      []InventoryItem        `json:"inventory"`
	CashFlow       []CashFlowEntry        `json:"cash_flow"`
	NetProfit      NetProfit              `json:"net_profit"`
	ConversionRate ConversionRate         `json:"conversion_rate"`
	Preferences    map[string]money.Value `json:"preferences"`

	// SourceErrors maps source IDs to the failure seen in the last fetch
	// cycle. BannerError is set when a critical source failed or came
	// back empty.
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	BannerError  string            `json:"banner_error,omitempty"`

	Generation uint64     `json:"generation"`
	StaleSince *time.Time `json:"stale_since,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Clone returns a deep copy safe to hand outside the store.
func (m MetricSnapshot) Clone() MetricSnapshot {
	out := m
	if m.Summary != nil {
		out.Summary = make(map[string]any, len(m.Summary))
		for k, v := range m.Summary {
			out.Summary[k] = v
		}
	}
	if m.Preferences != nil {
		out.Preferences = make(map[string]money.Value, len(m.Preferences))
		for k, v := range m.Preferences {
			out.Preferences[k] = v
		}
	}
	if m.SourceErrors != nil {
		out.SourceErrors = make(map[string]string, len(m.SourceErrors))
		for k, v := range m.SourceErrors {
			out.SourceErrors[k] = v
		}
	}
	out.SalesSeries = append([]SalesPoint(nil), m.SalesSeries...)
	out.TopProducts = append([]Product(nil), m.TopProducts...)
	out.Transactions = append([]Transaction(nil), m.Transactions...)
	out.Inventory = append([]InventoryItem(nil), m.Inventory...)
	out.CashFlow = append([]CashFlowEntry(nil), m.CashFlow...)
	if m.StaleSince != nil {
		ts := *m.StaleSince
		out.StaleSince = &ts
	}
	return out
}

// BucketAdd merges an amount into the day bucket for day, inserting a new
// point if the day is not present yet. The series stays sorted ascending
// by day; decimal addition keeps repeated merges exact.
func BucketAdd(series []SalesPoint, day string, amount decimal.Decimal) []SalesPoint {
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Day >= day
	})
	if idx < len(series) && series[idx].Day == day {
		series[idx].Amount = money.Value{
			Amount: series[idx].Amount.Amount.Add(amount),
			Valid:  true,
		}
		return series
	}
	point := SalesPoint{Day: day, Amount: money.Value{Amount: amount, Valid: true}}
	series = append(series, SalesPoint{})
	copy(series[idx+1:], series[idx:])
	series[idx] = point
	return series
}
