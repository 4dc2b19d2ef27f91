package sources

import (
	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
	"github.com/merchantpulse/merchantpulse-backend/pkg/types"
)

// Wire models for the array-style endpoints. Field tags cover the
// variants the upstream services are known to emit; the tolerant types
// absorb formatting drift inside individual fields.

// SalesRecord is one sale event from the sales endpoint.
type SalesRecord struct {
	ID     types.FlexString `json:"id"`
	Date   types.DayTime    `json:"date"`
	Amount money.Value      `json:"amount"`
}

// ProductRecord is one entry from the top products endpoint.
type ProductRecord struct {
	ID        types.FlexString `json:"id"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	UnitsSold types.FlexInt    `json:"units_sold"`
	Revenue   money.Value      `json:"revenue"`
}

// TransactionRecord is one entry from the transactions endpoint.
type TransactionRecord struct {
	ID       types.FlexString `json:"id"`
	Date     types.DayTime    `json:"date"`
	Customer string           `json:"customer"`
	Product  string           `json:"product"`
	Amount   money.Value      `json:"amount"`
	Status   string           `json:"status"`
}

// InventoryRecord is one entry from the inventory endpoint.
type InventoryRecord struct {
	ID       types.FlexString `json:"id"`
	Product  string           `json:"product"`
	Category string           `json:"category"`
	Stock    types.FlexInt    `json:"stock"`
	Reorder  types.FlexInt    `json:"reorder_level"`
}

// CashFlowRecord is one entry from the cash flow endpoint. Positive
// amounts are inflows, negative amounts outflows.
type CashFlowRecord struct {
	ID     types.FlexString `json:"id"`
	Date   types.DayTime    `json:"date"`
	Label  string           `json:"label"`
	Amount money.Value      `json:"amount"`
}

// SummaryPayload is the object body of the summary endpoint.
type SummaryPayload struct {
	TotalSales    money.Value   `json:"total_sales"`
	TotalOrders   types.FlexInt `json:"total_orders"`
	TotalExpenses money.Value   `json:"total_expenses"`
	NewCustomers  types.FlexInt `json:"new_customers"`
}

// NetProfitPayload is the object body of the net profit endpoint.
type NetProfitPayload struct {
	Revenue  money.Value `json:"revenue"`
	Expenses money.Value `json:"expenses"`
	Profit   money.Value `json:"profit"`
}

// ConversionRatePayload is the object body of the conversion rate endpoint.
type ConversionRatePayload struct {
	Visits      types.FlexInt `json:"visits"`
	Conversions types.FlexInt `json:"conversions"`
	Rate        money.Value   `json:"rate"`
}

// PreferencesPayload is the object body of the customer preferences
// endpoint: category name to share of purchases.
type PreferencesPayload map[string]money.Value
