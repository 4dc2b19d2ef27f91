package aggregate

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/fetch"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/sources"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
	"github.com/shopspring/decimal"
)

const (
	placeholderProductName = "Unnamed product"
	placeholderCategory    = "N/A"
)

// Builder turns a raw fetch report into a display-ready snapshot.
// Records with an unusable amount are kept with a zero value; records
// with no usable date are dropped because they cannot be placed in the
// window. Every record is re-checked against the window even though the
// sources were queried with it, since upstream filtering is not trusted.
type Builder struct {
	transactionsCap int
	productsCap     int
	logg            *logger.Logger
}

func NewBuilder(transactionsCap, productsCap int, logg *logger.Logger) *Builder {
	if transactionsCap <= 0 {
		transactionsCap = 100
	}
	if productsCap <= 0 {
		productsCap = 100
	}
	return &Builder{
		transactionsCap: transactionsCap,
		productsCap:     productsCap,
		logg:            logg,
	}
}

// Build aggregates every source result in the report. A failed source
// lands in SourceErrors and keeps the section it published last cycle,
// so a transient failure never blanks data the dashboard already shows;
// the banner is set when critical data is missing.
func (b *Builder) Build(ctx context.Context, report fetch.Report, prev snapshot.MetricSnapshot) snapshot.MetricSnapshot {
	snap := snapshot.MetricSnapshot{
		Generation:   report.Generation,
		SourceErrors: map[string]string{},
	}

	for id, result := range report.Results {
		if result.Err != nil {
			snap.SourceErrors[id] = result.Err.Error()
			carryForward(&snap, prev, id)
			continue
		}

		sctx := b.logg.WithSource(ctx, id)
		switch id {
		case sources.IDSummary:
			snap.Summary = b.buildSummary(result.Payload)
		case sources.IDSales:
			snap.SalesSeries = b.buildSales(sctx, result.Payload, report.Window)
		case sources.IDTopProducts:
			snap.TopProducts = b.buildProducts(sctx, result.Payload)
		case sources.IDTransactions:
			snap.Transactions = b.buildTransactions(sctx, result.Payload, report.Window)
		case sources.IDNetProfit:
			snap.NetProfit = b.buildNetProfit(result.Payload)
		case sources.IDConversionRate:
			snap.ConversionRate = b.buildConversionRate(result.Payload)
		case sources.IDPreferences:
			snap.Preferences = b.buildPreferences(result.Payload)
		case sources.IDInventory:
			snap.Inventory = b.buildInventory(sctx, result.Payload)
		case sources.IDCashFlow:
			snap.CashFlow = b.buildCashFlow(sctx, result.Payload, report.Window)
		}
	}

	if err := report.CriticalErr(); err != nil {
		snap.BannerError = err.Error()
	}
	if len(snap.SourceErrors) == 0 {
		snap.SourceErrors = nil
	}
	return snap
}

func carryForward(snap *snapshot.MetricSnapshot, prev snapshot.MetricSnapshot, id string) {
	switch id {
	case sources.IDSummary:
		snap.Summary = prev.Summary
	case sources.IDSales:
		snap.SalesSeries = prev.SalesSeries
	case sources.IDTopProducts:
		snap.TopProducts = prev.TopProducts
	case sources.IDTransactions:
		snap.Transactions = prev.Transactions
	case sources.IDNetProfit:
		snap.NetProfit = prev.NetProfit
	case sources.IDConversionRate:
		snap.ConversionRate = prev.ConversionRate
	case sources.IDPreferences:
		snap.Preferences = prev.Preferences
	case sources.IDInventory:
		snap.Inventory = prev.Inventory
	case sources.IDCashFlow:
		snap.CashFlow = prev.CashFlow
	}
}

func (b *Builder) buildSummary(payload sources.Payload) map[string]any {
	var body sources.SummaryPayload
	if len(payload.Object) == 0 || json.Unmarshal(payload.Object, &body) != nil {
		return nil
	}
	return map[string]any{
		"total_sales":    body.TotalSales.Float64(),
		"total_orders":   body.TotalOrders.Int(),
		"total_expenses": body.TotalExpenses.Float64(),
		"new_customers":  body.NewCustomers.Int(),
	}
}

func (b *Builder) buildSales(ctx context.Context, payload sources.Payload, win window.Window) []snapshot.SalesPoint {
	var series []snapshot.SalesPoint
	for _, raw := range payload.Records {
		var record sources.SalesRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			b.logg.Debug(ctx, "skipping undecodable sales record")
			continue
		}
		if record.Date.IsZero() {
			b.logg.Debug(ctx, "dropping sales record without a date")
			continue
		}
		if !win.Contains(record.Date.Time) {
			continue
		}
		if !record.Amount.Valid {
			b.logg.Warn(ctx, "sales record amount unparsable, counting as zero")
		}
		series = snapshot.BucketAdd(series, record.Date.DayKey(), record.Amount.Round2())
	}
	for i := range series {
		series[i].Amount = money.Value{Amount: series[i].Amount.Round2(), Valid: true}
	}
	return series
}

func (b *Builder) buildProducts(ctx context.Context, payload sources.Payload) []snapshot.Product {
	var products []snapshot.Product
	for _, raw := range payload.Records {
		if len(products) >= b.productsCap {
			break
		}
		var record sources.ProductRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			b.logg.Debug(ctx, "skipping undecodable product record")
			continue
		}
		name := record.Name
		if name == "" {
			name = placeholderProductName
		}
		category := record.Category
		if category == "" {
			category = placeholderCategory
		}
		products = append(products, snapshot.Product{
			ID:        record.ID.String(),
			Name:      name,
			Category:  category,
			UnitsSold: record.UnitsSold.Int(),
			Revenue:   money.Value{Amount: record.Revenue.Round2(), Valid: true},
		})
	}
	return products
}

func (b *Builder) buildTransactions(ctx context.Context, payload sources.Payload, win window.Window) []snapshot.Transaction {
	type dated struct {
		tx  snapshot.Transaction
		ts  int64
		seq int
	}
	var rows []dated
	for i, raw := range payload.Records {
		var record sources.TransactionRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			b.logg.Debug(ctx, "skipping undecodable transaction record")
			continue
		}
		if record.Date.IsZero() {
			b.logg.Debug(ctx, "dropping transaction without a date")
			continue
		}
		if !win.Contains(record.Date.Time) {
			continue
		}
		if !record.Amount.Valid {
			b.logg.Warn(ctx, "transaction amount unparsable, counting as zero")
		}
		rows = append(rows, dated{
			tx: snapshot.Transaction{
				ID:       record.ID.String(),
				Day:      record.Date.DayKey(),
				Customer: record.Customer,
				Product:  record.Product,
				Amount:   money.Value{Amount: record.Amount.Round2(), Valid: true},
				Status:   record.Status,
			},
			ts:  record.Date.UnixNano(),
			seq: i,
		})
	}

	// Newest first; source order breaks ties so repeated builds are stable.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ts != rows[j].ts {
			return rows[i].ts > rows[j].ts
		}
		return rows[i].seq < rows[j].seq
	})

	if len(rows) > b.transactionsCap {
		rows = rows[:b.transactionsCap]
	}
	out := make([]snapshot.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.tx)
	}
	return out
}

func (b *Builder) buildNetProfit(payload sources.Payload) snapshot.NetProfit {
	var body sources.NetProfitPayload
	if len(payload.Object) == 0 || json.Unmarshal(payload.Object, &body) != nil {
		return snapshot.NetProfit{}
	}
	profit := body.Profit
	if !profit.Valid {
		profit = money.Value{Amount: body.Revenue.Amount.Sub(body.Expenses.Amount), Valid: true}
	}
	return snapshot.NetProfit{
		Revenue:  money.Value{Amount: body.Revenue.Round2(), Valid: true},
		Expenses: money.Value{Amount: body.Expenses.Round2(), Valid: true},
		Profit:   money.Value{Amount: profit.Round2(), Valid: true},
	}
}

func (b *Builder) buildConversionRate(payload sources.Payload) snapshot.ConversionRate {
	var body sources.ConversionRatePayload
	if len(payload.Object) == 0 || json.Unmarshal(payload.Object, &body) != nil {
		return snapshot.ConversionRate{}
	}
	rate := body.Rate
	if !rate.Valid && body.Visits.Int() > 0 {
		computed := decimal.NewFromInt(int64(body.Conversions.Int())).
			Div(decimal.NewFromInt(int64(body.Visits.Int()))).
			Mul(decimal.NewFromInt(100))
		rate = money.Value{Amount: computed, Valid: true}
	}
	return snapshot.ConversionRate{
		Visits:      body.Visits.Int(),
		Conversions: body.Conversions.Int(),
		Rate:        money.Value{Amount: rate.Round2(), Valid: true},
	}
}

func (b *Builder) buildPreferences(payload sources.Payload) map[string]money.Value {
	var body sources.PreferencesPayload
	if len(payload.Object) == 0 || json.Unmarshal(payload.Object, &body) != nil {
		return nil
	}
	out := make(map[string]money.Value, len(body))
	for category, share := range body {
		out[category] = money.Value{Amount: share.Round2(), Valid: true}
	}
	return out
}

func (b *Builder) buildInventory(ctx context.Context, payload sources.Payload) []snapshot.InventoryItem {
	var items []snapshot.InventoryItem
	for _, raw := range payload.Records {
		var record sources.InventoryRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			b.logg.Debug(ctx, "skipping undecodable inventory record")
			continue
		}
		product := record.Product
		if product == "" {
			product = placeholderProductName
		}
		category := record.Category
		if category == "" {
			category = placeholderCategory
		}
		items = append(items, snapshot.InventoryItem{
			ID:       record.ID.String(),
			Product:  product,
			Category: category,
			Stock:    record.Stock.Int(),
			Reorder:  record.Reorder.Int(),
			LowStock: record.Stock.Int() <= record.Reorder.Int(),
		})
	}
	return items
}

func (b *Builder) buildCashFlow(ctx context.Context, payload sources.Payload, win window.Window) []snapshot.CashFlowEntry {
	type bucket struct {
		first  sources.CashFlowRecord
		amount decimal.Decimal
		count  int
	}
	buckets := map[string]*bucket{}
	for _, raw := range payload.Records {
		var record sources.CashFlowRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			b.logg.Debug(ctx, "skipping undecodable cash flow record")
			continue
		}
		if record.Date.IsZero() {
			b.logg.Debug(ctx, "dropping cash flow record without a date")
			continue
		}
		if !record.Amount.Valid {
			b.logg.Warn(ctx, "cash flow amount unparsable, counting as zero")
		}
		key := record.Date.DayKey()
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{first: record}
			buckets[key] = bk
		}
		bk.amount = bk.amount.Add(record.Amount.Round2())
		bk.count++
	}

	days := make([]string, 0, len(buckets))
	for key := range buckets {
		days = append(days, key)
	}
	sort.Strings(days)

	// The running balance accumulates over the in-window days only; one
	// entry per calendar day, several movements on a day sum into it.
	balance := decimal.Zero
	var entries []snapshot.CashFlowEntry
	for _, day := range days {
		bk := buckets[day]
		if !win.Contains(bk.first.Date.Time) {
			continue
		}
		label := bk.first.Label
		if bk.count > 1 {
			label = ""
		}
		balance = balance.Add(bk.amount)
		entries = append(entries, snapshot.CashFlowEntry{
			Day:     day,
			Label:   label,
			Amount:  money.Value{Amount: bk.amount.Round(2), Valid: true},
			Balance: money.Value{Amount: balance.Round(2), Valid: true},
		})
	}
	return entries
}
