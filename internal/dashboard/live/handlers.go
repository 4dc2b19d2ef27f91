package live

import (
	"context"
	"fmt"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/money"
)

// merger applies live events to the snapshot store. Every mutation goes
// through mutate, which also clears the stale marker: an applied event
// proves the channel is delivering again.
type merger struct {
	store   *snapshot.Store
	windows *window.Store
	caps    Caps
	logg    *logger.Logger
}

func newMerger(store *snapshot.Store, windows *window.Store, caps Caps, logg *logger.Logger) *merger {
	if caps.Transactions <= 0 {
		caps.Transactions = 100
	}
	if caps.Products <= 0 {
		caps.Products = 100
	}
	return &merger{
		store:   store,
		windows: windows,
		caps:    caps,
		logg:    logg,
	}
}

func (m *merger) mutate(patch func(*snapshot.MetricSnapshot)) {
	m.store.Dispatch(func(snap *snapshot.MetricSnapshot) {
		patch(snap)
		snap.StaleSince = nil
	})
}

func (m *merger) handleSummary(ctx context.Context, envelope Envelope, payload any) error {
	update, ok := payload.(*SummaryUpdateEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	if len(*update) == 0 {
		return nil
	}

	m.mutate(func(snap *snapshot.MetricSnapshot) {
		if snap.Summary == nil {
			snap.Summary = make(map[string]any, len(*update))
		}
		for key, value := range *update {
			snap.Summary[key] = value
		}
	})
	return nil
}

func (m *merger) handleSales(ctx context.Context, envelope Envelope, payload any) error {
	update, ok := payload.(*SalesUpdateEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	if update.Date.IsZero() {
		m.logg.Warn(ctx, "dropping sales event without a date")
		return nil
	}

	win, _ := m.windows.Current()
	if !win.Contains(update.Date.Time) {
		m.logg.Debug(ctx, "sales event outside the reporting window")
		return nil
	}

	m.mutate(func(snap *snapshot.MetricSnapshot) {
		snap.SalesSeries = snapshot.BucketAdd(snap.SalesSeries, update.Date.DayKey(), update.Amount.Round2())
	})
	return nil
}

func (m *merger) handleProducts(ctx context.Context, envelope Envelope, payload any) error {
	update, ok := payload.(*ProductsUpdateEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	if len(update.Products) == 0 {
		return nil
	}

	m.mutate(func(snap *snapshot.MetricSnapshot) {
		for _, entry := range update.Products {
			name := entry.Name
			if name == "" {
				name = "Unnamed product"
			}
			category := entry.Category
			if category == "" {
				category = "N/A"
			}
			snap.TopProducts = append(snap.TopProducts, snapshot.Product{
				ID:        entry.ID.String(),
				Name:      name,
				Category:  category,
				UnitsSold: entry.UnitsSold.Int(),
				Revenue:   money.Value{Amount: entry.Revenue.Round2(), Valid: true},
			})
		}
		// Oldest rows leave first once the table is full.
		if overflow := len(snap.TopProducts) - m.caps.Products; overflow > 0 {
			snap.TopProducts = append([]snapshot.Product(nil), snap.TopProducts[overflow:]...)
		}
	})
	return nil
}

func (m *merger) handleTransaction(ctx context.Context, envelope Envelope, payload any) error {
	update, ok := payload.(*TransactionCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	if update.Date.IsZero() {
		m.logg.Warn(ctx, "dropping transaction event without a date")
		return nil
	}

	tx := snapshot.Transaction{
		ID:       update.ID.String(),
		Day:      update.Date.DayKey(),
		Customer: update.Customer,
		Product:  update.Product,
		Amount:   money.Value{Amount: update.Amount.Round2(), Valid: true},
		Status:   update.Status,
	}

	m.mutate(func(snap *snapshot.MetricSnapshot) {
		snap.Transactions = append([]snapshot.Transaction{tx}, snap.Transactions...)
		if len(snap.Transactions) > m.caps.Transactions {
			snap.Transactions = snap.Transactions[:m.caps.Transactions]
		}
	})
	return nil
}
