package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/enums"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
)

var ErrUnsupportedEventType = errors.New("unsupported live event type")

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope, payload any) error
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Caps bounds the table sections a live merge may grow.
type Caps struct {
	Transactions int
	Products     int
}

// Router dispatches live envelopes to the configured handler per event type.
type Router struct {
	handlers map[enums.LiveEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(store *snapshot.Store, windows *window.Store, caps Caps, logg *logger.Logger, overrides map[enums.LiveEventType]Handler) (*Router, error) {
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	if windows == nil {
		return nil, errors.New("window store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	merger := newMerger(store, windows, caps, logg)

	entries := map[enums.LiveEventType]handlerEntry{
		enums.LiveEventSummaryUpdate: {
			factory: func() any { return &SummaryUpdateEvent{} },
			handler: HandlerFunc(merger.handleSummary),
		},
		enums.LiveEventSalesUpdate: {
			factory: func() any { return &SalesUpdateEvent{} },
			handler: HandlerFunc(merger.handleSales),
		},
		enums.LiveEventProductsUpdate: {
			factory: func() any { return &ProductsUpdateEvent{} },
			handler: HandlerFunc(merger.handleProducts),
		},
		enums.LiveEventTransactionCreated: {
			factory: func() any { return &TransactionCreatedEvent{} },
			handler: HandlerFunc(merger.handleTransaction),
		},
	}

	for event, custom := range overrides {
		entry, ok := entries[event]
		if !ok || custom == nil {
			continue
		}
		entry.handler = custom
		entries[event] = entry
	}

	return &Router{
		handlers: entries,
		logg:     logg,
	}, nil
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope Envelope, payload any) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, envelope Envelope, payload any) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope, payload)
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	payload := entry.factory()
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
