package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/merchantpulse/merchantpulse-backend/pkg/enums"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/metrics"
)

const liveConsumerName = "dashboard-live"

// EnvelopeHandler defines how to process live envelopes.
type EnvelopeHandler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

// Service consumes live events from Pub/Sub while honoring Redis
// idempotency. Receive runs with a single goroutine so events apply to
// the snapshot in arrival order.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      EnvelopeHandler
	manager      idempotencyChecker
	logg         *logger.Logger
	metrics      *metrics.DashboardMetrics
}

// NewService creates a new live worker service.
func NewService(subscription *gcppubsub.Subscriber, handler EnvelopeHandler, manager idempotencyChecker, logg *logger.Logger, m *metrics.DashboardMetrics) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("live subscription is required")
	}
	if handler == nil {
		return nil, errors.New("live handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	subscription.ReceiveSettings.NumGoroutines = 1

	return &Service{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
		metrics:      m,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming live messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
	}
	logCtx := s.logg.WithFields(ctx, fields)

	envelope, err := s.buildEnvelope(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid live envelope")
		s.metrics.IncLiveEvent("unknown", "invalid")
		return processResult{}
	}
	fields["event_id"] = envelope.EventID
	fields["event_type"] = envelope.EventType
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = s.logg.WithFields(ctx, fields)

	already, err := s.manager.CheckAndMarkProcessed(logCtx, liveConsumerName, envelope.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "event already processed")
		s.metrics.IncLiveEvent(string(envelope.EventType), "duplicate")
		return processResult{}
	}

	if err := s.handler.Handle(logCtx, *envelope); err != nil {
		if errors.Is(err, ErrUnsupportedEventType) {
			s.logg.Warn(logCtx, "unsupported live event type")
			s.metrics.IncLiveEvent(string(envelope.EventType), "unsupported")
			return processResult{}
		}
		s.logg.Error(logCtx, "handler error", err)
		_ = s.manager.Delete(logCtx, liveConsumerName, envelope.EventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "live event applied")
	s.metrics.IncLiveEvent(string(envelope.EventType), "applied")
	return processResult{}
}

func (s *Service) buildEnvelope(msg *gcppubsub.Message) (*Envelope, error) {
	var stored payloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventTypeStr := strings.TrimSpace(msg.Attributes["event_type"])
	eventType, err := enums.ParseLiveEventType(eventTypeStr)
	if err != nil {
		// Route anyway so the router reports it as unsupported; the
		// raw value still shows up in logs and metrics.
		eventType = enums.LiveEventType(eventTypeStr)
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if eventID == "" {
		// Live publishers do not always stamp event IDs; the broker
		// message ID still dedupes redeliveries.
		eventID = msg.ID
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if created := strings.TrimSpace(msg.Attributes["occurred_at"]); created != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
				occurredAt = parsed
			}
		}
	}

	return &Envelope{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: occurredAt.UTC(),
		Payload:    stored.Data,
	}, nil
}
