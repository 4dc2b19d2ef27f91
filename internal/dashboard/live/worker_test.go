package live

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/merchantpulse/merchantpulse-backend/pkg/enums"
)

type fakeManager struct {
	processed map[string]bool
	deleted   []string
	checkErr  error
}

func newFakeManager() *fakeManager {
	return &fakeManager{processed: make(map[string]bool)}
}

func (f *fakeManager) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	key := consumer + ":" + eventID
	if f.processed[key] {
		return true, nil
	}
	f.processed[key] = true
	return false, nil
}

func (f *fakeManager) Delete(ctx context.Context, consumer, eventID string) error {
	key := consumer + ":" + eventID
	delete(f.processed, key)
	f.deleted = append(f.deleted, eventID)
	return nil
}

type recordingHandler struct {
	envelopes []Envelope
	err       error
}

func (r *recordingHandler) Handle(ctx context.Context, envelope Envelope) error {
	r.envelopes = append(r.envelopes, envelope)
	return r.err
}

func testService(t *testing.T, handler EnvelopeHandler, manager idempotencyChecker) *Service {
	t.Helper()
	return &Service{
		subscription: &gcppubsub.Subscriber{},
		handler:      handler,
		manager:      manager,
		logg:         testLogger(),
	}
}

func liveMessage(id, eventType, body string) *gcppubsub.Message {
	return &gcppubsub.Message{
		ID:         id,
		Data:       []byte(body),
		Attributes: map[string]string{"event_type": eventType},
	}
}

func TestProcessHandlesEvent(t *testing.T) {
	handler := &recordingHandler{}
	manager := newFakeManager()
	service := testService(t, handler, manager)

	msg := liveMessage("m-1", "sales_update",
		`{"event_id":"evt-9","occurred_at":"2026-03-14T10:00:00Z","data":{"id":"s1","date":"2026-03-14","amount":5}}`)

	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("successful processing should ack")
	}
	if len(handler.envelopes) != 1 {
		t.Fatalf("expected 1 handled envelope, got %d", len(handler.envelopes))
	}
	envelope := handler.envelopes[0]
	if envelope.EventID != "evt-9" {
		t.Fatalf("unexpected event id %q", envelope.EventID)
	}
	if envelope.EventType != enums.LiveEventSalesUpdate {
		t.Fatalf("unexpected event type %q", envelope.EventType)
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatal("occurred_at should be carried")
	}
}

func TestProcessDuplicateSkipsHandler(t *testing.T) {
	handler := &recordingHandler{}
	manager := newFakeManager()
	service := testService(t, handler, manager)

	msg := liveMessage("m-1", "sales_update",
		`{"event_id":"evt-9","data":{"id":"s1","date":"2026-03-14","amount":5}}`)

	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("first delivery should ack")
	}
	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("duplicate should ack without redelivery")
	}
	if len(handler.envelopes) != 1 {
		t.Fatalf("duplicate must not reach the handler, got %d calls", len(handler.envelopes))
	}
}

func TestProcessFallsBackToMessageID(t *testing.T) {
	handler := &recordingHandler{}
	service := testService(t, handler, newFakeManager())

	msg := liveMessage("broker-77", "sales_update", `{"data":{"id":"s1","date":"2026-03-14","amount":5}}`)

	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("expected ack")
	}
	if handler.envelopes[0].EventID != "broker-77" {
		t.Fatalf("expected broker message id fallback, got %q", handler.envelopes[0].EventID)
	}
}

func TestProcessHandlerFailureNacksAndUnmarks(t *testing.T) {
	handler := &recordingHandler{err: errors.New("merge failed")}
	manager := newFakeManager()
	service := testService(t, handler, manager)

	msg := liveMessage("m-1", "sales_update",
		`{"event_id":"evt-9","data":{"id":"s1","date":"2026-03-14","amount":5}}`)

	if result := service.process(context.Background(), msg); !result.nack {
		t.Fatal("handler failure should nack for redelivery")
	}
	if len(manager.deleted) != 1 || manager.deleted[0] != "evt-9" {
		t.Fatalf("processed marker must be removed on failure, got %v", manager.deleted)
	}
}

func TestProcessUnsupportedTypeAcks(t *testing.T) {
	handler := &recordingHandler{err: fmt.Errorf("%w: order_shipped", ErrUnsupportedEventType)}
	service := testService(t, handler, newFakeManager())

	msg := liveMessage("m-1", "order_shipped", `{"event_id":"evt-9","data":{"id":1}}`)

	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("unsupported event type must be acked, not redelivered")
	}
}

func TestProcessInvalidEnvelopeAcks(t *testing.T) {
	handler := &recordingHandler{}
	service := testService(t, handler, newFakeManager())

	msg := liveMessage("m-1", "sales_update", `not json`)

	if result := service.process(context.Background(), msg); result.nack {
		t.Fatal("poison message should be acked away")
	}
	if len(handler.envelopes) != 0 {
		t.Fatal("invalid envelope must not reach the handler")
	}
}

func TestProcessIdempotencyErrorNacks(t *testing.T) {
	manager := newFakeManager()
	manager.checkErr = errors.New("redis down")
	service := testService(t, &recordingHandler{}, manager)

	msg := liveMessage("m-1", "sales_update", `{"event_id":"evt-9","data":{"id":1}}`)

	if result := service.process(context.Background(), msg); !result.nack {
		t.Fatal("idempotency failure should nack")
	}
}

func TestBuildEnvelopeOccurredAtFromAttribute(t *testing.T) {
	service := testService(t, &recordingHandler{}, newFakeManager())
	msg := liveMessage("m-1", "sales_update", `{"event_id":"evt-9","data":{"id":1}}`)
	msg.Attributes["occurred_at"] = "2026-03-14T10:00:00Z"

	envelope, err := service.buildEnvelope(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if !envelope.OccurredAt.Equal(want) {
		t.Fatalf("expected %v got %v", want, envelope.OccurredAt)
	}
}
