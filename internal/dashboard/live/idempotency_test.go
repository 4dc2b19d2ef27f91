package live

import (
	"context"
	"testing"
	"time"
)

type fakeIdemStore struct {
	data map[string]string
}

func (f *fakeIdemStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = "1"
	return true, nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return "mp:idempotency:" + scope + ":" + id
}

func (f *fakeIdemStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestIdempotencyManagerMarkAndRetry(t *testing.T) {
	ctx := context.Background()
	manager, err := NewIdempotencyManager(&fakeIdemStore{data: map[string]string{}}, time.Hour)
	if err != nil {
		t.Fatalf("manager setup: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(ctx, "dashboard-live", "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if already {
		t.Fatal("first delivery should not be marked processed")
	}

	already, err = manager.CheckAndMarkProcessed(ctx, "dashboard-live", "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !already {
		t.Fatal("second delivery should be detected as duplicate")
	}

	if err := manager.Delete(ctx, "dashboard-live", "evt-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	already, err = manager.CheckAndMarkProcessed(ctx, "dashboard-live", "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if already {
		t.Fatal("deleted marker should allow a retry")
	}
}

func TestIdempotencyManagerValidation(t *testing.T) {
	if _, err := NewIdempotencyManager(nil, time.Hour); err == nil {
		t.Fatal("nil store must be rejected")
	}

	manager, err := NewIdempotencyManager(&fakeIdemStore{data: map[string]string{}}, time.Hour)
	if err != nil {
		t.Fatalf("manager setup: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", "evt-1"); err == nil {
		t.Fatal("empty consumer must be rejected")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "dashboard-live", "  "); err == nil {
		t.Fatal("blank event id must be rejected")
	}
}
