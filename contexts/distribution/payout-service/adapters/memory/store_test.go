package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tokendrop/contexts/distribution/payout-service/ports"
)

func TestMarkOutboxPublishedTrimsIdentifier(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:    "event-1",
		EventType:  "payout.completed",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(ctx, "  event-1  ", time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}

	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published row must leave the pending set, got %d rows", len(pending))
	}
}
