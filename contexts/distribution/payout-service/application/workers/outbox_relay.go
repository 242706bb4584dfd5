package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	"tokendrop/contexts/distribution/payout-service/application"
	"tokendrop/contexts/distribution/payout-service/ports"
)

// OutboxRelay drains pending payout outbox rows into the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	messages, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("payout outbox relay list failed",
			"event", "payout_outbox_relay_list_failed",
			"module", "distribution/payout-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, message := range messages {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("payout outbox relay payload malformed",
				"event", "payout_outbox_relay_payload_malformed",
				"module", "distribution/payout-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			continue
		}
		if err := r.Publisher.Publish(ctx, r.Topic, envelope); err != nil {
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, r.Clock.Now()); err != nil {
			return err
		}
	}
	return nil
}
