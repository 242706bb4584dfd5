package ports

import (
	"context"
	"time"

	contractsv1 "tokendrop/contracts/gen/events/v1"
	"tokendrop/contexts/distribution/payout-service/domain/entities"
)

// LedgerClient is the narrow capability surface of the underlying ledger.
// Production wires a real client; tests substitute the deterministic fake.
type LedgerClient interface {
	IsValidAddress(address string) bool
	GetBalance(ctx context.Context, address string) (float64, error)
	SubmitTransfer(ctx context.Context, from, to, asset string, amount float64) (string, error)
	ConfirmTransfer(ctx context.Context, receiptID string) error
}

// FundingGate reports whether a settled funding invoice covers the requested
// spend for a source account. Implemented by the funding context.
type FundingGate interface {
	HasSettledFunding(ctx context.Context, sourceAddress, asset string, amount float64) (bool, error)
}

type ProgressEvent struct {
	RunID     string
	Index     int
	Recipient entities.Recipient
	Status    entities.OutcomeStatus
	Reference string
	Reason    string
}

// ProgressSink receives one structured event per processed recipient.
// The executor never prints; headless callers may pass nil.
type ProgressSink interface {
	RecipientProcessed(ctx context.Context, event ProgressEvent)
}

type Repository interface {
	CreateRun(ctx context.Context, result entities.DistributionResult) error
	GetRun(ctx context.Context, runID string) (entities.DistributionResult, error)
	ListRunsBySource(ctx context.Context, sourceAddress string, limit int, offset int) ([]entities.DistributionResult, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
