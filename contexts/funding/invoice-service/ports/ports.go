package ports

import (
	"context"
	"time"

	contractsv1 "tokendrop/contracts/gen/events/v1"
	"tokendrop/contexts/funding/invoice-service/domain/entities"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

type CreateInvoiceInput struct {
	Asset       string
	Amount      float64
	PayTo       string
	Description string
}

// Facilitator is the outbound x402 exchange. Transport failures wrap
// ErrFacilitatorUnreachable; malformed response bodies wrap
// ErrProtocolViolation.
type Facilitator interface {
	Verify(ctx context.Context, paymentHeader string, requirements x402.PaymentRequirements) (x402.VerificationResponse, error)
	Settle(ctx context.Context, paymentHeader string, requirements x402.PaymentRequirements) (x402.SettlementResponse, error)
	Supported(ctx context.Context) ([]x402.SupportedKind, error)
}

type AddressValidator interface {
	IsValidAddress(address string) bool
}

type Repository interface {
	CreateInvoice(ctx context.Context, invoice entities.Invoice) error
	GetInvoice(ctx context.Context, invoiceID string) (entities.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice entities.Invoice) error
	HasSettledInvoice(ctx context.Context, payTo string, asset string, minAmount float64) (bool, error)
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
