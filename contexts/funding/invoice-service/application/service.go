package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"tokendrop/contexts/funding/invoice-service/domain/entities"
	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

const (
	reasonFacilitatorUnavailable = "facilitator service unavailable"
	reasonSettlementRejected     = "settlement rejected by facilitator"
)

type Service struct {
	Repo        ports.Repository
	Facilitator ports.Facilitator
	Addresses   ports.AddressValidator
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator

	// Network is the chain network invoices are issued against.
	Network string
	// PaymentHost is the public base URL embedded in payment links and
	// resource identifiers.
	PaymentHost string
	// InvoiceTimeout bounds how long an invoice stays payable.
	InvoiceTimeout time.Duration

	DisableInvoiceEventEmission bool
	Logger                      *slog.Logger
}

// Create opens a pending invoice for the requested amount. The invoice
// expires InvoiceTimeout after creation; expiry is applied lazily on the
// next read or transition.
func (s Service) Create(ctx context.Context, input ports.CreateInvoiceInput) (entities.Invoice, error) {
	logger := ResolveLogger(s.Logger)

	if strings.TrimSpace(input.Asset) == "" ||
		!isPositiveFinite(input.Amount) ||
		s.Addresses == nil || !s.Addresses.IsValidAddress(input.PayTo) {
		return entities.Invoice{}, domainerrors.ErrInvalidInvoiceInput
	}

	invoiceID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Invoice{}, err
	}
	now := s.now()

	invoice := entities.Invoice{
		ID:          invoiceID,
		Asset:       strings.TrimSpace(input.Asset),
		Amount:      input.Amount,
		PayTo:       input.PayTo,
		Description: strings.TrimSpace(input.Description),
		Status:      entities.InvoiceStatusPending,
		PaymentURL:  fmt.Sprintf("%s/pay/distribute/%s", strings.TrimRight(s.PaymentHost, "/"), strings.TrimSpace(input.Asset)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.invoiceTimeout()),
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}
	if err := s.appendInvoiceOutbox(ctx, "invoice.created", invoice); err != nil {
		return entities.Invoice{}, err
	}

	logger.Info("invoice created",
		"event", "invoice_created",
		"module", "funding/invoice-service",
		"layer", "application",
		"invoice_id", invoice.ID,
		"asset", invoice.Asset,
		"amount", invoice.Amount,
		"pay_to", invoice.PayTo,
		"expires_at", invoice.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return invoice, nil
}

func (s Service) Get(ctx context.Context, invoiceID string) (entities.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return entities.Invoice{}, domainerrors.ErrInvalidInvoiceInput
	}
	invoice, err := s.Repo.GetInvoice(ctx, strings.TrimSpace(invoiceID))
	if err != nil {
		return entities.Invoice{}, err
	}
	return s.applyExpiry(ctx, invoice)
}

// Verify submits the caller's X-Payment header to the facilitator and moves a
// pending invoice to verified. The header is retained so settlement can
// replay the exact same facilitator exchange. Retrying verify on an invoice
// that is already verified is safe.
func (s Service) Verify(ctx context.Context, invoiceID string, paymentHeader string) (entities.Invoice, error) {
	logger := ResolveLogger(s.Logger)

	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	if invoice.Status == entities.InvoiceStatusExpired {
		return invoice, domainerrors.ErrInvoiceExpired
	}
	if invoice.Status != entities.InvoiceStatusPending && invoice.Status != entities.InvoiceStatusVerified {
		return invoice, domainerrors.ErrInvalidTransition
	}

	payload, err := x402.DecodePaymentHeader(paymentHeader)
	if err != nil {
		return invoice, err
	}
	if payload.Scheme != x402.SchemeExact {
		return invoice, fmt.Errorf("%w: unsupported payment scheme %q", domainerrors.ErrProtocolViolation, payload.Scheme)
	}

	verification, err := s.Facilitator.Verify(ctx, paymentHeader, s.requirementsFor(invoice))
	if err != nil {
		return s.markFailed(ctx, invoice, reasonFacilitatorUnavailable, err)
	}
	if !verification.IsValid {
		reason := "payment verification failed"
		if verification.InvalidReason != nil && strings.TrimSpace(*verification.InvalidReason) != "" {
			reason = *verification.InvalidReason
		}
		return s.markFailed(ctx, invoice, reason, domainerrors.ErrFacilitatorRejected)
	}

	invoice.Status = entities.InvoiceStatusVerified
	invoice.PaymentHeader = paymentHeader
	invoice.UpdatedAt = s.now()
	if err := s.Repo.UpdateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}
	if err := s.appendInvoiceOutbox(ctx, "invoice.verified", invoice); err != nil {
		return entities.Invoice{}, err
	}

	logger.Info("invoice verified",
		"event", "invoice_verified",
		"module", "funding/invoice-service",
		"layer", "application",
		"invoice_id", invoice.ID,
		"asset", invoice.Asset,
		"pay_to", invoice.PayTo,
	)
	return invoice, nil
}

// Settle replays the verified payment header against the facilitator's
// settle endpoint and records the resulting transaction hash.
func (s Service) Settle(ctx context.Context, invoiceID string) (entities.Invoice, error) {
	logger := ResolveLogger(s.Logger)

	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	if invoice.Status == entities.InvoiceStatusExpired {
		return invoice, domainerrors.ErrInvoiceExpired
	}
	if invoice.Status != entities.InvoiceStatusVerified {
		return invoice, domainerrors.ErrInvalidTransition
	}

	settlement, err := s.Facilitator.Settle(ctx, invoice.PaymentHeader, s.requirementsFor(invoice))
	if err != nil {
		return s.markFailed(ctx, invoice, reasonFacilitatorUnavailable, err)
	}
	if !settlement.Success {
		reason := reasonSettlementRejected
		if settlement.Error != nil && strings.TrimSpace(*settlement.Error) != "" {
			reason = *settlement.Error
		}
		return s.markFailed(ctx, invoice, reason, domainerrors.ErrFacilitatorRejected)
	}

	invoice.Status = entities.InvoiceStatusSettled
	if settlement.TxHash != nil {
		invoice.TxHash = *settlement.TxHash
	}
	invoice.UpdatedAt = s.now()
	if err := s.Repo.UpdateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}
	if err := s.appendInvoiceOutbox(ctx, "invoice.settled", invoice); err != nil {
		return entities.Invoice{}, err
	}

	logger.Info("invoice settled",
		"event", "invoice_settled",
		"module", "funding/invoice-service",
		"layer", "application",
		"invoice_id", invoice.ID,
		"asset", invoice.Asset,
		"pay_to", invoice.PayTo,
		"tx_hash", invoice.TxHash,
	)
	return invoice, nil
}

func (s Service) Supported(ctx context.Context) ([]x402.SupportedKind, error) {
	return s.Facilitator.Supported(ctx)
}

// HasSettledFunding reports whether a settled invoice covers at least the
// requested amount for the given payout source and asset.
func (s Service) HasSettledFunding(ctx context.Context, sourceAddress string, asset string, amount float64) (bool, error) {
	return s.Repo.HasSettledInvoice(ctx, sourceAddress, asset, amount)
}

// applyExpiry lazily transitions an overdue invoice to expired before the
// caller acts on it. Pending and verified invoices both expire; terminal
// invoices pass through untouched.
func (s Service) applyExpiry(ctx context.Context, invoice entities.Invoice) (entities.Invoice, error) {
	if invoice.Terminal() || !s.now().After(invoice.ExpiresAt) {
		return invoice, nil
	}

	invoice.Status = entities.InvoiceStatusExpired
	invoice.UpdatedAt = s.now()
	if err := s.Repo.UpdateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}
	if err := s.appendInvoiceOutbox(ctx, "invoice.expired", invoice); err != nil {
		return entities.Invoice{}, err
	}

	ResolveLogger(s.Logger).Info("invoice expired",
		"event", "invoice_expired",
		"module", "funding/invoice-service",
		"layer", "application",
		"invoice_id", invoice.ID,
	)
	return invoice, nil
}

func (s Service) markFailed(ctx context.Context, invoice entities.Invoice, reason string, cause error) (entities.Invoice, error) {
	invoice.Status = entities.InvoiceStatusFailed
	invoice.FailureReason = reason
	invoice.UpdatedAt = s.now()
	if err := s.Repo.UpdateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}
	if err := s.appendInvoiceOutbox(ctx, "invoice.failed", invoice); err != nil {
		return entities.Invoice{}, err
	}

	ResolveLogger(s.Logger).Warn("invoice failed",
		"event", "invoice_failed",
		"module", "funding/invoice-service",
		"layer", "application",
		"invoice_id", invoice.ID,
		"reason", reason,
		"error", cause,
	)
	if errors.Is(cause, domainerrors.ErrFacilitatorRejected) {
		return invoice, fmt.Errorf("%w: %s", domainerrors.ErrFacilitatorRejected, reason)
	}
	return invoice, fmt.Errorf("%w: %s", domainerrors.ErrFacilitatorUnreachable, cause)
}

// requirementsFor rebuilds the facilitator payment requirements from the
// persisted invoice so verify and settle present identical terms.
func (s Service) requirementsFor(invoice entities.Invoice) x402.PaymentRequirements {
	return x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           x402.NetworkID(s.Network),
		MaxAmountRequired: strconv.FormatFloat(invoice.Amount, 'f', -1, 64),
		Resource:          fmt.Sprintf("%s/distribute/%s", strings.TrimRight(s.PaymentHost, "/"), invoice.Asset),
		Description:       invoice.Description,
		MimeType:          "application/json",
		PayTo:             invoice.PayTo,
		MaxTimeoutSeconds: int(s.invoiceTimeout().Seconds()),
		Asset:             invoice.Asset,
	}
}

func (s Service) appendInvoiceOutbox(ctx context.Context, eventType string, invoice entities.Invoice) error {
	if s.Outbox == nil || s.DisableInvoiceEventEmission {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"invoice_id": invoice.ID,
		"asset":      invoice.Asset,
		"amount":     invoice.Amount,
		"pay_to":     invoice.PayTo,
		"status":     string(invoice.Status),
		"tx_hash":    invoice.TxHash,
		"updated_at": invoice.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       invoice.UpdatedAt.UTC(),
		SourceService:    "invoice-service",
		TraceID:          invoice.ID,
		SchemaVersion:    1,
		PartitionKeyPath: "pay_to",
		PartitionKey:     invoice.PayTo,
		Data:             data,
	})
}

func (s Service) invoiceTimeout() time.Duration {
	if s.InvoiceTimeout <= 0 {
		return 300 * time.Second
	}
	return s.InvoiceTimeout
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func isPositiveFinite(value float64) bool {
	return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}
