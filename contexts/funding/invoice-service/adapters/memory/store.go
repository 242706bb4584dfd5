package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tokendrop/contexts/funding/invoice-service/domain/entities"
	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

type Store struct {
	mu sync.RWMutex

	invoices map[string]entities.Invoice
	outbox   map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		invoices: make(map[string]entities.Invoice),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreateInvoice(_ context.Context, invoice entities.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(invoice.ID) == "" {
		return domainerrors.ErrInvalidInvoiceInput
	}
	if _, exists := s.invoices[invoice.ID]; exists {
		return domainerrors.ErrInvalidInvoiceInput
	}
	s.invoices[invoice.ID] = invoice
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID string) (entities.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, exists := s.invoices[strings.TrimSpace(invoiceID)]
	if !exists {
		return entities.Invoice{}, domainerrors.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Store) UpdateInvoice(_ context.Context, invoice entities.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoice.ID]; !exists {
		return domainerrors.ErrInvoiceNotFound
	}
	s.invoices[invoice.ID] = invoice
	return nil
}

func (s *Store) HasSettledInvoice(_ context.Context, payTo string, asset string, minAmount float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, invoice := range s.invoices {
		if invoice.Status == entities.InvoiceStatusSettled &&
			invoice.PayTo == payTo &&
			invoice.Asset == asset &&
			invoice.Amount >= minAmount {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(outboxID)
	row, ok := s.outbox[key]
	if !ok {
		return domainerrors.ErrInvoiceNotFound
	}
	timestamp := publishedAt.UTC()
	row.PublishedAt = &timestamp
	s.outbox[key] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
