package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tokendrop/contexts/funding/invoice-service/domain/entities"
	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateInvoice(ctx context.Context, invoice entities.Invoice) error {
	if strings.TrimSpace(invoice.ID) == "" || strings.TrimSpace(invoice.PayTo) == "" {
		r.logWarn("invoice_repo_create_invalid_input",
			"invoice_id", strings.TrimSpace(invoice.ID),
		)
		return domainerrors.ErrInvalidInvoiceInput
	}

	row := invoiceModelFromEntity(invoice)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("invoice_repo_create_unique_conflict",
				"invoice_id", row.InvoiceID,
			)
			return domainerrors.ErrInvalidInvoiceInput
		}
		return r.logError("invoice_repo_create_failed", err,
			"invoice_id", row.InvoiceID,
		)
	}
	return nil
}

func (r *Repository) GetInvoice(ctx context.Context, invoiceID string) (entities.Invoice, error) {
	var row invoiceModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", strings.TrimSpace(invoiceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invoice{}, domainerrors.ErrInvoiceNotFound
		}
		return entities.Invoice{}, r.logError("invoice_repo_get_failed", err,
			"invoice_id", strings.TrimSpace(invoiceID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateInvoice(ctx context.Context, invoice entities.Invoice) error {
	row := invoiceModelFromEntity(invoice)
	result := r.db.WithContext(ctx).
		Model(&invoiceModel{}).
		Where("invoice_id = ?", row.InvoiceID).
		Updates(map[string]any{
			"status":         row.Status,
			"payment_header": row.PaymentHeader,
			"tx_hash":        row.TxHash,
			"failure_reason": row.FailureReason,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("invoice_repo_update_failed", result.Error,
			"invoice_id", row.InvoiceID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("invoice_repo_update_not_found",
			"invoice_id", row.InvoiceID,
		)
		return domainerrors.ErrInvoiceNotFound
	}
	return nil
}

func (r *Repository) HasSettledInvoice(ctx context.Context, payTo string, asset string, minAmount float64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&invoiceModel{}).
		Where("pay_to = ? AND asset = ? AND status = ? AND amount >= ?",
			strings.TrimSpace(payTo), strings.TrimSpace(asset), string(entities.InvoiceStatusSettled), minAmount).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("invoice_repo_settled_lookup_failed", err,
			"pay_to", strings.TrimSpace(payTo),
			"asset", strings.TrimSpace(asset),
		)
	}
	return count > 0, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("invoice_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := invoiceOutboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return r.logError("invoice_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []invoiceOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("invoice_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
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

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&invoiceOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("invoice_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("invoice_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvoiceNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "funding/invoice-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("invoice repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "funding/invoice-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("invoice repository warning", fields...)
}

type invoiceModel struct {
	InvoiceID     string    `gorm:"column:invoice_id;primaryKey"`
	Asset         string    `gorm:"column:asset"`
	Amount        float64   `gorm:"column:amount"`
	PayTo         string    `gorm:"column:pay_to"`
	Description   string    `gorm:"column:description"`
	Status        string    `gorm:"column:status"`
	PaymentURL    string    `gorm:"column:payment_url"`
	PaymentHeader string    `gorm:"column:payment_header"`
	TxHash        string    `gorm:"column:tx_hash"`
	FailureReason string    `gorm:"column:failure_reason"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (invoiceModel) TableName() string {
	return "funding_invoices"
}

func invoiceModelFromEntity(invoice entities.Invoice) invoiceModel {
	return invoiceModel{
		InvoiceID:     strings.TrimSpace(invoice.ID),
		Asset:         strings.TrimSpace(invoice.Asset),
		Amount:        invoice.Amount,
		PayTo:         strings.TrimSpace(invoice.PayTo),
		Description:   strings.TrimSpace(invoice.Description),
		Status:        string(invoice.Status),
		PaymentURL:    strings.TrimSpace(invoice.PaymentURL),
		PaymentHeader: invoice.PaymentHeader,
		TxHash:        strings.TrimSpace(invoice.TxHash),
		FailureReason: strings.TrimSpace(invoice.FailureReason),
		CreatedAt:     invoice.CreatedAt.UTC(),
		ExpiresAt:     invoice.ExpiresAt.UTC(),
		UpdatedAt:     invoice.UpdatedAt.UTC(),
	}
}

func (m invoiceModel) toEntity() entities.Invoice {
	return entities.Invoice{
		ID:            m.InvoiceID,
		Asset:         m.Asset,
		Amount:        m.Amount,
		PayTo:         m.PayTo,
		Description:   m.Description,
		Status:        entities.InvoiceStatus(m.Status),
		PaymentURL:    m.PaymentURL,
		PaymentHeader: m.PaymentHeader,
		TxHash:        m.TxHash,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt.UTC(),
		ExpiresAt:     m.ExpiresAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type invoiceOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (invoiceOutboxModel) TableName() string {
	return "funding_invoice_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
