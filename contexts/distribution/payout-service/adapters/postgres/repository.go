package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
	domainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
	"tokendrop/contexts/distribution/payout-service/ports"

	"encoding/json"

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

// CreateRun persists the run header and its ordered outcomes in one
// transaction so a half-written result is never observable.
func (r *Repository) CreateRun(ctx context.Context, result entities.DistributionResult) error {
	if strings.TrimSpace(result.RunID) == "" || strings.TrimSpace(result.SourceAddress) == "" {
		r.logWarn("payout_repo_create_run_invalid_input",
			"run_id", strings.TrimSpace(result.RunID),
			"source_address", strings.TrimSpace(result.SourceAddress),
		)
		return domainerrors.ErrInvalidRunInput
	}

	row := payoutRunModelFromEntity(result)
	outcomes := payoutOutcomeModelsFromEntity(result)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return nil
		}
		return tx.Create(&outcomes).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			r.logWarn("payout_repo_create_run_unique_conflict",
				"run_id", row.RunID,
			)
			return domainerrors.ErrInvalidRunInput
		}
		return r.logError("payout_repo_create_run_failed", err,
			"run_id", row.RunID,
			"source_address", row.SourceAddress,
		)
	}
	return nil
}

func (r *Repository) GetRun(ctx context.Context, runID string) (entities.DistributionResult, error) {
	var row payoutRunModel
	err := r.db.WithContext(ctx).
		Where("run_id = ?", strings.TrimSpace(runID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DistributionResult{}, domainerrors.ErrRunNotFound
		}
		return entities.DistributionResult{}, r.logError("payout_repo_get_run_failed", err,
			"run_id", strings.TrimSpace(runID),
		)
	}

	outcomes, err := r.loadOutcomes(ctx, row.RunID)
	if err != nil {
		return entities.DistributionResult{}, err
	}
	return row.toEntity(outcomes), nil
}

func (r *Repository) ListRunsBySource(ctx context.Context, sourceAddress string, limit int, offset int) ([]entities.DistributionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []payoutRunModel
	if err := r.db.WithContext(ctx).
		Where("source_address = ?", strings.TrimSpace(sourceAddress)).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, r.logError("payout_repo_list_runs_failed", err,
			"source_address", strings.TrimSpace(sourceAddress),
		)
	}
	runs := make([]entities.DistributionResult, 0, len(rows))
	for _, row := range rows {
		outcomes, err := r.loadOutcomes(ctx, row.RunID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, row.toEntity(outcomes))
	}
	return runs, nil
}

func (r *Repository) loadOutcomes(ctx context.Context, runID string) ([]entities.RecipientOutcome, error) {
	var rows []payoutOutcomeModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("payout_repo_load_outcomes_failed", err,
			"run_id", runID,
		)
	}
	outcomes := make([]entities.RecipientOutcome, 0, len(rows))
	for _, row := range rows {
		outcomes = append(outcomes, row.toEntity())
	}
	return outcomes, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("payout_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := payoutOutboxModel{
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
		return r.logError("payout_repo_append_outbox_insert_failed", createResult.Error,
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
	var rows []payoutOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("payout_repo_list_pending_outbox_failed", err,
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
		Model(&payoutOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("payout_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("payout_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvalidRunInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "distribution/payout-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payout repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "distribution/payout-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("payout repository warning", fields...)
}

type payoutRunModel struct {
	RunID                string    `gorm:"column:run_id;primaryKey"`
	SourceAddress        string    `gorm:"column:source_address"`
	Asset                string    `gorm:"column:asset"`
	Mode                 string    `gorm:"column:mode"`
	TotalRequested       int       `gorm:"column:total_requested"`
	SucceededCount       int       `gorm:"column:succeeded_count"`
	FailedCount          int       `gorm:"column:failed_count"`
	TotalAmountRequested float64   `gorm:"column:total_amount_requested"`
	Success              bool      `gorm:"column:success"`
	StartedAt            time.Time `gorm:"column:started_at"`
	FinishedAt           time.Time `gorm:"column:finished_at"`
}

func (payoutRunModel) TableName() string {
	return "payout_runs"
}

func payoutRunModelFromEntity(result entities.DistributionResult) payoutRunModel {
	return payoutRunModel{
		RunID:                strings.TrimSpace(result.RunID),
		SourceAddress:        strings.TrimSpace(result.SourceAddress),
		Asset:                strings.TrimSpace(result.Asset),
		Mode:                 string(result.Mode),
		TotalRequested:       result.TotalRequested,
		SucceededCount:       result.SucceededCount,
		FailedCount:          result.FailedCount,
		TotalAmountRequested: result.TotalAmountRequested,
		Success:              result.Success,
		StartedAt:            result.StartedAt.UTC(),
		FinishedAt:           result.FinishedAt.UTC(),
	}
}

func (m payoutRunModel) toEntity(outcomes []entities.RecipientOutcome) entities.DistributionResult {
	return entities.DistributionResult{
		RunID:                m.RunID,
		SourceAddress:        m.SourceAddress,
		Asset:                m.Asset,
		Mode:                 entities.DistributionMode(m.Mode),
		TotalRequested:       m.TotalRequested,
		SucceededCount:       m.SucceededCount,
		FailedCount:          m.FailedCount,
		TotalAmountRequested: m.TotalAmountRequested,
		Success:              m.Success,
		Outcomes:             outcomes,
		StartedAt:            m.StartedAt.UTC(),
		FinishedAt:           m.FinishedAt.UTC(),
	}
}

type payoutOutcomeModel struct {
	ID        string  `gorm:"column:id;primaryKey"`
	RunID     string  `gorm:"column:run_id"`
	Position  int     `gorm:"column:position"`
	Address   string  `gorm:"column:address"`
	Amount    float64 `gorm:"column:amount"`
	Label     string  `gorm:"column:label"`
	Status    string  `gorm:"column:status"`
	Reference string  `gorm:"column:reference"`
	Reason    string  `gorm:"column:reason"`
}

func (payoutOutcomeModel) TableName() string {
	return "payout_outcomes"
}

func payoutOutcomeModelsFromEntity(result entities.DistributionResult) []payoutOutcomeModel {
	rows := make([]payoutOutcomeModel, 0, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		rows = append(rows, payoutOutcomeModel{
			ID:        uuid.NewString(),
			RunID:     strings.TrimSpace(result.RunID),
			Position:  i,
			Address:   strings.TrimSpace(outcome.Recipient.Address),
			Amount:    outcome.Recipient.Amount,
			Label:     strings.TrimSpace(outcome.Recipient.Label),
			Status:    string(outcome.Status),
			Reference: strings.TrimSpace(outcome.Reference),
			Reason:    strings.TrimSpace(outcome.Reason),
		})
	}
	return rows
}

func (m payoutOutcomeModel) toEntity() entities.RecipientOutcome {
	return entities.RecipientOutcome{
		Recipient: entities.Recipient{
			Address: m.Address,
			Amount:  m.Amount,
			Label:   m.Label,
		},
		Status:    entities.OutcomeStatus(m.Status),
		Reference: m.Reference,
		Reason:    m.Reason,
	}
}

type payoutOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (payoutOutboxModel) TableName() string {
	return "payout_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
