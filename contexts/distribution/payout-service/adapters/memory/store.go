package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
	domainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
	"tokendrop/contexts/distribution/payout-service/ports"

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

	runs   map[string]entities.DistributionResult
	outbox map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		runs:   make(map[string]entities.DistributionResult),
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) CreateRun(_ context.Context, result entities.DistributionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(result.RunID) == "" {
		return domainerrors.ErrInvalidRunInput
	}
	if _, exists := s.runs[result.RunID]; exists {
		return domainerrors.ErrInvalidRunInput
	}
	s.runs[result.RunID] = result
	return nil
}

func (s *Store) GetRun(_ context.Context, runID string) (entities.DistributionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[strings.TrimSpace(runID)]
	if !exists {
		return entities.DistributionResult{}, domainerrors.ErrRunNotFound
	}
	return run, nil
}

func (s *Store) ListRunsBySource(_ context.Context, sourceAddress string, limit int, offset int) ([]entities.DistributionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	runs := make([]entities.DistributionResult, 0)
	for _, run := range s.runs {
		if run.SourceAddress == strings.TrimSpace(sourceAddress) {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if offset >= len(runs) {
		return []entities.DistributionResult{}, nil
	}
	runs = runs[offset:]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
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
		return domainerrors.ErrInvalidRunInput
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
