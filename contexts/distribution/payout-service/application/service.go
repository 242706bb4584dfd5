package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
	domainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
	"tokendrop/contexts/distribution/payout-service/ports"
)

const (
	reasonSubmitTimeout  = "transfer submission timed out"
	reasonConfirmTimeout = "transfer confirmation timed out"
	reasonCanceled       = "distribution canceled before submission"
)

type Service struct {
	Ledger   ports.LedgerClient
	Funding  ports.FundingGate
	Repo     ports.Repository
	Outbox   ports.OutboxWriter
	Progress ports.ProgressSink
	Clock    ports.Clock
	IDGen    ports.IDGenerator

	// RecipientTimeout bounds each submit and each confirmation separately.
	RecipientTimeout time.Duration
	// SubmitWorkers bounds concurrent submissions. 1 keeps the strictly
	// ordered loop; outcome order always matches input order either way.
	SubmitWorkers int

	DisablePayoutCompletedEventEmission bool
	Logger                              *slog.Logger
}

// Execute runs one distribution request and returns its outcome ledger.
//
// Preconditions (source address, recipient set, funding) fail the whole call
// with no transfers attempted. Per-recipient ledger failures during live
// execution are recorded in the outcomes and never abort the batch.
func (s Service) Execute(ctx context.Context, request entities.DistributionRequest) (entities.DistributionResult, error) {
	logger := ResolveLogger(s.Logger)

	if len(request.Recipients) == 0 || strings.TrimSpace(request.Asset) == "" {
		return entities.DistributionResult{}, domainerrors.ErrInvalidRunInput
	}
	mode := request.Mode
	if mode != entities.ModeLive {
		mode = entities.ModeDryRun
	}

	if !s.Ledger.IsValidAddress(request.SourceAddress) {
		logger.Warn("payout rejected for invalid source address",
			"event", "payout_source_address_invalid",
			"module", "distribution/payout-service",
			"layer", "application",
			"source_address", request.SourceAddress,
		)
		return entities.DistributionResult{}, domainerrors.ErrAddressInvalid
	}

	_, rejections := ValidateRecipients(s.Ledger, request.Recipients)
	if len(rejections) > 0 {
		logger.Warn("payout rejected for invalid recipients",
			"event", "payout_recipients_invalid",
			"module", "distribution/payout-service",
			"layer", "application",
			"source_address", request.SourceAddress,
			"rejected", len(rejections),
		)
		return entities.DistributionResult{}, domainerrors.NewRejectionError(rejections)
	}

	var totalAmount float64
	for _, recipient := range request.Recipients {
		totalAmount += recipient.Amount
	}

	runID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.DistributionResult{}, err
	}
	startedAt := s.now()

	result := entities.DistributionResult{
		RunID:                runID,
		SourceAddress:        request.SourceAddress,
		Asset:                request.Asset,
		Mode:                 mode,
		TotalRequested:       len(request.Recipients),
		TotalAmountRequested: totalAmount,
		StartedAt:            startedAt,
	}

	if mode == entities.ModeDryRun {
		result.Outcomes = s.dryRunOutcomes(ctx, runID, request.Recipients)
		result.SucceededCount = len(result.Outcomes)
		result.Success = true
		result.FinishedAt = s.now()
		return s.finishRun(ctx, result)
	}

	funded, err := s.Funding.HasSettledFunding(ctx, request.SourceAddress, request.Asset, totalAmount)
	if err != nil {
		return entities.DistributionResult{}, err
	}
	if !funded {
		logger.Warn("payout rejected for missing funding",
			"event", "payout_funding_required",
			"module", "distribution/payout-service",
			"layer", "application",
			"source_address", request.SourceAddress,
			"asset", request.Asset,
			"total_amount", totalAmount,
		)
		return entities.DistributionResult{}, domainerrors.ErrFundingRequired
	}

	result.Outcomes = s.liveOutcomes(ctx, runID, request)
	for _, outcome := range result.Outcomes {
		if outcome.Status == entities.OutcomeSucceeded {
			result.SucceededCount++
		} else {
			result.FailedCount++
		}
	}
	result.Success = result.SucceededCount > 0
	result.FinishedAt = s.now()
	return s.finishRun(ctx, result)
}

func (s Service) GetRun(ctx context.Context, runID string) (entities.DistributionResult, error) {
	if strings.TrimSpace(runID) == "" {
		return entities.DistributionResult{}, domainerrors.ErrInvalidRunInput
	}
	return s.Repo.GetRun(ctx, strings.TrimSpace(runID))
}

func (s Service) ListRuns(ctx context.Context, sourceAddress string, limit int, offset int) ([]entities.DistributionResult, error) {
	if strings.TrimSpace(sourceAddress) == "" {
		return nil, domainerrors.ErrInvalidRunInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListRunsBySource(ctx, strings.TrimSpace(sourceAddress), limit, offset)
}

// dryRunOutcomes computes the preview shape without contacting the ledger.
func (s Service) dryRunOutcomes(ctx context.Context, runID string, recipients []entities.Recipient) []entities.RecipientOutcome {
	outcomes := make([]entities.RecipientOutcome, len(recipients))
	for i, recipient := range recipients {
		outcomes[i] = entities.RecipientOutcome{
			Recipient: recipient,
			Status:    entities.OutcomeSucceeded,
		}
		s.emitProgress(ctx, runID, i, outcomes[i])
	}
	return outcomes
}

// liveOutcomes submits one transfer per recipient. Submission may fan out
// over a bounded pool; outcomes are written by input index so the reported
// order always matches the request order.
func (s Service) liveOutcomes(ctx context.Context, runID string, request entities.DistributionRequest) []entities.RecipientOutcome {
	outcomes := make([]entities.RecipientOutcome, len(request.Recipients))

	var group errgroup.Group
	workers := s.SubmitWorkers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)

	for i, recipient := range request.Recipients {
		i, recipient := i, recipient
		group.Go(func() error {
			outcomes[i] = s.processRecipient(ctx, request, recipient)
			s.emitProgress(ctx, runID, i, outcomes[i])
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

func (s Service) processRecipient(ctx context.Context, request entities.DistributionRequest, recipient entities.Recipient) entities.RecipientOutcome {
	outcome := entities.RecipientOutcome{Recipient: recipient}

	// Cancellation stops new submissions; transfers already submitted below
	// still get their confirmation window.
	if ctx.Err() != nil {
		outcome.Status = entities.OutcomeFailed
		outcome.Reason = reasonCanceled
		return outcome
	}

	submitCtx, cancelSubmit := context.WithTimeout(ctx, s.recipientTimeout())
	receiptID, err := s.Ledger.SubmitTransfer(submitCtx, request.SourceAddress, recipient.Address, request.Asset, recipient.Amount)
	cancelSubmit()
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Reason = reasonSubmitTimeout
		} else {
			outcome.Reason = err.Error()
		}
		return outcome
	}
	outcome.Reference = receiptID

	confirmCtx, cancelConfirm := context.WithTimeout(context.WithoutCancel(ctx), s.recipientTimeout())
	err = s.Ledger.ConfirmTransfer(confirmCtx, receiptID)
	cancelConfirm()
	if err != nil {
		outcome.Status = entities.OutcomeFailed
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Reason = reasonConfirmTimeout
		} else {
			outcome.Reason = err.Error()
		}
		return outcome
	}

	outcome.Status = entities.OutcomeSucceeded
	return outcome
}

func (s Service) emitProgress(ctx context.Context, runID string, index int, outcome entities.RecipientOutcome) {
	if s.Progress == nil {
		return
	}
	s.Progress.RecipientProcessed(ctx, ports.ProgressEvent{
		RunID:     runID,
		Index:     index,
		Recipient: outcome.Recipient,
		Status:    outcome.Status,
		Reference: outcome.Reference,
		Reason:    outcome.Reason,
	})
}

func (s Service) finishRun(ctx context.Context, result entities.DistributionResult) (entities.DistributionResult, error) {
	logger := ResolveLogger(s.Logger)
	if err := s.Repo.CreateRun(ctx, result); err != nil {
		return entities.DistributionResult{}, err
	}
	if err := s.appendPayoutCompletedOutbox(ctx, result); err != nil {
		return entities.DistributionResult{}, err
	}
	logger.Info("payout run completed",
		"event", "payout_run_completed",
		"module", "distribution/payout-service",
		"layer", "application",
		"run_id", result.RunID,
		"mode", string(result.Mode),
		"source_address", result.SourceAddress,
		"asset", result.Asset,
		"succeeded", result.SucceededCount,
		"failed", result.FailedCount,
		"total_amount", result.TotalAmountRequested,
	)
	return result, nil
}

func (s Service) appendPayoutCompletedOutbox(ctx context.Context, result entities.DistributionResult) error {
	if s.Outbox == nil || s.DisablePayoutCompletedEventEmission {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"run_id":                 result.RunID,
		"source_address":         result.SourceAddress,
		"asset":                  result.Asset,
		"mode":                   string(result.Mode),
		"total_requested":        result.TotalRequested,
		"succeeded_count":        result.SucceededCount,
		"failed_count":           result.FailedCount,
		"total_amount_requested": result.TotalAmountRequested,
		"finished_at":            result.FinishedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        "payout.completed",
		OccurredAt:       result.FinishedAt.UTC(),
		SourceService:    "payout-service",
		TraceID:          result.RunID,
		SchemaVersion:    1,
		PartitionKeyPath: "source_address",
		PartitionKey:     result.SourceAddress,
		Data:             data,
	})
}

func (s Service) recipientTimeout() time.Duration {
	if s.RecipientTimeout <= 0 {
		return 30 * time.Second
	}
	return s.RecipientTimeout
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
