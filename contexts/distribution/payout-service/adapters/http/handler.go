package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tokendrop/contexts/distribution/payout-service/application"
	"tokendrop/contexts/distribution/payout-service/domain/allocation"
	"tokendrop/contexts/distribution/payout-service/domain/entities"
	domainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
	httptransport "tokendrop/contexts/distribution/payout-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ExecuteHandler(ctx context.Context, req httptransport.ExecuteRequest) (httptransport.RunResponse, error) {
	recipients := make([]entities.Recipient, 0, len(req.Recipients))
	for _, recipient := range req.Recipients {
		recipients = append(recipients, entities.Recipient{
			Address: recipient.Address,
			Amount:  recipient.Amount,
			Label:   recipient.Label,
		})
	}

	result, err := h.Service.Execute(ctx, entities.DistributionRequest{
		SourceAddress: req.SourceAddress,
		Asset:         req.Asset,
		Recipients:    recipients,
		Mode:          entities.DistributionMode(req.Mode),
	})
	if err != nil {
		return httptransport.RunResponse{}, err
	}
	return httptransport.RunResponse{
		Status: "success",
		Data:   toRunDTO(result),
	}, nil
}

func (h Handler) AllocateHandler(_ context.Context, req httptransport.AllocateRequest) (httptransport.AllocateResponse, error) {
	var (
		recipients []entities.Recipient
		err        error
	)
	switch req.Policy {
	case "fixed":
		recipients, err = allocation.FixedPerWinner(req.Addresses, req.Amount)
	case "equal-split":
		recipients, err = allocation.EqualSplit(req.Addresses, req.TotalAmount)
	case "proportional":
		holders := make([]allocation.Weighted, 0, len(req.Holders))
		for _, holder := range req.Holders {
			holders = append(holders, allocation.Weighted{Address: holder.Address, Weight: holder.Weight})
		}
		recipients, err = allocation.ProportionalByWeight(holders, req.TotalAmount)
	case "rate-based":
		stakers := make([]allocation.Stake, 0, len(req.Stakers))
		for _, staker := range req.Stakers {
			stakers = append(stakers, allocation.Stake{Address: staker.Address, Principal: staker.Principal})
		}
		recipients, err = allocation.RateBased(stakers, req.AnnualRate, allocation.Period(req.Period))
	default:
		err = domainerrors.ErrAllocationInvalidInput
	}
	if err != nil {
		return httptransport.AllocateResponse{}, err
	}

	resp := httptransport.AllocateResponse{
		Status: "success",
		Data:   make([]httptransport.RecipientDTO, 0, len(recipients)),
	}
	for _, recipient := range recipients {
		resp.Data = append(resp.Data, httptransport.RecipientDTO{
			Address: recipient.Address,
			Amount:  recipient.Amount,
			Label:   recipient.Label,
		})
	}
	return resp, nil
}

func (h Handler) GetRunHandler(ctx context.Context, runID string) (httptransport.RunResponse, error) {
	result, err := h.Service.GetRun(ctx, runID)
	if err != nil {
		return httptransport.RunResponse{}, err
	}
	return httptransport.RunResponse{
		Status: "success",
		Data:   toRunDTO(result),
	}, nil
}

func (h Handler) ListRunsHandler(ctx context.Context, sourceAddress string, limit int, offset int) (httptransport.RunListResponse, error) {
	runs, err := h.Service.ListRuns(ctx, sourceAddress, limit, offset)
	if err != nil {
		return httptransport.RunListResponse{}, err
	}
	resp := httptransport.RunListResponse{
		Status: "success",
		Data:   make([]httptransport.RunDTO, 0, len(runs)),
	}
	for _, run := range runs {
		resp.Data = append(resp.Data, toRunDTO(run))
	}
	return resp, nil
}

func toRunDTO(result entities.DistributionResult) httptransport.RunDTO {
	outcomes := make([]httptransport.OutcomeDTO, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		outcomes = append(outcomes, httptransport.OutcomeDTO{
			Address:   outcome.Recipient.Address,
			Amount:    outcome.Recipient.Amount,
			Label:     outcome.Recipient.Label,
			Status:    string(outcome.Status),
			Reference: outcome.Reference,
			Reason:    outcome.Reason,
		})
	}
	return httptransport.RunDTO{
		RunID:                result.RunID,
		SourceAddress:        result.SourceAddress,
		Asset:                result.Asset,
		Mode:                 string(result.Mode),
		TotalRequested:       result.TotalRequested,
		SucceededCount:       result.SucceededCount,
		FailedCount:          result.FailedCount,
		TotalAmountRequested: result.TotalAmountRequested,
		Success:              result.Success,
		Outcomes:             outcomes,
		StartedAt:            result.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:           result.FinishedAt.UTC().Format(time.RFC3339),
	}
}
