package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	payoutdomainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
	payouthttp "tokendrop/contexts/distribution/payout-service/transport/http"
)

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req payouthttp.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payouts.Handler.AllocateHandler(r.Context(), req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecutePayout(w http.ResponseWriter, r *http.Request) {
	var req payouthttp.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payouts.Handler.ExecuteHandler(r.Context(), req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	resp, err := s.payouts.Handler.GetRunHandler(r.Context(), runID)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	offset := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writePayoutError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		parsed, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writePayoutError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}

	resp, err := s.payouts.Handler.ListRunsHandler(r.Context(), query.Get("source"), limit, offset)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePayoutDomainError(w http.ResponseWriter, err error) {
	var rejection *payoutdomainerrors.RejectionError
	if errors.As(err, &rejection) {
		rejections := make([]payouthttp.RejectionDTO, 0, len(rejection.Rejections))
		for _, item := range rejection.Rejections {
			rejections = append(rejections, payouthttp.RejectionDTO{
				Address: item.Recipient.Address,
				Amount:  item.Recipient.Amount,
				Label:   item.Recipient.Label,
				Reason:  item.Reason,
			})
		}
		writeJSON(w, http.StatusUnprocessableEntity, payouthttp.ErrorResponse{
			Code:       "recipients_invalid",
			Message:    err.Error(),
			Rejections: rejections,
		})
		return
	}

	switch {
	case errors.Is(err, payoutdomainerrors.ErrRunNotFound):
		writePayoutError(w, http.StatusNotFound, "run_not_found", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrAddressInvalid):
		writePayoutError(w, http.StatusUnprocessableEntity, "address_invalid", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrRecipientsInvalid):
		writePayoutError(w, http.StatusUnprocessableEntity, "recipients_invalid", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrAllocationInvalidInput):
		writePayoutError(w, http.StatusBadRequest, "allocation_invalid_input", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrInvalidRunInput):
		writePayoutError(w, http.StatusBadRequest, "invalid_run_input", err.Error())
	case errors.Is(err, payoutdomainerrors.ErrFundingRequired):
		writePayoutError(w, http.StatusPaymentRequired, "funding_required", err.Error())
	default:
		writePayoutError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePayoutError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, payouthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
