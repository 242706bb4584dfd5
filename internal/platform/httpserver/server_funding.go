package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	invoicedomainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	invoicehttp "tokendrop/contexts/funding/invoice-service/transport/http"
)

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoicehttp.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvoiceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.invoices.Handler.CreateInvoiceHandler(r.Context(), req)
	if err != nil {
		writeInvoiceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.PathValue("invoice_id")
	resp, err := s.invoices.Handler.GetInvoiceHandler(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.PathValue("invoice_id")
	paymentHeader := r.Header.Get("X-Payment")
	if paymentHeader == "" {
		writeInvoiceError(w, http.StatusBadRequest, "missing_payment_header", "X-Payment header is required")
		return
	}

	resp, err := s.invoices.Handler.VerifyInvoiceHandler(r.Context(), invoiceID, paymentHeader)
	if err != nil {
		writeInvoiceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettleInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.PathValue("invoice_id")
	resp, err := s.invoices.Handler.SettleInvoiceHandler(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSupportedKinds(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invoices.Handler.SupportedHandler(r.Context())
	if err != nil {
		writeInvoiceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeInvoiceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoicedomainerrors.ErrInvoiceNotFound):
		writeInvoiceError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrInvalidInvoiceInput):
		writeInvoiceError(w, http.StatusBadRequest, "invalid_invoice_input", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrProtocolViolation):
		writeInvoiceError(w, http.StatusBadRequest, "protocol_violation", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrInvoiceExpired):
		writeInvoiceError(w, http.StatusGone, "invoice_expired", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrInvalidTransition):
		writeInvoiceError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrFacilitatorRejected):
		writeInvoiceError(w, http.StatusPaymentRequired, "facilitator_rejected", err.Error())
	case errors.Is(err, invoicedomainerrors.ErrFacilitatorUnreachable):
		writeInvoiceError(w, http.StatusBadGateway, "facilitator_unreachable", err.Error())
	default:
		writeInvoiceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeInvoiceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, invoicehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
