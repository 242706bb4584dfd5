package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tokendrop/contexts/funding/invoice-service/application"
	"tokendrop/contexts/funding/invoice-service/domain/entities"
	"tokendrop/contexts/funding/invoice-service/ports"
	httptransport "tokendrop/contexts/funding/invoice-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateInvoiceHandler(ctx context.Context, req httptransport.CreateInvoiceRequest) (httptransport.InvoiceResponse, error) {
	invoice, err := h.Service.Create(ctx, ports.CreateInvoiceInput{
		Asset:       req.Asset,
		Amount:      req.Amount,
		PayTo:       req.PayTo,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.InvoiceResponse{}, err
	}
	return httptransport.InvoiceResponse{
		Status: "success",
		Data:   toInvoiceDTO(invoice),
	}, nil
}

func (h Handler) GetInvoiceHandler(ctx context.Context, invoiceID string) (httptransport.InvoiceResponse, error) {
	invoice, err := h.Service.Get(ctx, invoiceID)
	if err != nil {
		return httptransport.InvoiceResponse{}, err
	}
	return httptransport.InvoiceResponse{
		Status: "success",
		Data:   toInvoiceDTO(invoice),
	}, nil
}

func (h Handler) VerifyInvoiceHandler(ctx context.Context, invoiceID string, paymentHeader string) (httptransport.InvoiceResponse, error) {
	invoice, err := h.Service.Verify(ctx, invoiceID, paymentHeader)
	if err != nil {
		return httptransport.InvoiceResponse{}, err
	}
	return httptransport.InvoiceResponse{
		Status: "success",
		Data:   toInvoiceDTO(invoice),
	}, nil
}

func (h Handler) SettleInvoiceHandler(ctx context.Context, invoiceID string) (httptransport.InvoiceResponse, error) {
	invoice, err := h.Service.Settle(ctx, invoiceID)
	if err != nil {
		return httptransport.InvoiceResponse{}, err
	}
	return httptransport.InvoiceResponse{
		Status: "success",
		Data:   toInvoiceDTO(invoice),
	}, nil
}

func (h Handler) SupportedHandler(ctx context.Context) (httptransport.SupportedResponse, error) {
	kinds, err := h.Service.Supported(ctx)
	if err != nil {
		return httptransport.SupportedResponse{}, err
	}
	resp := httptransport.SupportedResponse{
		Status: "success",
		Data:   make([]httptransport.SupportedKindDTO, 0, len(kinds)),
	}
	for _, kind := range kinds {
		resp.Data = append(resp.Data, httptransport.SupportedKindDTO{
			Scheme:  kind.Scheme,
			Network: kind.Network,
		})
	}
	return resp, nil
}

func toInvoiceDTO(invoice entities.Invoice) httptransport.InvoiceDTO {
	return httptransport.InvoiceDTO{
		InvoiceID:     invoice.ID,
		Asset:         invoice.Asset,
		Amount:        invoice.Amount,
		PayTo:         invoice.PayTo,
		Description:   invoice.Description,
		Status:        string(invoice.Status),
		PaymentURL:    invoice.PaymentURL,
		TxHash:        invoice.TxHash,
		FailureReason: invoice.FailureReason,
		CreatedAt:     invoice.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     invoice.ExpiresAt.UTC().Format(time.RFC3339),
		UpdatedAt:     invoice.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
