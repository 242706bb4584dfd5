package entities

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusVerified InvoiceStatus = "verified"
	InvoiceStatusSettled  InvoiceStatus = "settled"
	InvoiceStatusExpired  InvoiceStatus = "expired"
	InvoiceStatusFailed   InvoiceStatus = "failed"
)

// Invoice tracks one funding request through the facilitator lifecycle.
// Once a terminal status is reached the invoice is immutable.
type Invoice struct {
	ID            string
	Asset         string
	Amount        float64
	PayTo         string
	Description   string
	Status        InvoiceStatus
	PaymentURL    string
	PaymentHeader string
	TxHash        string
	FailureReason string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	UpdatedAt     time.Time
}

func (i Invoice) Terminal() bool {
	switch i.Status {
	case InvoiceStatusSettled, InvoiceStatusExpired, InvoiceStatusFailed:
		return true
	default:
		return false
	}
}
