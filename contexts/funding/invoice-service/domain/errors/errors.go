package errors

import "errors"

var (
	ErrInvalidInvoiceInput    = errors.New("invoice input is invalid")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrInvalidTransition      = errors.New("invoice transition is not permitted from its current state")
	ErrInvoiceExpired         = errors.New("invoice has expired")
	ErrFacilitatorUnreachable = errors.New("payment facilitator is unreachable")
	ErrFacilitatorRejected    = errors.New("payment facilitator rejected the request")
	ErrProtocolViolation      = errors.New("facilitator protocol violation")
)
