package errors

import (
	"errors"
	"fmt"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
)

var (
	ErrAddressInvalid         = errors.New("address is not a valid account address")
	ErrRecipientsInvalid      = errors.New("one or more recipients failed validation")
	ErrAllocationInvalidInput = errors.New("allocation policy inputs are missing or empty")
	ErrFundingRequired        = errors.New("live distribution requires a settled funding invoice covering the requested total")
	ErrInvalidRunInput        = errors.New("payout run input is invalid")
	ErrRunNotFound            = errors.New("payout run not found")
)

// RejectionError carries the per-recipient rejection list alongside the
// ErrRecipientsInvalid sentinel so callers can keep using errors.Is.
type RejectionError struct {
	Rejections []entities.RecipientRejection
}

func NewRejectionError(rejections []entities.RecipientRejection) *RejectionError {
	return &RejectionError{Rejections: rejections}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s (%d rejected)", ErrRecipientsInvalid.Error(), len(e.Rejections))
}

func (e *RejectionError) Unwrap() error {
	return ErrRecipientsInvalid
}
