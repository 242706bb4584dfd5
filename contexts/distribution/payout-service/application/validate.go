package application

import (
	"math"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
	"tokendrop/contexts/distribution/payout-service/ports"
)

const (
	rejectionBadAddress = "address is not a valid account address"
	rejectionBadAmount  = "amount must be a positive finite number"
)

// ValidateRecipients partitions recipients into a valid set and a rejection
// list. Input is never mutated or reordered; calling twice on the same input
// yields identical partitions.
func ValidateRecipients(ledger ports.LedgerClient, recipients []entities.Recipient) ([]entities.Recipient, []entities.RecipientRejection) {
	valid := make([]entities.Recipient, 0, len(recipients))
	var rejections []entities.RecipientRejection
	for _, recipient := range recipients {
		if !ledger.IsValidAddress(recipient.Address) {
			rejections = append(rejections, entities.RecipientRejection{
				Recipient: recipient,
				Reason:    rejectionBadAddress,
			})
			continue
		}
		if !(recipient.Amount > 0) || math.IsInf(recipient.Amount, 0) || math.IsNaN(recipient.Amount) {
			rejections = append(rejections, entities.RecipientRejection{
				Recipient: recipient,
				Reason:    rejectionBadAmount,
			})
			continue
		}
		valid = append(valid, recipient)
	}
	return valid, rejections
}
