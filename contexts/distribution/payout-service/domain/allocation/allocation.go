package allocation

import (
	"fmt"
	"math"

	"tokendrop/contexts/distribution/payout-service/domain/entities"
	domainerrors "tokendrop/contexts/distribution/payout-service/domain/errors"
)

// Policies floor every per-recipient amount. The sum of allocated amounts is
// therefore <= the requested total; the remainder stays with the source
// account and is not redistributed.

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

var periodsPerYear = map[Period]float64{
	PeriodDaily:   365,
	PeriodWeekly:  52,
	PeriodMonthly: 12,
}

type Weighted struct {
	Address string
	Weight  float64
}

type Stake struct {
	Address   string
	Principal float64
}

// FixedPerWinner pays every listed address the same literal amount.
func FixedPerWinner(addresses []string, amount float64) ([]entities.Recipient, error) {
	if len(addresses) == 0 || !isPositiveFinite(amount) {
		return nil, domainerrors.ErrAllocationInvalidInput
	}
	recipients := make([]entities.Recipient, 0, len(addresses))
	for i, address := range addresses {
		recipients = append(recipients, entities.Recipient{
			Address: address,
			Amount:  amount,
			Label:   fmt.Sprintf("Winner #%d", i+1),
		})
	}
	return recipients, nil
}

// EqualSplit gives each recipient floor(totalAmount / count).
func EqualSplit(addresses []string, totalAmount float64) ([]entities.Recipient, error) {
	if len(addresses) == 0 || !isPositiveFinite(totalAmount) {
		return nil, domainerrors.ErrAllocationInvalidInput
	}
	perRecipient := math.Floor(totalAmount / float64(len(addresses)))
	recipients := make([]entities.Recipient, 0, len(addresses))
	for _, address := range addresses {
		recipients = append(recipients, entities.Recipient{
			Address: address,
			Amount:  perRecipient,
		})
	}
	return recipients, nil
}

// ProportionalByWeight gives each holder floor(weight/totalWeight * totalAmount).
func ProportionalByWeight(holders []Weighted, totalAmount float64) ([]entities.Recipient, error) {
	if len(holders) == 0 || !isPositiveFinite(totalAmount) {
		return nil, domainerrors.ErrAllocationInvalidInput
	}
	var totalWeight float64
	for _, holder := range holders {
		totalWeight += holder.Weight
	}
	if !isPositiveFinite(totalWeight) {
		return nil, domainerrors.ErrAllocationInvalidInput
	}
	recipients := make([]entities.Recipient, 0, len(holders))
	for _, holder := range holders {
		recipients = append(recipients, entities.Recipient{
			Address: holder.Address,
			Amount:  math.Floor(holder.Weight / totalWeight * totalAmount),
			Label:   fmt.Sprintf("Holder: %g", holder.Weight),
		})
	}
	return recipients, nil
}

// RateBased gives each staker floor(principal * annualRate / periodsPerYear)
// for the chosen accrual period.
func RateBased(stakers []Stake, annualRate float64, period Period) ([]entities.Recipient, error) {
	periods, ok := periodsPerYear[period]
	if !ok || len(stakers) == 0 || !isPositiveFinite(annualRate) {
		return nil, domainerrors.ErrAllocationInvalidInput
	}
	periodRate := annualRate / periods
	recipients := make([]entities.Recipient, 0, len(stakers))
	for _, staker := range stakers {
		recipients = append(recipients, entities.Recipient{
			Address: staker.Address,
			Amount:  math.Floor(staker.Principal * periodRate),
			Label:   fmt.Sprintf("Staker: %g", staker.Principal),
		})
	}
	return recipients, nil
}

func isPositiveFinite(value float64) bool {
	return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}
