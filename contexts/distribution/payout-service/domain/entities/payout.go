package entities

import "time"

type DistributionMode string

const (
	ModeDryRun DistributionMode = "dry-run"
	ModeLive   DistributionMode = "live"
)

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Recipient is immutable once handed to the executor.
type Recipient struct {
	Address string
	Amount  float64
	Label   string
}

type DistributionRequest struct {
	SourceAddress string
	Asset         string
	Recipients    []Recipient
	Mode          DistributionMode
}

type RecipientRejection struct {
	Recipient Recipient
	Reason    string
}

type RecipientOutcome struct {
	Recipient Recipient
	Status    OutcomeStatus
	Reference string
	Reason    string
}

// DistributionResult is derived once per run and never mutated afterwards.
// Outcomes keep the order recipients were supplied in.
type DistributionResult struct {
	RunID                string
	SourceAddress        string
	Asset                string
	Mode                 DistributionMode
	TotalRequested       int
	SucceededCount       int
	FailedCount          int
	TotalAmountRequested float64
	Success              bool
	Outcomes             []RecipientOutcome
	StartedAt            time.Time
	FinishedAt           time.Time
}
