package http

type ErrorResponse struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Rejections []RejectionDTO `json:"rejections,omitempty"`
}

type RecipientDTO struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Label   string  `json:"label,omitempty"`
}

type RejectionDTO struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Label   string  `json:"label,omitempty"`
	Reason  string  `json:"reason"`
}

type ExecuteRequest struct {
	SourceAddress string         `json:"source_address"`
	Asset         string         `json:"asset"`
	Mode          string         `json:"mode"`
	Recipients    []RecipientDTO `json:"recipients"`
}

type OutcomeDTO struct {
	Address   string  `json:"address"`
	Amount    float64 `json:"amount"`
	Label     string  `json:"label,omitempty"`
	Status    string  `json:"status"`
	Reference string  `json:"reference,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

type RunDTO struct {
	RunID                string       `json:"run_id"`
	SourceAddress        string       `json:"source_address"`
	Asset                string       `json:"asset"`
	Mode                 string       `json:"mode"`
	TotalRequested       int          `json:"total_requested"`
	SucceededCount       int          `json:"succeeded_count"`
	FailedCount          int          `json:"failed_count"`
	TotalAmountRequested float64      `json:"total_amount_requested"`
	Success              bool         `json:"success"`
	Outcomes             []OutcomeDTO `json:"outcomes"`
	StartedAt            string       `json:"started_at"`
	FinishedAt           string       `json:"finished_at"`
}

type RunResponse struct {
	Status string `json:"status"`
	Data   RunDTO `json:"data"`
}

type RunListResponse struct {
	Status string   `json:"status"`
	Data   []RunDTO `json:"data"`
}

type WeightedDTO struct {
	Address string  `json:"address"`
	Weight  float64 `json:"weight"`
}

type StakeDTO struct {
	Address   string  `json:"address"`
	Principal float64 `json:"principal"`
}

type AllocateRequest struct {
	Policy      string        `json:"policy"`
	Addresses   []string      `json:"addresses,omitempty"`
	Amount      float64       `json:"amount,omitempty"`
	TotalAmount float64       `json:"total_amount,omitempty"`
	Holders     []WeightedDTO `json:"holders,omitempty"`
	Stakers     []StakeDTO    `json:"stakers,omitempty"`
	AnnualRate  float64       `json:"annual_rate,omitempty"`
	Period      string        `json:"period,omitempty"`
}

type AllocateResponse struct {
	Status string         `json:"status"`
	Data   []RecipientDTO `json:"data"`
}
