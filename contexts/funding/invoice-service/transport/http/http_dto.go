package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateInvoiceRequest struct {
	Asset       string  `json:"asset"`
	Amount      float64 `json:"amount"`
	PayTo       string  `json:"pay_to"`
	Description string  `json:"description,omitempty"`
}

type InvoiceDTO struct {
	InvoiceID     string  `json:"invoice_id"`
	Asset         string  `json:"asset"`
	Amount        float64 `json:"amount"`
	PayTo         string  `json:"pay_to"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status"`
	PaymentURL    string  `json:"payment_url"`
	TxHash        string  `json:"tx_hash,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ExpiresAt     string  `json:"expires_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type InvoiceResponse struct {
	Status string     `json:"status"`
	Data   InvoiceDTO `json:"data"`
}

type SupportedKindDTO struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}

type SupportedResponse struct {
	Status string             `json:"status"`
	Data   []SupportedKindDTO `json:"data"`
}
