package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
)

// Wire types for the x402 facilitator exchange. Responses are closed structs
// validated at the boundary; malformed payloads surface as
// ErrProtocolViolation instead of propagating undefined fields.

const (
	Version     = 1
	SchemeExact = "exact"
)

type PaymentRequirements struct {
	Scheme            string         `json:"scheme"`
	Network           string         `json:"network"`
	MaxAmountRequired string         `json:"maxAmountRequired"`
	Resource          string         `json:"resource"`
	Description       string         `json:"description"`
	MimeType          string         `json:"mimeType"`
	OutputSchema      map[string]any `json:"outputSchema,omitempty"`
	PayTo             string         `json:"payTo"`
	MaxTimeoutSeconds int            `json:"maxTimeoutSeconds"`
	Asset             string         `json:"asset"`
	Extra             map[string]any `json:"extra,omitempty"`
}

type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

type FacilitatorRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentHeader       string              `json:"paymentHeader"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

type VerificationResponse struct {
	IsValid       bool    `json:"isValid"`
	InvalidReason *string `json:"invalidReason"`
}

type SettlementResponse struct {
	Success   bool    `json:"success"`
	Error     *string `json:"error"`
	TxHash    *string `json:"txHash"`
	NetworkID *string `json:"networkId"`
}

type SupportedKind struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}

type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// EncodePaymentHeader serializes a payment payload into the base64 JSON form
// carried by the X-Payment header. Decode(Encode(p)) == p for any
// well-formed payload.
func EncodePaymentHeader(payload PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode payment payload: %s", domainerrors.ErrProtocolViolation, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecodePaymentHeader(header string) (PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return PaymentPayload{}, fmt.Errorf("%w: payment header is not valid base64", domainerrors.ErrProtocolViolation)
	}
	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PaymentPayload{}, fmt.Errorf("%w: payment header is not valid JSON", domainerrors.ErrProtocolViolation)
	}
	if payload.X402Version != Version || strings.TrimSpace(payload.Scheme) == "" || strings.TrimSpace(payload.Network) == "" {
		return PaymentPayload{}, fmt.Errorf("%w: payment payload is missing required fields", domainerrors.ErrProtocolViolation)
	}
	return payload, nil
}

// NetworkID maps a chain network name to the x402 network identifier.
func NetworkID(network string) string {
	switch network {
	case "mainnet-beta":
		return "solana-mainnet"
	case "devnet":
		return "solana-devnet"
	case "testnet":
		return "solana-testnet"
	default:
		return "solana-devnet"
	}
}
