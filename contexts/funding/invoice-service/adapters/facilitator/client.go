package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

// Client talks to an x402 facilitator over HTTP. Transport failures wrap
// ErrFacilitatorUnreachable so callers can map them without inspecting the
// underlying net error.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Verify(ctx context.Context, paymentHeader string, requirements x402.PaymentRequirements) (x402.VerificationResponse, error) {
	var response x402.VerificationResponse
	err := c.post(ctx, "/verify", x402.FacilitatorRequest{
		X402Version:         x402.Version,
		PaymentHeader:       paymentHeader,
		PaymentRequirements: requirements,
	}, &response)
	if err != nil {
		return x402.VerificationResponse{}, err
	}
	return response, nil
}

func (c *Client) Settle(ctx context.Context, paymentHeader string, requirements x402.PaymentRequirements) (x402.SettlementResponse, error) {
	var response x402.SettlementResponse
	err := c.post(ctx, "/settle", x402.FacilitatorRequest{
		X402Version:         x402.Version,
		PaymentHeader:       paymentHeader,
		PaymentRequirements: requirements,
	}, &response)
	if err != nil {
		return x402.SettlementResponse{}, err
	}
	return response, nil
}

func (c *Client) Supported(ctx context.Context) ([]x402.SupportedKind, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/supported", nil)
	if err != nil {
		return nil, err
	}
	var response x402.SupportedResponse
	if err := c.do(request, &response); err != nil {
		return nil, err
	}
	return response.Kinds, nil
}

func (c *Client) post(ctx context.Context, path string, body x402.FacilitatorRequest, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %s", domainerrors.ErrFacilitatorUnreachable, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %s", domainerrors.ErrFacilitatorUnreachable, err)
	}
	if response.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: facilitator returned status %d", domainerrors.ErrFacilitatorUnreachable, response.StatusCode)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: facilitator returned status %d", domainerrors.ErrFacilitatorRejected, response.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: response body is not valid JSON", domainerrors.ErrProtocolViolation)
	}
	return nil
}

var _ ports.Facilitator = (*Client)(nil)
