package facilitator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

func requirementsFixture() x402.PaymentRequirements {
	return x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           "solana-devnet",
		MaxAmountRequired: "100",
		Resource:          "https://pay.example.dev/distribute/USDC",
		MimeType:          "application/json",
		PayTo:             "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		MaxTimeoutSeconds: 300,
		Asset:             "USDC",
	}
}

func TestClientVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/verify" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var request x402.FacilitatorRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode facilitator request: %v", err)
		}
		if request.X402Version != x402.Version || request.PaymentHeader != "header-1" {
			t.Fatalf("unexpected facilitator request: %+v", request)
		}
		_ = json.NewEncoder(w).Encode(x402.VerificationResponse{IsValid: true})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verification, err := client.Verify(context.Background(), "header-1", requirementsFixture())
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verification.IsValid {
		t.Fatalf("expected valid verification, got %+v", verification)
	}
}

func TestClientSettleReportsFailure(t *testing.T) {
	reason := "insufficient balance"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settle" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(x402.SettlementResponse{Success: false, Error: &reason})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	settlement, err := client.Settle(context.Background(), "header-1", requirementsFixture())
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if settlement.Success || settlement.Error == nil || *settlement.Error != reason {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}
}

func TestClientSupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/supported" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(x402.SupportedResponse{Kinds: []x402.SupportedKind{
			{Scheme: x402.SchemeExact, Network: "solana-devnet"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	kinds, err := client.Supported(context.Background())
	if err != nil {
		t.Fatalf("supported failed: %v", err)
	}
	if len(kinds) != 1 || kinds[0].Network != "solana-devnet" {
		t.Fatalf("unexpected kinds: %+v", kinds)
	}
}

func TestClientMapsTransportAndServerFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	client := NewClient(server.URL)
	if _, err := client.Verify(context.Background(), "header-1", requirementsFixture()); !errors.Is(err, domainerrors.ErrFacilitatorUnreachable) {
		t.Fatalf("expected unreachable error for 503, got %v", err)
	}

	server.Close()
	if _, err := client.Verify(context.Background(), "header-1", requirementsFixture()); !errors.Is(err, domainerrors.ErrFacilitatorUnreachable) {
		t.Fatalf("expected unreachable error for closed server, got %v", err)
	}
}

func TestClientRejectsMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Verify(context.Background(), "header-1", requirementsFixture()); !errors.Is(err, domainerrors.ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}
