package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	payoutservice "tokendrop/contexts/distribution/payout-service"
	payouthttp "tokendrop/contexts/distribution/payout-service/transport/http"
	invoiceservice "tokendrop/contexts/funding/invoice-service"
)

const (
	testSourceAddress = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"
	testRecipientA    = "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR"
	testRecipientB    = "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8"
)

type testHarness struct {
	server   *Server
	payouts  payoutservice.Module
	invoices invoiceservice.Module
}

func newTestHarness(t *testing.T) testHarness {
	t.Helper()
	invoices := invoiceservice.NewInMemoryModule(nil)
	payouts := payoutservice.NewInMemoryModule(invoices.Service, nil)
	return testHarness{
		server:   New(payouts, invoices, nil, ":0"),
		payouts:  payouts,
		invoices: invoices,
	}
}

func (h testHarness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	h.server.mux.ServeHTTP(recorder, req)
	return recorder
}

func TestAllocateEndpointProportional(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/payouts/allocate", payouthttp.AllocateRequest{
		Policy:      "proportional",
		TotalAmount: 100,
		Holders: []payouthttp.WeightedDTO{
			{Address: testRecipientA, Weight: 1},
			{Address: testRecipientB, Weight: 3},
		},
	}, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp payouthttp.AllocateResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].Amount != 25 || resp.Data[1].Amount != 75 {
		t.Fatalf("unexpected allocation: %+v", resp.Data)
	}
}

func TestAllocateEndpointRejectsUnknownPolicy(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/payouts/allocate", payouthttp.AllocateRequest{
		Policy: "lottery",
	}, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestExecuteEndpointDryRun(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/payouts/execute", payouthttp.ExecuteRequest{
		SourceAddress: testSourceAddress,
		Asset:         "USDC",
		Mode:          "dry-run",
		Recipients: []payouthttp.RecipientDTO{
			{Address: testRecipientA, Amount: 10},
			{Address: testRecipientB, Amount: 20},
		},
	}, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp payouthttp.RunResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Success || resp.Data.SucceededCount != 2 {
		t.Fatalf("unexpected dry-run payload: %+v", resp.Data)
	}

	getRecorder := harness.do(t, http.MethodGet, "/v1/payouts/"+resp.Data.RunID, nil, nil)
	if getRecorder.Code != http.StatusOK {
		t.Fatalf("expected 200 on lookup, got %d", getRecorder.Code)
	}
}

func TestExecuteEndpointLiveRequiresSettledFunding(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/payouts/execute", payouthttp.ExecuteRequest{
		SourceAddress: testSourceAddress,
		Asset:         "USDC",
		Mode:          "live",
		Recipients: []payouthttp.RecipientDTO{
			{Address: testRecipientA, Amount: 10},
		},
	}, nil)
	if recorder.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp payouthttp.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != "funding_required" {
		t.Fatalf("unexpected error code %q", resp.Code)
	}
}

func TestExecuteEndpointReportsRecipientRejections(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/payouts/execute", payouthttp.ExecuteRequest{
		SourceAddress: testSourceAddress,
		Asset:         "USDC",
		Mode:          "live",
		Recipients: []payouthttp.RecipientDTO{
			{Address: testRecipientA, Amount: 10},
			{Address: "not-an-address", Amount: 10},
		},
	}, nil)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp payouthttp.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != "recipients_invalid" || len(resp.Rejections) != 1 {
		t.Fatalf("unexpected rejection payload: %+v", resp)
	}
	if resp.Rejections[0].Address != "not-an-address" {
		t.Fatalf("wrong rejected address: %+v", resp.Rejections[0])
	}
}

func TestGetRunEndpointUnknownRun(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodGet, "/v1/payouts/missing-run", nil, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}
