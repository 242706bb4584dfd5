package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	payouthttp "tokendrop/contexts/distribution/payout-service/transport/http"
	invoicehttp "tokendrop/contexts/funding/invoice-service/transport/http"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

func createInvoice(t *testing.T, harness testHarness, amount float64) invoicehttp.InvoiceDTO {
	t.Helper()
	recorder := harness.do(t, http.MethodPost, "/v1/invoices", invoicehttp.CreateInvoiceRequest{
		Asset:  "USDC",
		Amount: amount,
		PayTo:  testSourceAddress,
	}, nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp invoicehttp.InvoiceResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode invoice response: %v", err)
	}
	return resp.Data
}

func paymentHeader(t *testing.T) string {
	t.Helper()
	header, err := x402.EncodePaymentHeader(x402.PaymentPayload{
		X402Version: x402.Version,
		Scheme:      x402.SchemeExact,
		Network:     "solana-devnet",
		Payload:     json.RawMessage(`{"signature":"sig-1"}`),
	})
	if err != nil {
		t.Fatalf("encode payment header: %v", err)
	}
	return header
}

func TestCreateInvoiceEndpointValidatesInput(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodPost, "/v1/invoices", invoicehttp.CreateInvoiceRequest{
		Asset:  "USDC",
		Amount: -1,
		PayTo:  testSourceAddress,
	}, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestGetInvoiceEndpointUnknownInvoice(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodGet, "/v1/invoices/missing", nil, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestVerifyInvoiceEndpointRequiresPaymentHeader(t *testing.T) {
	harness := newTestHarness(t)
	invoice := createInvoice(t, harness, 100)

	recorder := harness.do(t, http.MethodPost, "/v1/invoices/"+invoice.InvoiceID+"/verify", nil, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestSettleBeforeVerifyConflicts(t *testing.T) {
	harness := newTestHarness(t)
	invoice := createInvoice(t, harness, 100)

	recorder := harness.do(t, http.MethodPost, "/v1/invoices/"+invoice.InvoiceID+"/settle", nil, nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestInvoiceLifecycleUnlocksLivePayout(t *testing.T) {
	harness := newTestHarness(t)
	invoice := createInvoice(t, harness, 500)
	header := paymentHeader(t)

	verifyRecorder := harness.do(t, http.MethodPost, "/v1/invoices/"+invoice.InvoiceID+"/verify", nil, map[string]string{
		"X-Payment": header,
	})
	if verifyRecorder.Code != http.StatusOK {
		t.Fatalf("verify expected 200, got %d: %s", verifyRecorder.Code, verifyRecorder.Body.String())
	}

	settleRecorder := harness.do(t, http.MethodPost, "/v1/invoices/"+invoice.InvoiceID+"/settle", nil, nil)
	if settleRecorder.Code != http.StatusOK {
		t.Fatalf("settle expected 200, got %d: %s", settleRecorder.Code, settleRecorder.Body.String())
	}
	var settled invoicehttp.InvoiceResponse
	if err := json.Unmarshal(settleRecorder.Body.Bytes(), &settled); err != nil {
		t.Fatalf("decode settle response: %v", err)
	}
	if settled.Data.Status != "settled" || settled.Data.TxHash == "" {
		t.Fatalf("unexpected settled invoice: %+v", settled.Data)
	}

	executeRecorder := harness.do(t, http.MethodPost, "/v1/payouts/execute", payouthttp.ExecuteRequest{
		SourceAddress: testSourceAddress,
		Asset:         "USDC",
		Mode:          "live",
		Recipients: []payouthttp.RecipientDTO{
			{Address: testRecipientA, Amount: 100},
			{Address: testRecipientB, Amount: 200},
		},
	}, nil)
	if executeRecorder.Code != http.StatusOK {
		t.Fatalf("live payout expected 200 after settlement, got %d: %s", executeRecorder.Code, executeRecorder.Body.String())
	}

	var run payouthttp.RunResponse
	if err := json.Unmarshal(executeRecorder.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	if run.Data.SucceededCount != 2 || run.Data.Mode != "live" {
		t.Fatalf("unexpected live run: %+v", run.Data)
	}
}

func TestSupportedEndpoint(t *testing.T) {
	harness := newTestHarness(t)

	recorder := harness.do(t, http.MethodGet, "/v1/funding/supported", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp invoicehttp.SupportedResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode supported response: %v", err)
	}
	if len(resp.Data) == 0 {
		t.Fatalf("expected at least one supported kind")
	}
}
