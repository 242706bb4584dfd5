package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tokendrop/contexts/funding/invoice-service/adapters/memory"
	"tokendrop/contexts/funding/invoice-service/domain/entities"
	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
	"tokendrop/internal/platform/chain"
)

const payToAddress = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type invoiceFixture struct {
	service     Service
	store       *memory.Store
	facilitator *memory.Facilitator
	clock       *fakeClock
}

func newInvoiceFixture() invoiceFixture {
	store := memory.NewStore()
	facilitator := memory.NewFacilitator()
	clock := newFakeClock()
	return invoiceFixture{
		service: Service{
			Repo:        store,
			Facilitator: facilitator,
			Addresses:   chain.Validator{},
			Outbox:      store,
			Clock:       clock,
			IDGen:       store,
			Network:     "devnet",
			PaymentHost: "https://pay.example.dev",
		},
		store:       store,
		facilitator: facilitator,
		clock:       clock,
	}
}

func validPaymentHeader(t *testing.T) string {
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

func TestCreateRejectsInvalidInput(t *testing.T) {
	fixture := newInvoiceFixture()
	cases := []ports.CreateInvoiceInput{
		{Asset: "", Amount: 100, PayTo: payToAddress},
		{Asset: "USDC", Amount: 0, PayTo: payToAddress},
		{Asset: "USDC", Amount: -5, PayTo: payToAddress},
		{Asset: "USDC", Amount: 100, PayTo: "not-an-address"},
	}
	for _, input := range cases {
		if _, err := fixture.service.Create(context.Background(), input); !errors.Is(err, domainerrors.ErrInvalidInvoiceInput) {
			t.Fatalf("expected invalid input for %+v, got %v", input, err)
		}
	}
}

func TestCreateOpensPendingInvoice(t *testing.T) {
	fixture := newInvoiceFixture()

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset:       "USDC",
		Amount:      250,
		PayTo:       payToAddress,
		Description: "tournament prize pool",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if invoice.Status != entities.InvoiceStatusPending {
		t.Fatalf("expected pending status, got %s", invoice.Status)
	}
	if !strings.HasSuffix(invoice.PaymentURL, "/pay/distribute/USDC") {
		t.Fatalf("unexpected payment url %q", invoice.PaymentURL)
	}
	if got := invoice.ExpiresAt.Sub(invoice.CreatedAt); got != 300*time.Second {
		t.Fatalf("expected 300s expiry window, got %s", got)
	}

	stored, err := fixture.service.Get(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != entities.InvoiceStatusPending {
		t.Fatalf("expected stored invoice pending, got %s", stored.Status)
	}
}

func TestVerifyMovesPendingInvoiceToVerified(t *testing.T) {
	fixture := newInvoiceFixture()
	header := validPaymentHeader(t)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	verified, err := fixture.service.Verify(context.Background(), invoice.ID, header)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.Status != entities.InvoiceStatusVerified {
		t.Fatalf("expected verified status, got %s", verified.Status)
	}
	if verified.PaymentHeader != header {
		t.Fatalf("payment header was not retained")
	}
	calls := fixture.facilitator.VerifyCalls()
	if len(calls) != 1 || calls[0] != header {
		t.Fatalf("facilitator saw unexpected verify calls: %v", calls)
	}
}

func TestVerifyRejectsMalformedHeaderWithoutTransition(t *testing.T) {
	fixture := newInvoiceFixture()

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := fixture.service.Verify(context.Background(), invoice.ID, "bm90IGpzb24="); !errors.Is(err, domainerrors.ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
	stored, err := fixture.service.Get(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != entities.InvoiceStatusPending {
		t.Fatalf("malformed header must not change status, got %s", stored.Status)
	}
	if len(fixture.facilitator.VerifyCalls()) != 0 {
		t.Fatalf("facilitator must not be called for malformed headers")
	}
}

func TestVerifyRejectionFailsInvoice(t *testing.T) {
	fixture := newInvoiceFixture()
	fixture.facilitator.RejectVerification("signature mismatch")

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	failed, err := fixture.service.Verify(context.Background(), invoice.ID, validPaymentHeader(t))
	if !errors.Is(err, domainerrors.ErrFacilitatorRejected) {
		t.Fatalf("expected facilitator rejection, got %v", err)
	}
	if failed.Status != entities.InvoiceStatusFailed || failed.FailureReason != "signature mismatch" {
		t.Fatalf("unexpected failed invoice: %+v", failed)
	}

	// Failed is terminal; a later settle attempt is refused.
	if _, err := fixture.service.Settle(context.Background(), invoice.ID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on failed invoice, got %v", err)
	}
}

func TestVerifyUnreachableFacilitatorFailsInvoice(t *testing.T) {
	fixture := newInvoiceFixture()
	fixture.facilitator.SetUnreachable(true)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	failed, err := fixture.service.Verify(context.Background(), invoice.ID, validPaymentHeader(t))
	if !errors.Is(err, domainerrors.ErrFacilitatorUnreachable) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	if failed.Status != entities.InvoiceStatusFailed {
		t.Fatalf("expected failed status, got %s", failed.Status)
	}
}

func TestVerifyRetryOnVerifiedInvoiceIsSafe(t *testing.T) {
	fixture := newInvoiceFixture()
	header := validPaymentHeader(t)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := fixture.service.Verify(context.Background(), invoice.ID, header); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	again, err := fixture.service.Verify(context.Background(), invoice.ID, header)
	if err != nil {
		t.Fatalf("verify retry failed: %v", err)
	}
	if again.Status != entities.InvoiceStatusVerified {
		t.Fatalf("retry must leave invoice verified, got %s", again.Status)
	}
}

func TestSettleRequiresVerifiedInvoice(t *testing.T) {
	fixture := newInvoiceFixture()

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := fixture.service.Settle(context.Background(), invoice.ID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for pending settle, got %v", err)
	}
}

func TestSettleReplaysVerifiedHeader(t *testing.T) {
	fixture := newInvoiceFixture()
	header := validPaymentHeader(t)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := fixture.service.Verify(context.Background(), invoice.ID, header); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	settled, err := fixture.service.Settle(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if settled.Status != entities.InvoiceStatusSettled {
		t.Fatalf("expected settled status, got %s", settled.Status)
	}
	if settled.TxHash == "" {
		t.Fatalf("expected settlement tx hash")
	}
	calls := fixture.facilitator.SettleCalls()
	if len(calls) != 1 || calls[0] != header {
		t.Fatalf("settle must replay the verified header, got %v", calls)
	}

	// Settled is terminal; further transitions are refused.
	if _, err := fixture.service.Settle(context.Background(), invoice.ID); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on settled invoice, got %v", err)
	}
	if _, err := fixture.service.Verify(context.Background(), invoice.ID, header); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on settled invoice, got %v", err)
	}
}

func TestOverdueInvoiceExpiresLazily(t *testing.T) {
	fixture := newInvoiceFixture()

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fixture.clock.Advance(301 * time.Second)

	if _, err := fixture.service.Verify(context.Background(), invoice.ID, validPaymentHeader(t)); !errors.Is(err, domainerrors.ErrInvoiceExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
	stored, err := fixture.service.Get(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != entities.InvoiceStatusExpired {
		t.Fatalf("expected persisted expired status, got %s", stored.Status)
	}
	if len(fixture.facilitator.VerifyCalls()) != 0 {
		t.Fatalf("expired invoice must not reach the facilitator")
	}
}

func TestOverdueVerifiedInvoiceExpiresBeforeSettlement(t *testing.T) {
	fixture := newInvoiceFixture()
	header := validPaymentHeader(t)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 100, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := fixture.service.Verify(context.Background(), invoice.ID, header); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	fixture.clock.Advance(24 * time.Hour)

	if _, err := fixture.service.Settle(context.Background(), invoice.ID); !errors.Is(err, domainerrors.ErrInvoiceExpired) {
		t.Fatalf("expected expired error on overdue verified invoice, got %v", err)
	}
	stored, err := fixture.service.Get(context.Background(), invoice.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != entities.InvoiceStatusExpired {
		t.Fatalf("expected persisted expired status, got %s", stored.Status)
	}
	if len(fixture.facilitator.SettleCalls()) != 0 {
		t.Fatalf("expired invoice must not reach the facilitator")
	}
}

func TestHasSettledFundingGatesOnSettledAmount(t *testing.T) {
	fixture := newInvoiceFixture()
	header := validPaymentHeader(t)

	invoice, err := fixture.service.Create(context.Background(), ports.CreateInvoiceInput{
		Asset: "USDC", Amount: 500, PayTo: payToAddress,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	funded, err := fixture.service.HasSettledFunding(context.Background(), payToAddress, "USDC", 400)
	if err != nil {
		t.Fatalf("funding check failed: %v", err)
	}
	if funded {
		t.Fatalf("pending invoice must not count as settled funding")
	}

	if _, err := fixture.service.Verify(context.Background(), invoice.ID, header); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := fixture.service.Settle(context.Background(), invoice.ID); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	funded, err = fixture.service.HasSettledFunding(context.Background(), payToAddress, "USDC", 400)
	if err != nil {
		t.Fatalf("funding check failed: %v", err)
	}
	if !funded {
		t.Fatalf("settled invoice covering the amount must unlock funding")
	}

	funded, err = fixture.service.HasSettledFunding(context.Background(), payToAddress, "USDC", 600)
	if err != nil {
		t.Fatalf("funding check failed: %v", err)
	}
	if funded {
		t.Fatalf("funding must not unlock beyond the settled amount")
	}
}
