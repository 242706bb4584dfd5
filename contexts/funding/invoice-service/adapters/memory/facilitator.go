package memory

import (
	"context"
	"sync"

	domainerrors "tokendrop/contexts/funding/invoice-service/domain/errors"
	"tokendrop/contexts/funding/invoice-service/ports"
	"tokendrop/contexts/funding/invoice-service/transport/x402"
)

// Facilitator is a deterministic in-process stand-in for the x402
// facilitator. Everything verifies and settles unless told otherwise.
type Facilitator struct {
	mu sync.Mutex

	invalidReason *string
	settleError   *string
	unreachable   bool
	txHash        string

	verifyCalls []string
	settleCalls []string
}

func NewFacilitator() *Facilitator {
	return &Facilitator{txHash: "tx-settled-1"}
}

// RejectVerification makes subsequent Verify calls report the payment as
// invalid with the given reason.
func (f *Facilitator) RejectVerification(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidReason = &reason
}

// FailSettlement makes subsequent Settle calls report a failed settlement.
func (f *Facilitator) FailSettlement(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settleError = &reason
}

// SetUnreachable makes every call fail as if the facilitator were down.
func (f *Facilitator) SetUnreachable(unreachable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreachable = unreachable
}

func (f *Facilitator) VerifyCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verifyCalls...)
}

func (f *Facilitator) SettleCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.settleCalls...)
}

func (f *Facilitator) Verify(_ context.Context, paymentHeader string, _ x402.PaymentRequirements) (x402.VerificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return x402.VerificationResponse{}, domainerrors.ErrFacilitatorUnreachable
	}
	f.verifyCalls = append(f.verifyCalls, paymentHeader)
	if f.invalidReason != nil {
		return x402.VerificationResponse{IsValid: false, InvalidReason: f.invalidReason}, nil
	}
	return x402.VerificationResponse{IsValid: true}, nil
}

func (f *Facilitator) Settle(_ context.Context, paymentHeader string, requirements x402.PaymentRequirements) (x402.SettlementResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return x402.SettlementResponse{}, domainerrors.ErrFacilitatorUnreachable
	}
	f.settleCalls = append(f.settleCalls, paymentHeader)
	if f.settleError != nil {
		return x402.SettlementResponse{Success: false, Error: f.settleError}, nil
	}
	txHash := f.txHash
	networkID := requirements.Network
	return x402.SettlementResponse{Success: true, TxHash: &txHash, NetworkID: &networkID}, nil
}

func (f *Facilitator) Supported(_ context.Context) ([]x402.SupportedKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable {
		return nil, domainerrors.ErrFacilitatorUnreachable
	}
	return []x402.SupportedKind{
		{Scheme: x402.SchemeExact, Network: "solana-devnet"},
		{Scheme: x402.SchemeExact, Network: "solana-mainnet"},
	}, nil
}

var _ ports.Facilitator = (*Facilitator)(nil)
