package memory

import (
	"context"
	"fmt"
	"sync"

	"tokendrop/contexts/distribution/payout-service/ports"
	"tokendrop/internal/platform/chain"
)

// SubmittedTransfer records one submission accepted by the fake ledger.
type SubmittedTransfer struct {
	ReceiptID string
	From      string
	To        string
	Asset     string
	Amount    float64
}

// Ledger is a deterministic in-memory ledger client. Failures are injected
// per destination address so tests can script partial-failure batches.
type Ledger struct {
	mu sync.Mutex

	balances    map[string]float64
	failSubmit  map[string]string
	failConfirm map[string]string
	submissions []SubmittedTransfer
	nextReceipt int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:    make(map[string]float64),
		failSubmit:  make(map[string]string),
		failConfirm: make(map[string]string),
	}
}

func (l *Ledger) SetBalance(address string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] = amount
}

func (l *Ledger) FailSubmitFor(address string, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failSubmit[address] = reason
}

func (l *Ledger) FailConfirmFor(address string, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failConfirm[address] = reason
}

func (l *Ledger) Submissions() []SubmittedTransfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SubmittedTransfer(nil), l.submissions...)
}

func (l *Ledger) IsValidAddress(address string) bool {
	return chain.IsValidAddress(address)
}

func (l *Ledger) GetBalance(_ context.Context, address string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address], nil
}

func (l *Ledger) SubmitTransfer(ctx context.Context, from, to, asset string, amount float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if reason, ok := l.failSubmit[to]; ok {
		return "", fmt.Errorf("submission rejected: %s", reason)
	}
	l.nextReceipt++
	receiptID := fmt.Sprintf("receipt-%d", l.nextReceipt)
	l.submissions = append(l.submissions, SubmittedTransfer{
		ReceiptID: receiptID,
		From:      from,
		To:        to,
		Asset:     asset,
		Amount:    amount,
	})
	l.balances[from] -= amount
	l.balances[to] += amount
	return receiptID, nil
}

func (l *Ledger) ConfirmTransfer(ctx context.Context, receiptID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, submission := range l.submissions {
		if submission.ReceiptID != receiptID {
			continue
		}
		if reason, ok := l.failConfirm[submission.To]; ok {
			return fmt.Errorf("confirmation failed: %s", reason)
		}
		return nil
	}
	return fmt.Errorf("unknown receipt %s", receiptID)
}

var _ ports.LedgerClient = (*Ledger)(nil)
