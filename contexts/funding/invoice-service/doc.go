// Package invoiceservice issues funding invoices and drives them through the
// x402 facilitator lifecycle: pending, verified, settled, with expired and
// failed as the failure exits. Settled invoices unlock live payout runs in
// the distribution context.
package invoiceservice
