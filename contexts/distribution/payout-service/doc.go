// Package payoutservice implements batch asset distribution.
//
// The module owns payout run tables and exposes HTTP command/query handlers
// plus the outbox relay worker entrypoint. Live runs are gated on a settled
// funding invoice owned by the funding context.
package payoutservice
