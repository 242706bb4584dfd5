package payoutservice

import (
	"log/slog"
	"time"

	httpadapter "tokendrop/contexts/distribution/payout-service/adapters/http"
	"tokendrop/contexts/distribution/payout-service/adapters/memory"
	"tokendrop/contexts/distribution/payout-service/application"
	"tokendrop/contexts/distribution/payout-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
	Ledger  *memory.Ledger
}

type Dependencies struct {
	Ledger           ports.LedgerClient
	Funding          ports.FundingGate
	Repository       ports.Repository
	Outbox           ports.OutboxWriter
	Progress         ports.ProgressSink
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	RecipientTimeout time.Duration
	SubmitWorkers    int
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Ledger:           deps.Ledger,
		Funding:          deps.Funding,
		Repo:             deps.Repository,
		Outbox:           deps.Outbox,
		Progress:         deps.Progress,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		RecipientTimeout: deps.RecipientTimeout,
		SubmitWorkers:    deps.SubmitWorkers,
		Logger:           deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the fake ledger and in-memory store, for tests and
// local runs without postgres.
func NewInMemoryModule(funding ports.FundingGate, logger *slog.Logger) Module {
	store := memory.NewStore()
	ledger := memory.NewLedger()
	module := NewModule(Dependencies{
		Ledger:     ledger,
		Funding:    funding,
		Repository: store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	module.Ledger = ledger
	return module
}
