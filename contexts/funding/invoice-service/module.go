package invoiceservice

import (
	"log/slog"
	"time"

	httpadapter "tokendrop/contexts/funding/invoice-service/adapters/http"
	"tokendrop/contexts/funding/invoice-service/adapters/memory"
	"tokendrop/contexts/funding/invoice-service/application"
	"tokendrop/contexts/funding/invoice-service/ports"
	"tokendrop/internal/platform/chain"
)

type Module struct {
	Handler     httpadapter.Handler
	Service     application.Service
	Store       *memory.Store
	Facilitator *memory.Facilitator
}

type Dependencies struct {
	Repository     ports.Repository
	Facilitator    ports.Facilitator
	Addresses      ports.AddressValidator
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Network        string
	PaymentHost    string
	InvoiceTimeout time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	addresses := deps.Addresses
	if addresses == nil {
		addresses = chain.Validator{}
	}
	service := application.Service{
		Repo:           deps.Repository,
		Facilitator:    deps.Facilitator,
		Addresses:      addresses,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		Network:        deps.Network,
		PaymentHost:    deps.PaymentHost,
		InvoiceTimeout: deps.InvoiceTimeout,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the fake facilitator and in-memory store, for tests
// and local runs without postgres or a live facilitator.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	facilitator := memory.NewFacilitator()
	module := NewModule(Dependencies{
		Repository:  store,
		Facilitator: facilitator,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Network:     "devnet",
		PaymentHost: "https://pay.tokendrop.dev",
		Logger:      logger,
	})
	module.Store = store
	module.Facilitator = facilitator
	return module
}
