package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	payoutservice "tokendrop/contexts/distribution/payout-service"
	payoutmemory "tokendrop/contexts/distribution/payout-service/adapters/memory"
	payoutpostgres "tokendrop/contexts/distribution/payout-service/adapters/postgres"
	payoutworkers "tokendrop/contexts/distribution/payout-service/application/workers"
	invoiceservice "tokendrop/contexts/funding/invoice-service"
	"tokendrop/contexts/funding/invoice-service/adapters/facilitator"
	invoicepostgres "tokendrop/contexts/funding/invoice-service/adapters/postgres"
	invoiceworkers "tokendrop/contexts/funding/invoice-service/application/workers"
	"tokendrop/internal/platform/chain"
	"tokendrop/internal/platform/config"
	"tokendrop/internal/platform/db"
	"tokendrop/internal/platform/httpserver"
	"tokendrop/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	payoutRelay  *payoutworkers.OutboxRelay
	invoiceRelay *invoiceworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	invoiceRepo := invoicepostgres.NewRepository(pg.DB, logger)
	invoiceModule := invoiceservice.NewModule(invoiceservice.Dependencies{
		Repository:     invoiceRepo,
		Facilitator:    facilitator.NewClient(cfg.FacilitatorURL),
		Addresses:      chain.Validator{},
		Outbox:         invoiceRepo,
		Clock:          invoicepostgres.SystemClock{},
		IDGen:          invoicepostgres.UUIDGenerator{},
		Network:        cfg.Network,
		PaymentHost:    cfg.PaymentHost,
		InvoiceTimeout: cfg.InvoiceTimeout,
		Logger:         logger,
	})

	payoutRepo := payoutpostgres.NewRepository(pg.DB, logger)
	payoutModule := payoutservice.NewModule(payoutservice.Dependencies{
		Ledger:           payoutmemory.NewLedger(),
		Funding:          invoiceModule.Service,
		Repository:       payoutRepo,
		Outbox:           payoutRepo,
		Clock:            payoutpostgres.SystemClock{},
		IDGen:            payoutpostgres.UUIDGenerator{},
		RecipientTimeout: cfg.RecipientTimeout,
		SubmitWorkers:    cfg.SubmitWorkers,
		Logger:           logger,
	})

	server := httpserver.New(payoutModule, invoiceModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		postgres:     pg,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}

	if cfg.EnablePayoutOutboxRelay {
		payoutRepo := payoutpostgres.NewRepository(pg.DB, logger)
		app.payoutRelay = &payoutworkers.OutboxRelay{
			Outbox:    payoutRepo,
			Publisher: kafka,
			Clock:     payoutpostgres.SystemClock{},
			Topic:     "distribution.payouts",
			BatchSize: 100,
			Logger:    logger,
		}
	}
	if cfg.EnableInvoiceOutboxRelay {
		invoiceRepo := invoicepostgres.NewRepository(pg.DB, logger)
		app.invoiceRelay = &invoiceworkers.OutboxRelay{
			Outbox:    invoiceRepo,
			Publisher: kafka,
			Clock:     invoicepostgres.SystemClock{},
			Topic:     "funding.invoices",
			BatchSize: 100,
			Logger:    logger,
		}
	}
	return app, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.payoutRelay != nil {
			if err := w.payoutRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.invoiceRelay != nil {
			if err := w.invoiceRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
