package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	payoutservice "tokendrop/contexts/distribution/payout-service"
	invoiceservice "tokendrop/contexts/funding/invoice-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tokendrop/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	payouts  payoutservice.Module
	invoices invoiceservice.Module
}

func New(
	payouts payoutservice.Module,
	invoices invoiceservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		payouts:  payouts,
		invoices: invoices,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/payouts/allocate", s.handleAllocate)
	s.mux.HandleFunc("POST /v1/payouts/execute", s.handleExecutePayout)
	s.mux.HandleFunc("GET /v1/payouts/{run_id}", s.handleGetRun)
	s.mux.HandleFunc("GET /v1/payouts", s.handleListRuns)

	s.mux.HandleFunc("POST /v1/invoices", s.handleCreateInvoice)
	s.mux.HandleFunc("GET /v1/invoices/{invoice_id}", s.handleGetInvoice)
	s.mux.HandleFunc("POST /v1/invoices/{invoice_id}/verify", s.handleVerifyInvoice)
	s.mux.HandleFunc("POST /v1/invoices/{invoice_id}/settle", s.handleSettleInvoice)
	s.mux.HandleFunc("GET /v1/funding/supported", s.handleSupportedKinds)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
