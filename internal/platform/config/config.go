package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	Network        string
	FacilitatorURL string
	PaymentHost    string

	InvoiceTimeout   time.Duration
	RecipientTimeout time.Duration
	SubmitWorkers    int

	EnablePayoutOutboxRelay  bool
	EnableInvoiceOutboxRelay bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tokendrop"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	network := strings.TrimSpace(os.Getenv("CHAIN_NETWORK"))
	if network == "" {
		network = "devnet"
	}

	facilitator := strings.TrimSpace(os.Getenv("FACILITATOR_URL"))
	if facilitator == "" {
		facilitator = "https://x402-facilitator.coinbase.com"
	}

	paymentHost := strings.TrimSpace(os.Getenv("PAYMENT_HOST"))
	if paymentHost == "" {
		paymentHost = "https://pay.tokendrop.dev"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		Network:        network,
		FacilitatorURL: facilitator,
		PaymentHost:    paymentHost,

		InvoiceTimeout:   envDuration("INVOICE_TIMEOUT", 300*time.Second),
		RecipientTimeout: envDuration("RECIPIENT_TIMEOUT", 30*time.Second),
		SubmitWorkers:    envInt("SUBMIT_WORKERS", 1),

		EnablePayoutOutboxRelay:  envBool("ENABLE_PAYOUT_OUTBOX_RELAY", true),
		EnableInvoiceOutboxRelay: envBool("ENABLE_INVOICE_OUTBOX_RELAY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
