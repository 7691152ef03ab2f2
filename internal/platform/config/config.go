package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultOrderEventsTopic = "order-events"
	defaultInvoicesBucket   = "lumenmart-invoices"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	PubSub    PubSubConfig
	Invoices  InvoiceConfig
	Checkout  CheckoutConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FirebaseConfig stores Firebase project settings for the admin auth guard.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// PubSubConfig lists topics used for outbound notifications.
type PubSubConfig struct {
	ProjectID        string
	OrderEventsTopic string
}

// InvoiceConfig points at the bucket where the invoice collaborator drops
// rendered PDFs.
type InvoiceConfig struct {
	Bucket string
}

// PolicyConfig carries the monetary constants of one checkout entry point.
type PolicyConfig struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// CheckoutConfig holds the per-flow totals policies. The cart and guest flows
// ship with different constants; both are overridable via environment.
type CheckoutConfig struct {
	Cart  PolicyConfig
	Guest PolicyConfig
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:         envOrDefault("API_PORT", defaultPort),
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		Firestore: FirestoreConfig{
			ProjectID:    strings.TrimSpace(os.Getenv("API_FIRESTORE_PROJECT_ID")),
			EmulatorHost: strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST")),
		},
		Firebase: FirebaseConfig{
			ProjectID:       strings.TrimSpace(os.Getenv("API_FIREBASE_PROJECT_ID")),
			CredentialsFile: strings.TrimSpace(os.Getenv("API_FIREBASE_CREDENTIALS_FILE")),
		},
		PubSub: PubSubConfig{
			ProjectID:        strings.TrimSpace(os.Getenv("API_PUBSUB_PROJECT_ID")),
			OrderEventsTopic: envOrDefault("API_PUBSUB_ORDER_EVENTS_TOPIC", defaultOrderEventsTopic),
		},
		Invoices: InvoiceConfig{
			Bucket: envOrDefault("API_INVOICES_BUCKET", defaultInvoicesBucket),
		},
		Checkout: CheckoutConfig{
			Cart: PolicyConfig{
				FreeShippingThreshold: decimal.NewFromInt(100),
				FlatShippingFee:       decimal.NewFromInt(10),
				TaxRate:               decimal.NewFromFloat(0.05),
			},
			Guest: PolicyConfig{
				FreeShippingThreshold: decimal.NewFromInt(1000),
				FlatShippingFee:       decimal.NewFromInt(100),
				TaxRate:               decimal.NewFromFloat(0.18),
			},
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = durationFromEnv("API_READ_TIMEOUT", cfg.Server.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.WriteTimeout, err = durationFromEnv("API_WRITE_TIMEOUT", cfg.Server.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.IdleTimeout, err = durationFromEnv("API_IDLE_TIMEOUT", cfg.Server.IdleTimeout); err != nil {
		return Config{}, err
	}

	if err := applyPolicyEnv(&cfg.Checkout.Cart, "API_CHECKOUT_CART"); err != nil {
		return Config{}, err
	}
	if err := applyPolicyEnv(&cfg.Checkout.Guest, "API_CHECKOUT_GUEST"); err != nil {
		return Config{}, err
	}

	if port := strings.TrimSpace(cfg.Server.Port); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return Config{}, fmt.Errorf("config: API_PORT must be numeric, got %q", port)
		}
	}

	return cfg, nil
}

func applyPolicyEnv(policy *PolicyConfig, prefix string) error {
	var err error
	if policy.FreeShippingThreshold, err = decimalFromEnv(prefix+"_FREE_SHIPPING_THRESHOLD", policy.FreeShippingThreshold); err != nil {
		return err
	}
	if policy.FlatShippingFee, err = decimalFromEnv(prefix+"_FLAT_SHIPPING_FEE", policy.FlatShippingFee); err != nil {
		return err
	}
	if policy.TaxRate, err = decimalFromEnv(prefix+"_TAX_RATE", policy.TaxRate); err != nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, parsed)
	}
	return parsed, nil
}

func decimalFromEnv(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("config: %s must be a decimal: %w", key, err)
	}
	if parsed.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("config: %s must not be negative, got %s", key, parsed)
	}
	return parsed, nil
}
