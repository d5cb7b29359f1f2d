package env

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/constants"
)

// FrontendType is how the embedding app renders its UI. It decides how the
// billing flow hands control back after a charge is activated.
type FrontendType string

const (
	// FrontendSPA is a single-page app that reads billing=success from the URL.
	FrontendSPA FrontendType = "SPA"
	// FrontendMPA is a server-rendered app that reloads state on the next page load.
	FrontendMPA FrontendType = "MPA"
)

// ParseFrontendType maps a config value onto a FrontendType. Unknown values
// fall back to MPA.
func ParseFrontendType(v string) FrontendType {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case string(FrontendSPA):
		return FrontendSPA
	default:
		return FrontendMPA
	}
}

// Config is the typed view of the environment used by the billing service.
type Config struct {
	AppURL          string
	APIKey          string
	APISecret       string
	APIVersion      string
	APIEndpoint     string
	APITimeout      time.Duration
	FrontendType    FrontendType
	BillingRedirect string
	TestCharges     bool
	ActivationTTL   time.Duration
}

// LoadConfig reads the billing configuration from the environment.
func LoadConfig() Config {
	return Config{
		AppURL:          strings.TrimRight(GetEnv("APP_URL", "http://localhost:4000"), "/"),
		APIKey:          strings.TrimSpace(GetEnv("SHOPIFY_API_KEY", "")),
		APISecret:       strings.TrimSpace(GetEnv("SHOPIFY_API_SECRET", "")),
		APIVersion:      strings.TrimSpace(GetEnv("SHOPIFY_API_VERSION", "2024-01")),
		APIEndpoint:     strings.TrimRight(strings.TrimSpace(GetEnv("SHOPIFY_API_ENDPOINT", "")), "/"),
		APITimeout:      getDuration("SHOPIFY_API_TIMEOUT", 15*time.Second),
		FrontendType:    ParseFrontendType(GetEnv("SHOPIFY_FRONTEND_TYPE", string(FrontendMPA))),
		BillingRedirect: strings.TrimSpace(GetEnv("SHOPIFY_BILLING_REDIRECT", constants.BillingProcessRoute)),
		TestCharges:     getBool("SHOPIFY_BILLING_TEST", false),
		ActivationTTL:   getDuration("SHOPIFY_ACTIVATION_LOCK_TTL", 30*time.Second),
	}
}

// Validate reports missing settings that make billing impossible.
func (c Config) Validate() error {
	if c.APISecret == "" {
		return fmt.Errorf("SHOPIFY_API_SECRET is not configured")
	}
	if c.AppURL == "" {
		return fmt.Errorf("APP_URL is not configured")
	}
	return nil
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(GetEnv(key, "")))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(GetEnv(key, "")))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
