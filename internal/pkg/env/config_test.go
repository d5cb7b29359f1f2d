package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := Env
	Env = values
	t.Cleanup(func() { Env = prev })
}

func TestParseFrontendType(t *testing.T) {
	assert.Equal(t, FrontendSPA, ParseFrontendType("SPA"))
	assert.Equal(t, FrontendSPA, ParseFrontendType(" spa "))
	assert.Equal(t, FrontendMPA, ParseFrontendType("MPA"))
	assert.Equal(t, FrontendMPA, ParseFrontendType("blade"))
	assert.Equal(t, FrontendMPA, ParseFrontendType(""))
}

func TestLoadConfig(t *testing.T) {
	withEnv(t, map[string]string{
		"APP_URL":               "https://example-app.com/",
		"SHOPIFY_API_SECRET":    "secret",
		"SHOPIFY_FRONTEND_TYPE": "SPA",
		"SHOPIFY_BILLING_TEST":  "true",
		"SHOPIFY_API_TIMEOUT":   "5s",
	})

	cfg := LoadConfig()
	assert.Equal(t, "https://example-app.com", cfg.AppURL)
	assert.Equal(t, "secret", cfg.APISecret)
	assert.Equal(t, FrontendSPA, cfg.FrontendType)
	assert.True(t, cfg.TestCharges)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 30*time.Second, cfg.ActivationTTL)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	withEnv(t, map[string]string{"SHOPIFY_API_TIMEOUT": "nonsense"})

	cfg := LoadConfig()
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Error(t, cfg.Validate())
}
