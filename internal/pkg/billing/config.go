package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/StreamFox/internal/pkg/env"
)

// Config holds Stripe and checkout settings.
type Config struct {
	SecretKey       string
	WebhookSecret   string
	PriceID         string
	PublicDomain    string
	ProviderTimeout time.Duration
	// consecutive provider failures before the breaker opens
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// LoadConfig loads billing configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		SecretKey:       env.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret:   env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		PriceID:         env.GetEnv("STRIPE_PRICE_ID", ""),
		PublicDomain:    strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
		ProviderTimeout: env.GetDuration("BILLING_PROVIDER_TIMEOUT", 8*time.Second),
		BreakerFailures: 5,
		BreakerCooldown: env.GetDuration("BILLING_BREAKER_COOLDOWN", 30*time.Second),
	}
	if config.PublicDomain == "" {
		config.PublicDomain = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	if config.SecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if config.PriceID == "" {
		return nil, errors.New("STRIPE_PRICE_ID is required")
	}

	return config, nil
}

// SuccessURL is where the provider sends the user after a paid checkout.
func (c *Config) SuccessURL() string {
	return c.PublicDomain + "/home?success=true"
}

func (c *Config) CancelURL() string {
	return c.PublicDomain + "/pricing?canceled=true"
}
