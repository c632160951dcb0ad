package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/schedule"
)

// Config holds the complete application configuration, loadable from
// environment variables (MENUSUMMO_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MENUSUMMO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Store       StoreConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// StoreConfig carries the store-level checkout settings.
type StoreConfig struct {
	Address               string  `default:"" usage:"Store address, used as the origin for delivery quotes"`
	DeliveryFee           float64 `default:"8" usage:"Flat delivery fee" flag:"delivery-fee"`
	FreeShippingThreshold float64 `default:"0" usage:"Subtotal at which delivery becomes free (0 disables)" flag:"free-shipping-threshold"`
	LeadMinutes           int     `default:"30" usage:"Minimum minutes between now and the earliest scheduled slot"`
	IntervalMinutes       int     `default:"30" usage:"Minutes between scheduled slots"`
	CloseTime             string  `default:"23:00" usage:"Daily closing time (HH:MM)"`
	ClosedDays            []string `usage:"Weekday names with no service (e.g. monday)" flag:"closed-days"`
	Loyalty               LoyaltyConfig
}

// LoyaltyConfig controls loyalty point redemption.
type LoyaltyConfig struct {
	Enabled             bool    `default:"false" usage:"Enable loyalty point redemption"`
	MinRedemptionPoints int     `default:"100" usage:"Minimum points before redemption is allowed" flag:"loyalty-min-points"`
	CashbackPer100      float64 `default:"5" usage:"Monetary value of every 100 points" flag:"loyalty-cashback-per-100"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MENUSUMMO",
		Files:     []string{"config.yaml", "/etc/menusummo/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MENUSUMMO_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's MENUSUMMO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// PricingSettings converts the store config into domain pricing settings.
func (c *StoreConfig) PricingSettings() pricing.Settings {
	return pricing.Settings{
		DeliveryFee:           decimal.NewFromFloat(c.DeliveryFee),
		FreeShippingThreshold: decimal.NewFromFloat(c.FreeShippingThreshold),
		Loyalty: pricing.LoyaltyConfig{
			Enabled:              c.Loyalty.Enabled,
			MinRedemptionPoints:  c.Loyalty.MinRedemptionPoints,
			CashbackPer100Points: decimal.NewFromFloat(c.Loyalty.CashbackPer100),
		},
	}
}

// Week converts the store config into the weekly schedule.
func (c *StoreConfig) Week() schedule.Week {
	closed := make(map[string]bool, len(c.ClosedDays))
	for _, day := range c.ClosedDays {
		closed[strings.ToLower(strings.TrimSpace(day))] = true
	}

	var week schedule.Week
	for i := range week {
		name := strings.ToLower(time.Weekday(i).String())
		week[i] = schedule.DayHours{
			Open:  !closed[name],
			Close: c.CloseTime,
		}
	}
	return week
}
