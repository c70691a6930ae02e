package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/SashaVektor/apple-store-clone/pkg/config"
	"github.com/SashaVektor/apple-store-clone/pkg/database"
	"github.com/SashaVektor/apple-store-clone/pkg/middleware"
	"github.com/SashaVektor/apple-store-clone/pkg/tracing"
)

const ServiceName = "storefront"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	PprofCIDRs     []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
	// PublicURL is where the storefront pages live; payment redirects go there.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string        `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	SlowQuery        time.Duration `env:"POSTGRES_SLOW_QUERY" envDefault:"200ms"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Sanity CMS
	SanityProjectID  string `env:"SANITY_PROJECT_ID" envDefault:"h35sm18t"`
	SanityDataset    string `env:"SANITY_DATASET" envDefault:"production"`
	SanityAPIVersion string `env:"SANITY_API_VERSION" envDefault:"2021-10-21"`
	SanityToken      string `env:"SANITY_TOKEN"`
	SanityUseCDN     bool   `env:"SANITY_USE_CDN" envDefault:"true"`
	// SanityBaseURL overrides the derived API host; used against local fakes.
	SanityBaseURL   string        `env:"SANITY_BASE_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Basket TTL in hours (default: 7 days)
	BasketTTLHours int `env:"BASKET_TTL_HOURS" envDefault:"168"`

	// Payments
	PaymentProvider     string   `env:"PAYMENT_PROVIDER" envDefault:"stripe"`
	StripeSecretKey     string   `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string   `env:"STRIPE_WEBHOOK_SECRET"`
	StripeShippingRate  string   `env:"STRIPE_SHIPPING_RATE"`
	AllowedCountries    []string `env:"ALLOWED_COUNTRIES" envDefault:"US,CA,GB" envSeparator:","`
	FlatShippingCents   int64    `env:"FLAT_SHIPPING_CENTS" envDefault:"2000"`

	// Each checkout session is a provider API call, so baskets and remote
	// addresses are throttled.
	CheckoutRatePerMinute   int `env:"CHECKOUT_RATE_PER_MINUTE" envDefault:"10"`
	CheckoutRateBurst       int `env:"CHECKOUT_RATE_BURST" envDefault:"3"`
	CheckoutIPRatePerMinute int `env:"CHECKOUT_IP_RATE_PER_MINUTE" envDefault:"30"`
	CheckoutIPRateBurst     int `env:"CHECKOUT_IP_RATE_BURST" envDefault:"9"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BasketTTLHours < 1 {
		return fmt.Errorf("invalid BASKET_TTL_HOURS: %d", c.BasketTTLHours)
	}
	if c.FlatShippingCents < 0 {
		return fmt.Errorf("invalid FLAT_SHIPPING_CENTS: %d", c.FlatShippingCents)
	}
	if c.CheckoutRatePerMinute < 0 || c.CheckoutRateBurst < 0 {
		return fmt.Errorf("invalid checkout rate limit: %d/min burst %d", c.CheckoutRatePerMinute, c.CheckoutRateBurst)
	}
	if c.CheckoutIPRatePerMinute < 0 || c.CheckoutIPRateBurst < 0 {
		return fmt.Errorf("invalid checkout IP rate limit: %d/min burst %d", c.CheckoutIPRatePerMinute, c.CheckoutIPRateBurst)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %v (must be between 0 and 1)", c.OTelSampleRate)
	}
	if c.SanityProjectID == "" || c.SanityDataset == "" {
		return fmt.Errorf("SANITY_PROJECT_ID and SANITY_DATASET are required")
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PUBLIC_URL: %q", c.PublicURL)
	}

	switch c.PaymentProvider {
	case "stripe":
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	case "mock":
		if c.Environment == "production" {
			return fmt.Errorf("PAYMENT_PROVIDER=mock is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q (want stripe or mock)", c.PaymentProvider)
	}
	return nil
}

// BasketTTL is the sliding expiry applied on every basket write.
func (c *Config) BasketTTL() time.Duration {
	return time.Duration(c.BasketTTLHours) * time.Hour
}

// CheckoutRateLimit sizes the per-basket and per-IP limiters on checkout
// session creation.
func (c *Config) CheckoutRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		PerMinute:   c.CheckoutRatePerMinute,
		Burst:       c.CheckoutRateBurst,
		IPPerMinute: c.CheckoutIPRatePerMinute,
		IPBurst:     c.CheckoutIPRateBurst,
		IdleTTL:     30 * time.Minute,
	}
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTelEndpoint,
		Insecure:       c.OTelInsecure,
		SampleRate:     c.OTelSampleRate,
		Enabled:        c.OTelEnabled,
	}
}
