package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (BUSY_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (BUSY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr    string `default:"" usage:"Redis address; empty disables caching" flag:"redis-addr"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (BUSY_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Kafka        KafkaConfig
	Storage      StorageConfig
	Shipping     ShippingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// KafkaConfig controls event publishing. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses; empty disables events"`
	Topic   string   `default:"busy.storefront" usage:"Topic for storefront events"`
}

// StorageConfig points at the S3-compatible bucket holding archive photos.
// An empty bucket disables the archive endpoints' storage operations.
type StorageConfig struct {
	Endpoint  string `usage:"S3 endpoint URL (R2 account endpoint)"`
	Region    string `default:"auto" usage:"S3 region"`
	Bucket    string `usage:"Bucket for archive photos"`
	AccessKey string `usage:"S3 access key id" flag:"s3-access-key"`
	SecretKey string `usage:"S3 secret access key" flag:"s3-secret-key"`
}

// ShippingConfig holds the flat-rate shipping rule in ARS.
type ShippingConfig struct {
	FlatRate      float64 `default:"8000" usage:"Flat shipping fee" flag:"shipping-flat-rate"`
	FreeThreshold float64 `default:"100000" usage:"Items total at which shipping is free" flag:"shipping-free-threshold"`
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BUSY",
		Files:     []string{"config.yaml", "/etc/busy/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set BUSY_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BUSY_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisAddr == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisAddr = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
