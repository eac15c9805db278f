package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string   `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL          string   `env:"DATABASE_URL,required,notEmpty"`
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	RedisURL           string        `env:"REDIS_URL"`
	PreferenceCacheTTL time.Duration `env:"PREFERENCE_CACHE_TTL" envDefault:"60s"`

	// Gateway credentials may be empty: sends on that channel then fail
	// instead of the process refusing to start.
	PushGatewayURL  string `env:"PUSH_GATEWAY_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
	PushAccessToken string `env:"PUSH_ACCESS_TOKEN"`

	EmailProvider   string `env:"EMAIL_PROVIDER" envDefault:"resend"`
	EmailGatewayURL string `env:"EMAIL_GATEWAY_URL" envDefault:"https://api.resend.com/"`
	EmailAPIKey     string `env:"EMAIL_API_KEY"`
	EmailFrom       string `env:"EMAIL_FROM" envDefault:"SitePlan <notifications@siteplan.app>"`
	AppURL          string `env:"APP_URL"`

	QueueBatchSize         int           `env:"QUEUE_BATCH_SIZE" envDefault:"10"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"30s"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`

	WorkerEnabled      bool          `env:"WORKER_ENABLED" envDefault:"true"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"1m"`
	GatewayTimeout     time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	Timezone           string        `env:"NOTIFY_TIMEZONE" envDefault:"UTC"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	location *time.Location
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	origins := cfg.CORSAllowedOrigins[:0]
	for _, o := range cfg.CORSAllowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSAllowedOrigins = origins

	cfg.EmailProvider = strings.ToLower(strings.TrimSpace(cfg.EmailProvider))
	switch cfg.EmailProvider {
	case "resend", "ses":
	default:
		return Config{}, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	if cfg.QueueBatchSize <= 0 {
		return Config{}, fmt.Errorf("QUEUE_BATCH_SIZE must be positive, got %d", cfg.QueueBatchSize)
	}
	if cfg.QueueMaxRetries <= 0 {
		return Config{}, fmt.Errorf("QUEUE_MAX_RETRIES must be positive, got %d", cfg.QueueMaxRetries)
	}
	if cfg.GatewayTimeout >= cfg.QueueVisibilityTimeout {
		return Config{}, fmt.Errorf("GATEWAY_TIMEOUT (%s) must be shorter than QUEUE_VISIBILITY_TIMEOUT (%s)",
			cfg.GatewayTimeout, cfg.QueueVisibilityTimeout)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid NOTIFY_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc
	return cfg, nil
}

// Location is the time zone that defines a calendar day for deduplication,
// resolved by Load. A Config not built by Load reports UTC.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
