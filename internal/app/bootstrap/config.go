package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the storefront.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int
	AppURL   string

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	StripeSecretKey     string
	StripeWebhookSecret string

	ResendAPIKey string
	EmailFrom    string
	ContactInbox string

	FilesDir        string
	FilesSigningKey string
	SignedURLTTL    time.Duration

	CookieSecure bool
	CookieDomain string

	TrustProxyHeaders bool

	MaxDownloads  int
	PurchaseTTL   time.Duration
	LoginTokenTTL time.Duration
	SessionTTL    time.Duration

	LoginRateLimit       int
	LoginRateWindow      time.Duration
	ContactRateLimit     int
	ContactRateWindow    time.Duration
	NewsletterRateLimit  int
	NewsletterRateWindow time.Duration
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	OutboxClaimTTL       time.Duration
	OutboxMaxRetries     int
	ExpirySweepInterval  time.Duration
	WorkersInline        bool
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		AppURL   string `yaml:"app_url"`

		TrustProxyHeaders *bool `yaml:"trust_proxy_headers"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Email struct {
		From         string `yaml:"from"`
		ContactInbox string `yaml:"contact_inbox"`
	} `yaml:"email"`
	Files struct {
		Dir string `yaml:"dir"`
	} `yaml:"files"`
	Downloads struct {
		Max          int `yaml:"max"`
		ExpiryDays   int `yaml:"expiry_days"`
		SignedURLTTL int `yaml:"signed_url_ttl_seconds"`
	} `yaml:"downloads"`
	Workers struct {
		Inline *bool `yaml:"inline"`
	} `yaml:"workers"`
}

// LoadConfig resolves configuration in priority order: .env -> defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	// A missing .env is the normal deployed case.
	_ = godotenv.Load()

	cfg := Config{
		ServiceID:            "Storefront-Service",
		HTTPPort:             8080,
		GRPCPort:             9090,
		AppURL:               "http://localhost:8080",
		MaxDBConns:           20,
		EmailFrom:            "Storefront <noreply@localhost>",
		FilesDir:             "./files",
		SignedURLTTL:         time.Hour,
		CookieSecure:         true,
		MaxDownloads:         5,
		PurchaseTTL:          30 * 24 * time.Hour,
		LoginTokenTTL:        30 * time.Minute,
		SessionTTL:           7 * 24 * time.Hour,
		LoginRateLimit:       5,
		LoginRateWindow:      5 * time.Minute,
		ContactRateLimit:     3,
		ContactRateWindow:    5 * time.Minute,
		NewsletterRateLimit:  5,
		NewsletterRateWindow: time.Minute,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
		ExpirySweepInterval:  time.Hour,
		WorkersInline:        true,
	}

	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Service.AppURL != "" {
			cfg.AppURL = f.Service.AppURL
		}
		if f.Service.TrustProxyHeaders != nil {
			cfg.TrustProxyHeaders = *f.Service.TrustProxyHeaders
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Email.From != "" {
			cfg.EmailFrom = f.Email.From
		}
		if f.Email.ContactInbox != "" {
			cfg.ContactInbox = f.Email.ContactInbox
		}
		if f.Files.Dir != "" {
			cfg.FilesDir = f.Files.Dir
		}
		if f.Downloads.Max > 0 {
			cfg.MaxDownloads = f.Downloads.Max
		}
		if f.Downloads.ExpiryDays > 0 {
			cfg.PurchaseTTL = time.Duration(f.Downloads.ExpiryDays) * 24 * time.Hour
		}
		if f.Downloads.SignedURLTTL > 0 {
			cfg.SignedURLTTL = time.Duration(f.Downloads.SignedURLTTL) * time.Second
		}
		if f.Workers.Inline != nil {
			cfg.WorkersInline = *f.Workers.Inline
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AppURL = strings.TrimRight(envOrDefault("APP_URL", cfg.AppURL), "/")
	cfg.StripeSecretKey = envOrDefault("STRIPE_SECRET_KEY", cfg.StripeSecretKey)
	cfg.StripeWebhookSecret = envOrDefault("STRIPE_WEBHOOK_SECRET", cfg.StripeWebhookSecret)
	cfg.ResendAPIKey = envOrDefault("RESEND_API_KEY", cfg.ResendAPIKey)
	cfg.EmailFrom = envOrDefault("EMAIL_FROM", cfg.EmailFrom)
	cfg.ContactInbox = envOrDefault("CONTACT_INBOX", cfg.ContactInbox)
	cfg.FilesDir = envOrDefault("FILES_DIR", cfg.FilesDir)
	cfg.FilesSigningKey = envOrDefault("FILES_SIGNING_KEY", cfg.FilesSigningKey)
	cfg.CookieSecure = envBool("COOKIE_SECURE", cfg.CookieSecure)
	cfg.CookieDomain = envOrDefault("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.WorkersInline = envBool("WORKERS_INLINE", cfg.WorkersInline)
	cfg.TrustProxyHeaders = envBool("TRUSTED_PROXY_HEADERS", cfg.TrustProxyHeaders)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.MaxDownloads = envInt("DOWNLOAD_MAX", cfg.MaxDownloads)

	cfg.PurchaseTTL = time.Duration(envInt("PURCHASE_EXPIRY_DAYS", int(cfg.PurchaseTTL.Hours()/24))) * 24 * time.Hour
	cfg.LoginTokenTTL = time.Duration(envInt("LOGIN_TOKEN_TTL_MINUTES", int(cfg.LoginTokenTTL.Minutes()))) * time.Minute
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_DAYS", int(cfg.SessionTTL.Hours()/24))) * 24 * time.Hour
	cfg.SignedURLTTL = time.Duration(envInt("SIGNED_URL_TTL_SECONDS", int(cfg.SignedURLTTL.Seconds()))) * time.Second

	cfg.LoginRateLimit = envInt("RATE_LIMIT_LOGIN_MAX", cfg.LoginRateLimit)
	cfg.LoginRateWindow = time.Duration(envInt("RATE_LIMIT_LOGIN_WINDOW_SECONDS", int(cfg.LoginRateWindow.Seconds()))) * time.Second
	cfg.ContactRateLimit = envInt("RATE_LIMIT_CONTACT_MAX", cfg.ContactRateLimit)
	cfg.ContactRateWindow = time.Duration(envInt("RATE_LIMIT_CONTACT_WINDOW_SECONDS", int(cfg.ContactRateWindow.Seconds()))) * time.Second
	cfg.NewsletterRateLimit = envInt("RATE_LIMIT_NEWSLETTER_MAX", cfg.NewsletterRateLimit)
	cfg.NewsletterRateWindow = time.Duration(envInt("RATE_LIMIT_NEWSLETTER_WINDOW_SECONDS", int(cfg.NewsletterRateWindow.Seconds()))) * time.Second

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.ExpirySweepInterval = time.Duration(envInt("EXPIRY_SWEEP_INTERVAL_SECONDS", int(cfg.ExpirySweepInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	return cfg, nil
}

// validateServing checks the settings only the serving commands need.
func (c Config) validateServing() error {
	if strings.TrimSpace(c.FilesSigningKey) == "" {
		return fmt.Errorf("missing FILES_SIGNING_KEY")
	}
	if strings.TrimSpace(c.StripeWebhookSecret) == "" {
		return fmt.Errorf("missing STRIPE_WEBHOOK_SECRET")
	}
	return nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
