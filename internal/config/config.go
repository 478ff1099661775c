// Package config loads typed application configuration from the
// environment, per spec.md §6's environment-variable contract.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every ambient and domain-stack setting the commerce
// spine needs to boot.
type Config struct {
	App         AppConfig
	DB          DBConfig
	Stripe      StripeConfig
	SMTP        SMTPConfig
	Storage     StorageConfig
	Rater       RaterConfig
	NATS        NATSConfig
	Scraper     ScraperConfig
	EDI         EDIConfig
	Auth        AuthConfig
	FrontendURL string
}

// AuthConfig holds the session/2FA/rate-limit timing knobs spec.md
// §4.2 specifies as fixed values; exposed as config so tests can shrink
// them rather than hard-coding magic durations in the auth package.
type AuthConfig struct {
	SessionTTL         time.Duration // 24h default
	RememberMeTTL       time.Duration // 7d with "remember me"
	DeviceTrustTTL      time.Duration // 30d trust grant
	TwoFactorCodeTTL    time.Duration // 10m, single-use
	LoginAttemptWindow  time.Duration // 15m sliding window
	MaxLoginAttempts    int           // 5 per window
}

// AppConfig is the HTTP server's own knobs.
type AppConfig struct {
	Name  string
	Env   string
	Port  int
	Debug bool
}

// DBConfig holds Postgres connection settings. DSN is built from the
// discrete fields so callers never hand-format a connection string.
type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// StripeConfig names the payment-gateway secrets, treated as an opaque
// collaborator per spec.md §1.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// SMTPConfig is the email collaborator's transport credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig is the S3-compatible object store collaborator.
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// RaterConfig holds the parcel and LTL rater credentials, per spec.md §6.
type RaterConfig struct {
	ParcelAPIKey    string
	LTLClientID     string
	LTLClientSecret string
	OriginZIP       string
}

// NATSConfig is the domain-event bus connection.
type NATSConfig struct {
	URL       string
	Namespace string
}

// ScraperConfig holds the two named concurrency-pool sizes and the
// stale-job thresholds spec.md §4.9/§6 name explicitly.
type ScraperConfig struct {
	CatalogPoolSize    int
	EnrichmentPoolSize int
	TimeoutMS          int
	StaleJobHours      int
}

// EDIConfig names the SFTP credentials used for 850 dispatch.
type EDIConfig struct {
	SFTPKeyPath  string
	ISAQualifier string
	ISAID        string
}

// Load reads a .env file (if present) then the process environment,
// applying the same defaulting/validation shape as the teacher's
// config.Load.
func Load(path string) (*Config, error) {
	godotenv.Load(path)

	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "floorworks-commerce"),
			Env:   getEnv("APP_ENV", "development"),
			Port:  getEnvAsInt("APP_PORT", 8080),
			Debug: getEnvAsBool("APP_DEBUG", true),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "floorworks"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "orders@floorworks.example"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-west-1"),
			Bucket:          getEnv("S3_BUCKET", "trade-documents"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
		Rater: RaterConfig{
			ParcelAPIKey:    getEnv("PARCEL_RATER_API_KEY", ""),
			LTLClientID:     getEnv("LTL_RATER_CLIENT_ID", ""),
			LTLClientSecret: getEnv("LTL_RATER_CLIENT_SECRET", ""),
			OriginZIP:       getEnv("SHIP_ORIGIN_ZIP", "92806"),
		},
		NATS: NATSConfig{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			Namespace: getEnv("NATS_NAMESPACE", "floorworks"),
		},
		Scraper: ScraperConfig{
			CatalogPoolSize:    getEnvAsInt("SCRAPER_CATALOG_POOL", 2),
			EnrichmentPoolSize: getEnvAsInt("SCRAPER_ENRICHMENT_POOL", 3),
			TimeoutMS:          getEnvAsInt("SCRAPER_TIMEOUT_MS", 4*60*60*1000),
			StaleJobHours:      getEnvAsInt("STALE_JOB_HOURS", 4),
		},
		EDI: EDIConfig{
			SFTPKeyPath:  getEnv("EDI_SFTP_KEY_PATH", ""),
			ISAQualifier: getEnv("EDI_ISA_QUALIFIER", "ZZ"),
			ISAID:        getEnv("EDI_ISA_ID", "FLOORWORKS"),
		},
		Auth: AuthConfig{
			SessionTTL:         time.Duration(getEnvAsInt("AUTH_SESSION_TTL_HOURS", 24)) * time.Hour,
			RememberMeTTL:      time.Duration(getEnvAsInt("AUTH_REMEMBER_ME_TTL_HOURS", 24*7)) * time.Hour,
			DeviceTrustTTL:     time.Duration(getEnvAsInt("AUTH_DEVICE_TRUST_TTL_HOURS", 24*30)) * time.Hour,
			TwoFactorCodeTTL:   time.Duration(getEnvAsInt("AUTH_2FA_TTL_MINUTES", 10)) * time.Minute,
			LoginAttemptWindow: time.Duration(getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15)) * time.Minute,
			MaxLoginAttempts:   getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	cfg.DB.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Sprintf("APP_PORT must be between 1 and 65535, got %d", c.App.Port))
	}
	if c.DB.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if c.DB.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}

	switch c.App.Env {
	case "production":
		if c.Stripe.SecretKey == "" {
			errs = append(errs, "STRIPE_SECRET_KEY is required in production")
		}
		if c.Stripe.WebhookSecret == "" {
			errs = append(errs, "STRIPE_WEBHOOK_SECRET is required in production")
		}
	case "development", "dev", "test", "testing":
		// lenient
	default:
		errs = append(errs, fmt.Sprintf("unknown APP_ENV %q, expected production, development, or test", c.App.Env))
	}

	if !strings.HasPrefix(c.NATS.URL, "nats://") {
		errs = append(errs, "NATS_URL must start with nats://")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ScraperTimeout exposes the configured scraper wall-clock deadline as a
// time.Duration.
func (c ScraperConfig) ScraperTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StaleThreshold exposes the stale-reaper age threshold as a duration.
func (c ScraperConfig) StaleThreshold() time.Duration {
	return time.Duration(c.StaleJobHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
