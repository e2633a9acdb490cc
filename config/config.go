package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Tenants    TenantsConfig
	Giveaways  GiveawaysConfig
	Auth       AuthConfig
	Email      EmailConfig
	AWS        AWSConfig
	Cloudflare CloudflareConfig
	Branding   BrandingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated; entries may use a leading wildcard label, e.g. https://*.sweepgoat.com
	BaseDomain         string // apex domain tenants live under, e.g. sweepgoat.com
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// TenantsConfig sizes the subdomain validation cache.
type TenantsConfig struct {
	CacheSize       int
	CacheTTLMinutes int
}

// GiveawaysConfig controls the status sweep.
type GiveawaysConfig struct {
	SweepIntervalSeconds int
}

// AuthConfig holds account verification settings.
type AuthConfig struct {
	AutoVerifyEmails         bool // users only; hosts always verify
	VerificationCodeTTLHours int
}

// EmailConfig selects the delivery path for outbound mail.
type EmailConfig struct {
	Delivery     string // log, resend or queue
	FromAddress  string
	FromName     string
	ResendAPIKey string
}

// AWSConfig holds AWS credentials and the S3 bucket used for images.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
	UploadTimeout   int
}

// CloudflareConfig holds Cloudflare Images credentials.
type CloudflareConfig struct {
	AccountID      string
	APIToken       string
	TimeoutSeconds int
}

// BrandingConfig holds settings for logo URL checks.
type BrandingConfig struct {
	ProbeTimeoutSeconds int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (DATABASE_URL) it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://*.localhost:3000,https://*.sweepgoat.com"),
			BaseDomain:         getEnv("BASE_DOMAIN", "sweepgoat.com"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "sweepgoat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Tenants: TenantsConfig{
			CacheSize:       getEnvInt("TENANT_CACHE_SIZE", 1000),
			CacheTTLMinutes: getEnvInt("TENANT_CACHE_TTL_MINUTES", 10),
		},
		Giveaways: GiveawaysConfig{
			SweepIntervalSeconds: getEnvInt("GIVEAWAY_SWEEP_INTERVAL_SECONDS", 300),
		},
		Auth: AuthConfig{
			AutoVerifyEmails:         getEnvBool("AUTO_VERIFY_EMAILS", false),
			VerificationCodeTTLHours: getEnvInt("VERIFICATION_CODE_TTL_HOURS", 24),
		},
		Email: EmailConfig{
			Delivery:     strings.ToLower(getEnv("EMAIL_DELIVERY", "log")),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@sweepgoat.com"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Sweepgoat"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", ""),
			UploadTimeout:   getEnvInt("AWS_UPLOAD_TIMEOUT_SEC", 15),
		},
		Cloudflare: CloudflareConfig{
			AccountID:      getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			APIToken:       getEnv("CLOUDFLARE_API_TOKEN", ""),
			TimeoutSeconds: getEnvInt("CLOUDFLARE_TIMEOUT_SEC", 10),
		},
		Branding: BrandingConfig{
			ProbeTimeoutSeconds: getEnvInt("BRANDING_PROBE_TIMEOUT_SEC", 5),
		},
	}

	switch cfg.Email.Delivery {
	case "log", "resend", "queue":
	default:
		return nil, fmt.Errorf("EMAIL_DELIVERY must be log, resend or queue, got %q", cfg.Email.Delivery)
	}
	if cfg.Email.Delivery == "queue" && !cfg.Redis.Enabled {
		return nil, fmt.Errorf("EMAIL_DELIVERY=queue requires Redis")
	}
	if cfg.Tenants.CacheSize <= 0 {
		return nil, fmt.Errorf("TENANT_CACHE_SIZE must be positive")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// SplitTrim splits a comma-separated value and drops empty items.
func SplitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
