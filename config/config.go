package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"luvlang_server/models"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	AWS      AWSConfig
	Storage  StorageConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Payment  PaymentConfig
	Auth     AuthConfig
	Webhook  WebhookConfig
	OTel     OTelConfig
	Schedule ScheduleConfig
	Policy   models.Policy
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	AppURL         string // used in email links
}

type AWSConfig struct {
	Region   string
	Endpoint string // optional override, e.g. a local DynamoDB/S3 emulator
}

type StorageConfig struct {
	Driver        string // "s3" or "minio"
	PublicBaseURL string // prefix for public object URLs; derived from the driver when empty
	MinioEndpoint string
	MinioAccess   string
	MinioSecret   string
	MinioUseSSL   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type PaymentConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
}

type AuthConfig struct {
	JWTSecret string
}

type WebhookConfig struct {
	ForwardURL  string
	RatePerSec  float64
	Burst       int
	HTTPTimeout time.Duration
	// TrustedProxies are the load balancers allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type OTelConfig struct {
	Endpoint    string
	ServiceName string
}

type ScheduleConfig struct {
	NightlySpec         string
	DeleteOrphans       bool
	OrphanGracePeriod   time.Duration
	MaxPendingAttempts  int
	DailyMatchCount     int
	ExecutiveMatchCount int
	CandidatePoolSize   int
}

// Load reads configuration from the environment, loading a .env file first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	policy := models.DefaultPolicy()
	policy.Photo.Bucket = getEnv("PHOTO_BUCKET", policy.Photo.Bucket)
	policy.Photo.MaxBytes = getEnvAsInt64("PHOTO_MAX_BYTES", policy.Photo.MaxBytes)
	policy.Voice.Bucket = getEnv("VOICE_BUCKET", policy.Voice.Bucket)
	policy.Voice.MaxBytes = getEnvAsInt64("VOICE_MAX_BYTES", policy.Voice.MaxBytes)
	policy.MaxPhotos = getEnvAsInt("MAX_PHOTOS", policy.MaxPhotos)
	policy.MinBioLength = getEnvAsInt("MIN_BIO_LENGTH", policy.MinBioLength)
	policy.MaxBioLength = getEnvAsInt("MAX_BIO_LENGTH", policy.MaxBioLength)

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AppURL:         getEnv("APP_URL", "https://luvlang.org"),
		},
		AWS: AWSConfig{
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Endpoint: getEnv("AWS_ENDPOINT_URL", ""),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "s3"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			MinioEndpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccess:   getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecret:   getEnv("MINIO_SECRET_KEY", ""),
			MinioUseSSL:   getEnvAsBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "LuvLang <hello@luvlang.org>"),
		},
		Payment: PaymentConfig{
			BaseURL:      getEnv("PAYMENT_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:     getEnv("PAYMENT_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYMENT_CLIENT_SECRET", ""),
			ReturnURL:    getEnv("PAYMENT_RETURN_URL", "https://luvlang.org/payment/success"),
			CancelURL:    getEnv("PAYMENT_CANCEL_URL", "https://luvlang.org/payment/cancel"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Webhook: WebhookConfig{
			ForwardURL:     getEnv("WEBHOOK_FORWARD_URL", ""),
			RatePerSec:     getEnvAsFloat("WEBHOOK_RATE_PER_SEC", 10),
			Burst:          getEnvAsInt("WEBHOOK_BURST", 20),
			HTTPTimeout:    getEnvAsDuration("WEBHOOK_HTTP_TIMEOUT", 10*time.Second),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		OTel: OTelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "luvlang-server"),
		},
		Schedule: ScheduleConfig{
			NightlySpec:         getEnv("NIGHTLY_CRON", "0 0 0 * * *"),
			DeleteOrphans:       getEnvAsBool("RECONCILE_DELETE_ORPHANS", false),
			OrphanGracePeriod:   getEnvAsDuration("RECONCILE_GRACE_PERIOD", 24*time.Hour),
			MaxPendingAttempts:  getEnvAsInt("PENDING_MAX_ATTEMPTS", 5),
			DailyMatchCount:     getEnvAsInt("DAILY_MATCH_COUNT", 5),
			ExecutiveMatchCount: getEnvAsInt("EXECUTIVE_MATCH_COUNT", 3),
			CandidatePoolSize:   getEnvAsInt("CANDIDATE_POOL_SIZE", 50),
		},
		Policy: policy,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Storage.Driver != "s3" && c.Storage.Driver != "minio" {
		return fmt.Errorf("STORAGE_DRIVER must be s3 or minio, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "minio" && (c.Storage.MinioAccess == "" || c.Storage.MinioSecret == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio driver")
	}
	if c.Policy.MaxPhotos <= 0 {
		return fmt.Errorf("MAX_PHOTOS must be positive")
	}
	if c.Policy.Photo.MaxBytes <= 0 || c.Policy.Voice.MaxBytes <= 0 {
		return fmt.Errorf("media size limits must be positive")
	}
	if c.Policy.MinBioLength > c.Policy.MaxBioLength {
		return fmt.Errorf("MIN_BIO_LENGTH (%d) exceeds MAX_BIO_LENGTH (%d)", c.Policy.MinBioLength, c.Policy.MaxBioLength)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
