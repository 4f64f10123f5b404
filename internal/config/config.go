package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ApplicationName is reported in pg_stat_activity.
	ApplicationName  string
	StatementTimeout time.Duration
	ConnectAttempts  int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds the connection settings for the shared Redis instance.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig configures access token signing.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// StripeConfig holds payment processor credentials and Connect redirect URLs.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	ReturnURL     string
	RefreshURL    string
}

// SMTPConfig configures outbound email.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

// PricingConfig holds the platform fee percentages applied to each lesson.
type PricingConfig struct {
	StudentFeePercent           int
	InstructorCommissionPercent int
}

// ReferralConfig holds the referral program parameters.
type ReferralConfig struct {
	RewardCents    int64
	MinBasketCents int64
	HoldDays       int
	VelocityLimit  int
	CreditTTLDays  int
	ShareBaseURL   string
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// JobsConfig holds cron expressions for the background worker.
type JobsConfig struct {
	AuthorizeScheduled string
	RetryFailed        string
	CaptureCompleted   string
	ReferralUnlock     string
	ReferralExpiry     string
	AnalyticsRecalc    string
	LockTTL            time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	WorkerPort string
	Timezone   string
	LogLevel   string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Stripe     StripeConfig
	SMTP       SMTPConfig
	Pricing    PricingConfig
	Referral   ReferralConfig
	RateLimit  RateLimitConfig
	Jobs       JobsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:    getEnv("APP_HOST", "localhost:8080"),
		Port:       getEnv("PORT", "8080"),
		WorkerPort: getEnv("WORKER_PORT", "9090"),
		Timezone:   getEnv("APP_TIMEZONE", "America/New_York"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "instainstru"),
			StatementTimeout:   getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "instructor-photos"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TTL", 72*time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
			ReturnURL:     getEnv("STRIPE_CONNECT_RETURN_URL", ""),
			RefreshURL:    getEnv("STRIPE_CONNECT_REFRESH_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 465),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			Sender:   getEnv("SMTP_SENDER", "hello@instainstru.com"),
		},
		Pricing: PricingConfig{
			StudentFeePercent:           getEnvInt("STUDENT_FEE_PERCENT", 12),
			InstructorCommissionPercent: getEnvInt("INSTRUCTOR_COMMISSION_PERCENT", 15),
		},
		Referral: ReferralConfig{
			RewardCents:    int64(getEnvInt("REFERRAL_REWARD_CENTS", 2000)),
			MinBasketCents: int64(getEnvInt("REFERRAL_MIN_BASKET_CENTS", 7500)),
			HoldDays:       getEnvInt("REFERRAL_HOLD_DAYS", 7),
			VelocityLimit:  getEnvInt("REFERRAL_VELOCITY_LIMIT", 10),
			CreditTTLDays:  getEnvInt("REFERRAL_CREDIT_TTL_DAYS", 180),
			ShareBaseURL:   getEnv("REFERRAL_SHARE_BASE_URL", "https://instainstru.com/r/"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 20),
			Burst: getEnvInt("RATE_LIMIT_BURST", 40),
		},
		Jobs: JobsConfig{
			AuthorizeScheduled: getEnv("JOB_AUTHORIZE_SCHEDULED", "*/15 * * * *"),
			RetryFailed:        getEnv("JOB_RETRY_FAILED", "5 * * * *"),
			CaptureCompleted:   getEnv("JOB_CAPTURE_COMPLETED", "20 * * * *"),
			ReferralUnlock:     getEnv("JOB_REFERRAL_UNLOCK", "35 * * * *"),
			ReferralExpiry:     getEnv("JOB_REFERRAL_EXPIRY", "10 3 * * *"),
			AnalyticsRecalc:    getEnv("JOB_ANALYTICS_RECALC", "30 2 * * *"),
			LockTTL:            getEnvDuration("JOB_LOCK_TTL", 10*time.Minute),
		},
	}
}

// Validate reports every missing required setting in a single error.
func (c *AppConfig) Validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config validation failed: missing %s", strings.Join(missing, ", "))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config validation failed: invalid APP_TIMEZONE %q", c.Timezone)
	}
	return nil
}

// Location returns the marketplace time zone. It falls back to UTC when the
// configured zone cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
