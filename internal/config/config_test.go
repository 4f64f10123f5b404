package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STRIPE_CURRENCY", "USD")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REFERRAL_REWARD_CENTS", "2500")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(2500), cfg.Referral.RewardCents)
	assert.Equal(t, 12, cfg.Pricing.StudentFeePercent)
	assert.Equal(t, "*/15 * * * *", cfg.Jobs.AuthorizeScheduled)
}

func TestValidate(t *testing.T) {
	t.Run("missing values are reported together", func(t *testing.T) {
		cfg := &AppConfig{Timezone: "UTC"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST")
		assert.Contains(t, err.Error(), "JWT_SECRET")
		assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		cfg := &AppConfig{
			Timezone: "Mars/Olympus",
			Database: DatabaseConfig{Host: "h", User: "u", Name: "n"},
			Auth:     AuthConfig{JWTSecret: "s"},
			Stripe:   StripeConfig{SecretKey: "sk"},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APP_TIMEZONE")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &AppConfig{
			Timezone: "America/New_York",
			Database: DatabaseConfig{Host: "h", User: "u", Name: "n"},
			Auth:     AuthConfig{JWTSecret: "s"},
			Stripe:   StripeConfig{SecretKey: "sk"},
		}
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "America/New_York", cfg.Location().String())
	})
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	os.Setenv(key, "15m")
	assert.Equal(t, 15*time.Minute, getEnvDuration(key, time.Second))

	os.Setenv(key, "soon")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))

	os.Unsetenv(key)
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))
}
