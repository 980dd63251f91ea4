package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dresscode", cfg.AppName)
	assert.Equal(t, StorageFile, cfg.StorageDriver)
	assert.Equal(t, "dresscode_users", cfg.StorageKey)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.PostalLookupTimeout)
	assert.Equal(t, "https://viacep.com.br/ws", cfg.PostalLookupURL)
	assert.True(t, cfg.SeedExamples)
	assert.False(t, cfg.PublishesEmails())
	assert.Empty(t, cfg.AdminJWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.AdminTokenTTL)
	assert.Equal(t, 10000, cfg.WizardMaxSessions)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("USER_CACHE_TTL", "90s")
	t.Setenv("SEED_EXAMPLES", "false")
	t.Setenv("POSTAL_LOOKUP_URL", "http://localhost:9999/ws/")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("WIZARD_MAX_SESSIONS", "50")

	cfg := Load()

	assert.Equal(t, StorageRedis, cfg.StorageDriver)
	assert.Equal(t, 90*time.Second, cfg.UserCacheTTL)
	assert.False(t, cfg.SeedExamples)
	assert.Equal(t, "http://localhost:9999/ws", cfg.PostalLookupURL)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, "s3cret", cfg.AdminJWTSecret)
	assert.Equal(t, 50, cfg.WizardMaxSessions)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("USER_CACHE_TTL", "soon")
	t.Setenv("SEED_EXAMPLES", "maybe")
	t.Setenv("REDIS_DB", "x")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.True(t, cfg.SeedExamples)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestConfig_Helpers(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "db", DBSSLMode: "disable",
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
		MailSendEnabled:    true, RabbitMQURL: "amqp://x", RabbitMQEmailQueue: "emails",
	}

	require.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", cfg.PostgresDSN())
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	require.True(t, cfg.PublishesEmails())
}
