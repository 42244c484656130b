package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")

	configData := []byte(`
PORT=8080
ENVIRONMENT=development
VERSION=1.0.0
TRUSTED_ORIGINS="http://localhost:3000,http://localhost:3001"
TRUSTED_PROXIES="10.0.0.0/8,127.0.0.1"
POSTGRES_HOST=localhost
POSTGRES_USER=testuser
POSTGRES_PASSWORD=testpassword
POSTGRES_DB=testdb
MAIL_HOST=smtp.example.com
MAIL_PORT=2525
MAIL_USER=testuser@example.com
MAIL_PASSWORD=testpassword
MAIL_SENDER=sender@example.com
RABBITMQ_HOST=rabbitmq.example.com
RABBITMQ_USER=testuser
RABBITMQ_PASSWORD=testpassword
ADMIN_USER=admin
SESSION_TTL=24h
COMMENT_BCRYPT_COST=12
RATE_LIMIT_ENABLED=false
`)
	require.NoError(t, os.WriteFile(path, configData, 0o600))

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "1.0.0", config.Version)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, config.TrustedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, config.TrustedProxies)
	assert.Equal(t, "localhost", config.DBHost)
	assert.Equal(t, "5432", config.DBPort)
	assert.Equal(t, "testuser", config.DBUser)
	assert.Equal(t, "testpassword", config.DBPassword)
	assert.Equal(t, "testdb", config.DBName)
	assert.Equal(t, 15*time.Minute, config.DBMaxIdleTime)
	assert.Equal(t, "smtp.example.com", config.MailHost)
	assert.Equal(t, 2525, config.MailPort)
	assert.Equal(t, "testuser@example.com", config.MailUser)
	assert.Equal(t, "sender@example.com", config.MailSender)
	assert.Equal(t, "rabbitmq.example.com", config.MQHost)
	assert.Equal(t, "testuser", config.MQUser)
	assert.Equal(t, "testpassword", config.MQPassword)
	assert.Equal(t, "admin", config.AdminUser)
	assert.Equal(t, 24*time.Hour, config.SessionTTL)
	assert.Equal(t, 12, config.CommentBcryptCost)
	assert.Equal(t, "memory", config.CacheDriver)
	assert.False(t, config.RateLimitEnabled)
	assert.Equal(t, 8, config.RateLimitBurst)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CACHE_DRIVER", "redis")

	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, "from-env", config.JWTSecret)
	assert.Equal(t, "redis", config.CacheDriver)
	assert.Equal(t, 168*time.Hour, config.SessionTTL)
}
