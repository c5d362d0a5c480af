package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "BLOB_BACKEND", "GEMINI_MODEL", "SESSION_TTL", "SMTP_PORT")
	t.Setenv("PORT", "")
	cfg := Load()

	assert.Equal(t, "", cfg.App.Port, "an explicitly empty variable wins over the default")
	assert.Equal(t, "sqlite", cfg.Blob.Backend)
	assert.Equal(t, "gemini-2.5-flash", cfg.Chat.Model)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "s3")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CHAT_RATE_PER_SEC", "0.5")
	t.Setenv("SECURE_COOKIE", "true")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "s3", cfg.Blob.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, 0.5, cfg.Chat.RatePerSec)
	assert.True(t, cfg.Auth.SecureCookie)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func TestChatAPIKey_LegacyName(t *testing.T) {
	unsetEnv(t, "GEMINI_API_KEY")
	t.Setenv("API_KEY", "legacy")
	cfg := Load()
	assert.Equal(t, "legacy", cfg.Chat.APIKey)
}
