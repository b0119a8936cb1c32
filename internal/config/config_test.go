package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_KEY", "secret")
	t.Setenv("ADDR", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.TLS())
	assert.Empty(t, cfg.AdminLogins)
}

func TestLoadAdminLogins(t *testing.T) {
	t.Setenv("TOKEN_KEY", "secret")
	t.Setenv("ADMIN_LOGINS", " alice, ,bob ")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AdminLogins)
}

func TestLoadFromEnvFile(t *testing.T) {
	for _, key := range []string{"TOKEN_KEY", "DATA_DIR", "SESSION_TTL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "TOKEN_KEY=from-file\nDATA_DIR=/srv/cables\nSESSION_TTL=15m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TokenKey)
	assert.Equal(t, "/srv/cables", cfg.DataDir)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}

func TestLoadRequiresTokenKey(t *testing.T) {
	t.Setenv("TOKEN_KEY", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"postgres://u:p@db/cables", "postgres://u:p@db/cables?sslmode=require"},
		{"postgres://u:p@db/cables?connect_timeout=5", "postgres://u:p@db/cables?connect_timeout=5&sslmode=require"},
		{"user=u dbname=cables", "user=u dbname=cables sslmode=require"},
		{"user=u sslmode=disable", "user=u sslmode=disable"},
	}
	for _, tt := range tests {
		cfg := &Config{DatabaseURL: tt.in}
		assert.Equal(t, tt.want, cfg.PostgresDSN(), tt.in)
	}
}
