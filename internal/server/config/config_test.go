package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, DefaultSecretKey, c.SecretKey)
	assert.Equal(t, time.Hour, c.AccessTokenTTL.Duration)
	assert.False(t, c.Apple.Enabled())
	require.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgs(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.ListenAddr)
}

func TestLoadConfig_Layers(t *testing.T) {
	path := writeFile(t, "server.toml", `
listen_addr = ":9000"
database_dsn = "postgres://file"
access_token_ttl = "30m"

[google]
audience = "client-id"
public_key_path = "/keys/google.pem"
`)
	t.Setenv("THREELINE_SERVER_DATABASE_DSN", "postgres://env")
	t.Setenv("THREELINE_SERVER_SECRET_KEY", "from-env")

	c, err := LoadConfig([]string{"-c", path, "-s", "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, "from-flag", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL.Duration)
	assert.True(t, c.Google.Enabled())
}

func TestLoadConfig_FlagsOnlyWhenSet(t *testing.T) {
	t.Setenv("THREELINE_SERVER_LISTEN_ADDR", ":7000")

	c, err := LoadConfig([]string{"--access-token-ttl", "5m"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.ListenAddr, "unset flag keeps env value")
	assert.Equal(t, 5*time.Minute, c.AccessTokenTTL.Duration)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig([]string{"--no-such-flag"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-c", writeFile(t, "bad.json", `{"listen_adr": ":1"}`)})
	require.Error(t, err, "unknown keys are rejected")

	t.Setenv("THREELINE_SERVER_ACCESS_TOKEN_TTL", "soon")
	_, err = LoadConfig(nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"no secret", func(c *Config) { c.SecretKey = "" }},
		{"zero ttl", func(c *Config) { c.AccessTokenTTL.Duration = 0 }},
		{"key without audience", func(c *Config) { c.Apple.PublicKeyPath = "/k.pem" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), common.ErrValidation)
		})
	}
}
