// Package config handles configuration for the reference server: defaults,
// an optional config file, THREELINE_SERVER_* environment variables and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/confx"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "THREELINE_SERVER_"

// DefaultSecretKey is the development signing key. The server warns when
// it is still in use.
const DefaultSecretKey = "secretKey"

// IdentityProviderConfig enables sign-in with one identity provider. The
// provider is disabled while PublicKeyPath is empty.
type IdentityProviderConfig struct {
	Audience      string `json:"audience" toml:"audience" yaml:"audience"`
	PublicKeyPath string `json:"public_key_path" toml:"public_key_path" yaml:"public_key_path"`
}

// Enabled reports whether the provider is configured.
func (c IdentityProviderConfig) Enabled() bool { return c.PublicKeyPath != "" }

// Config holds runtime settings for the threeline server.
//
// An empty DatabaseDSN keeps all data in memory.
type Config struct {
	ListenAddr      string         `json:"listen_addr" toml:"listen_addr" yaml:"listen_addr"`
	DatabaseDSN     string         `json:"database_dsn" toml:"database_dsn" yaml:"database_dsn"`
	SecretKey       string         `json:"secret_key" toml:"secret_key" yaml:"secret_key"`
	AccessTokenTTL  confx.Duration `json:"access_token_ttl" toml:"access_token_ttl" yaml:"access_token_ttl"`
	ShutdownTimeout confx.Duration `json:"shutdown_timeout" toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel        string         `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFormat       string         `json:"log_format" toml:"log_format" yaml:"log_format"`

	Apple  IdentityProviderConfig `json:"apple" toml:"apple" yaml:"apple"`
	Google IdentityProviderConfig `json:"google" toml:"google" yaml:"google"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.AccessTokenTTL = confx.Duration{Duration: time.Hour}
	c.ShutdownTimeout = confx.Duration{Duration: 10 * time.Second}
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Load applies defaults, the optional file at path and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := confx.Decode(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(confx.NewEnv(EnvPrefix)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env *confx.Env) error {
	env.String(&c.ListenAddr, "LISTEN_ADDR")
	env.String(&c.DatabaseDSN, "DATABASE_DSN")
	env.String(&c.SecretKey, "SECRET_KEY")
	env.Duration(&c.AccessTokenTTL, "ACCESS_TOKEN_TTL")
	env.Duration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	env.String(&c.LogLevel, "LOG_LEVEL")
	env.String(&c.LogFormat, "LOG_FORMAT")

	env.String(&c.Apple.Audience, "APPLE_AUDIENCE")
	env.String(&c.Apple.PublicKeyPath, "APPLE_PUBLIC_KEY_PATH")
	env.String(&c.Google.Audience, "GOOGLE_AUDIENCE")
	env.String(&c.Google.PublicKeyPath, "GOOGLE_PUBLIC_KEY_PATH")

	return env.Err()
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is required", common.ErrValidation)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", common.ErrValidation)
	}
	if c.AccessTokenTTL.Duration <= 0 {
		return fmt.Errorf("%w: access_token_ttl must be positive", common.ErrValidation)
	}
	for name, idp := range map[string]IdentityProviderConfig{"apple": c.Apple, "google": c.Google} {
		if idp.Enabled() && idp.Audience == "" {
			return fmt.Errorf("%w: %s.audience is required with a public key", common.ErrValidation, name)
		}
	}
	return nil
}
