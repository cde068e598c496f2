package config

import (
	"github.com/dmitrijs2005/threeline/internal/confx"
	"github.com/spf13/pflag"
)

// LoadConfig parses args and builds the effective configuration. The
// config file is named by -c/--config; flags override file and
// environment only when given.
//
// Supported flags (short forms):
//
//	-a string     listen address (e.g. ":8080")
//	-d string     PostgreSQL DSN; empty keeps data in memory
//	-s string     JWT HMAC secret key
//	-t duration   access token lifetime
func LoadConfig(args []string) (*Config, error) {
	var d Config
	d.LoadDefaults()

	fs := pflag.NewFlagSet("threeline-server", pflag.ContinueOnError)
	path := fs.StringP("config", "c", "", "path to config file (.json, .toml, .yaml)")
	addr := fs.StringP("listen", "a", d.ListenAddr, "address and port to listen on")
	dsn := fs.StringP("database-dsn", "d", d.DatabaseDSN, "PostgreSQL DSN")
	secret := fs.StringP("secret-key", "s", d.SecretKey, "access token signing key")
	ttl := fs.DurationP("access-token-ttl", "t", d.AccessTokenTTL.Duration, "access token lifetime")
	level := fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	format := fs.String("log-format", d.LogFormat, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("listen", &cfg.ListenAddr, *addr)
	set("database-dsn", &cfg.DatabaseDSN, *dsn)
	set("secret-key", &cfg.SecretKey, *secret)
	set("log-level", &cfg.LogLevel, *level)
	set("log-format", &cfg.LogFormat, *format)
	if fs.Changed("access-token-ttl") {
		cfg.AccessTokenTTL = confx.Duration{Duration: *ttl}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
