package config

import (
	"github.com/dmitrijs2005/threeline/internal/confx"
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig    = "config"
	FlagProvider  = "provider"
	FlagDatabase  = "db"
	FlagTimeout   = "timeout"
	FlagBaseURL   = "base-url"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// RegisterFlags defines the configuration flags on fs. Their defaults are
// placeholders; ApplyFlags copies only flags the user set.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(FlagConfig, "c", "", "path to config file (.json, .toml, .yaml)")
	fs.String(FlagProvider, d.Provider, "sync backend: custom, firebase or supabase")
	fs.String(FlagDatabase, d.DatabasePath, "path to the local journal database")
	fs.Duration(FlagTimeout, d.RequestTimeout.Duration, "network request timeout")
	fs.String(FlagBaseURL, d.Custom.BaseURL, "base URL of the custom sync server")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
}

// ApplyFlags overlays flags explicitly set on fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err != nil || !fs.Changed(name) {
			return
		}
		*dst, err = fs.GetString(name)
	}

	str(FlagProvider, &c.Provider)
	str(FlagDatabase, &c.DatabasePath)
	str(FlagBaseURL, &c.Custom.BaseURL)
	str(FlagLogLevel, &c.LogLevel)
	str(FlagLogFormat, &c.LogFormat)

	if err == nil && fs.Changed(FlagTimeout) {
		var d confx.Duration
		d.Duration, err = fs.GetDuration(FlagTimeout)
		c.RequestTimeout = d
	}
	return err
}

// ConfigPath returns the --config value.
func ConfigPath(fs *pflag.FlagSet) string {
	p, _ := fs.GetString(FlagConfig)
	return p
}
