package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/backup"
	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/confx"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "THREELINE_"

type CustomConfig struct {
	BaseURL string `json:"base_url" toml:"base_url" yaml:"base_url"`
}

type FirebaseConfig struct {
	APIKey      string `json:"api_key" toml:"api_key" yaml:"api_key"`
	DatabaseURL string `json:"database_url" toml:"database_url" yaml:"database_url"`
	AuthURL     string `json:"auth_url" toml:"auth_url" yaml:"auth_url"`
}

type SupabaseConfig struct {
	URL     string `json:"url" toml:"url" yaml:"url"`
	AnonKey string `json:"anon_key" toml:"anon_key" yaml:"anon_key"`
}

// BackupConfig selects where named archives are kept.
type BackupConfig struct {
	Type        string `json:"type" toml:"type" yaml:"type"`
	Dir         string `json:"dir" toml:"dir" yaml:"dir"`
	S3Bucket    string `json:"s3_bucket" toml:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix    string `json:"s3_prefix" toml:"s3_prefix" yaml:"s3_prefix"`
	S3Region    string `json:"s3_region" toml:"s3_region" yaml:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint" toml:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key" toml:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key" toml:"s3_secret_key" yaml:"s3_secret_key"`
}

// Config holds runtime settings for the threeline CLI.
type Config struct {
	Provider       string         `json:"provider" toml:"provider" yaml:"provider"`
	DatabasePath   string         `json:"database_path" toml:"database_path" yaml:"database_path"`
	RequestTimeout confx.Duration `json:"request_timeout" toml:"request_timeout" yaml:"request_timeout"`
	LogLevel       string         `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" toml:"log_format" yaml:"log_format"`

	Custom   CustomConfig   `json:"custom" toml:"custom" yaml:"custom"`
	Firebase FirebaseConfig `json:"firebase" toml:"firebase" yaml:"firebase"`
	Supabase SupabaseConfig `json:"supabase" toml:"supabase" yaml:"supabase"`
	Backup   BackupConfig   `json:"backup" toml:"backup" yaml:"backup"`
}

// Default returns the built-in settings. Local data lives under the user
// config directory.
func Default() *Config {
	dir := dataDir()
	return &Config{
		Provider:       string(models.ProviderCustom),
		DatabasePath:   filepath.Join(dir, "journal.db"),
		RequestTimeout: confx.Duration{Duration: remote.DefaultTimeout},
		LogLevel:       "warn",
		LogFormat:      "text",
		Custom:         CustomConfig{BaseURL: "http://127.0.0.1:8080"},
		Firebase:       FirebaseConfig{AuthURL: remote.DefaultFirebaseAuthURL},
		Backup:         BackupConfig{Type: backup.TypeFilesystem, Dir: filepath.Join(dir, "backups")},
	}
}

func dataDir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "threeline")
	}
	return ".threeline"
}

// Load applies defaults, the optional file at path and the environment.
// Flags are applied separately by ApplyFlags.
func Load(path string) (*Config, error) {
	cfg := Default()
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
	env.String(&c.Provider, "PROVIDER")
	env.String(&c.DatabasePath, "DATABASE_PATH")
	env.Duration(&c.RequestTimeout, "REQUEST_TIMEOUT")
	env.String(&c.LogLevel, "LOG_LEVEL")
	env.String(&c.LogFormat, "LOG_FORMAT")

	env.String(&c.Custom.BaseURL, "CUSTOM_BASE_URL")

	env.String(&c.Firebase.APIKey, "FIREBASE_API_KEY")
	env.String(&c.Firebase.DatabaseURL, "FIREBASE_DATABASE_URL")
	env.String(&c.Firebase.AuthURL, "FIREBASE_AUTH_URL")

	env.String(&c.Supabase.URL, "SUPABASE_URL")
	env.String(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")

	env.String(&c.Backup.Type, "BACKUP_TYPE")
	env.String(&c.Backup.Dir, "BACKUP_DIR")
	env.String(&c.Backup.S3Bucket, "BACKUP_S3_BUCKET")
	env.String(&c.Backup.S3Prefix, "BACKUP_S3_PREFIX")
	env.String(&c.Backup.S3Region, "BACKUP_S3_REGION")
	env.String(&c.Backup.S3Endpoint, "BACKUP_S3_ENDPOINT")
	env.String(&c.Backup.S3AccessKey, "BACKUP_S3_ACCESS_KEY")
	env.String(&c.Backup.S3SecretKey, "BACKUP_S3_SECRET_KEY")

	return env.Err()
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := models.ParseProvider(c.Provider); err != nil {
		return err
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path is required", common.ErrValidation)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", common.ErrValidation)
	}
	switch c.Backup.Type {
	case backup.TypeFilesystem, backup.TypeS3, backup.TypeMemory:
	default:
		return fmt.Errorf("%w: unknown backup type %q", common.ErrValidation, c.Backup.Type)
	}
	return nil
}

// Remote maps the settings to a remote client configuration.
func (c *Config) Remote() remote.Config {
	p, _ := models.ParseProvider(c.Provider)
	return remote.Config{
		Provider:            p,
		Timeout:             c.RequestTimeout.Duration,
		CustomBaseURL:       c.Custom.BaseURL,
		FirebaseAPIKey:      c.Firebase.APIKey,
		FirebaseDatabaseURL: c.Firebase.DatabaseURL,
		FirebaseAuthURL:     c.Firebase.AuthURL,
		SupabaseURL:         c.Supabase.URL,
		SupabaseAnonKey:     c.Supabase.AnonKey,
	}
}

// Archive maps the settings to a backup archive configuration.
func (c *Config) Archive() backup.Config {
	return backup.Config{
		Type: c.Backup.Type,
		Dir:  c.Backup.Dir,
		S3: backup.S3Config{
			Bucket:    c.Backup.S3Bucket,
			Prefix:    c.Backup.S3Prefix,
			Region:    c.Backup.S3Region,
			Endpoint:  c.Backup.S3Endpoint,
			AccessKey: c.Backup.S3AccessKey,
			SecretKey: c.Backup.S3SecretKey,
		},
	}
}

// Timeout returns the per-request network timeout.
func (c *Config) Timeout() time.Duration { return c.RequestTimeout.Duration }
