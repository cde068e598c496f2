package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
)

// Client is the provider-agnostic backend contract used by the sync engine
// and the session manager.
type Client interface {
	Provider() models.Provider

	SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error)
	SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error)

	// Pull returns entries changed at or after since, and the server time to
	// use as the next watermark.
	Pull(ctx context.Context, session *models.AuthSession, since int64) (*PullResult, error)

	// Push uploads entries as full replacements by id.
	Push(ctx context.Context, session *models.AuthSession, entries []models.Entry) error
}

type PullResult struct {
	Entries    []models.Entry
	ServerTime int64
}

// Config selects and configures a provider.
type Config struct {
	Provider models.Provider
	Timeout  time.Duration

	CustomBaseURL string

	FirebaseAPIKey      string
	FirebaseDatabaseURL string
	FirebaseAuthURL     string

	SupabaseURL     string
	SupabaseAnonKey string
}

const (
	DefaultTimeout         = 15 * time.Second
	DefaultFirebaseAuthURL = "https://identitytoolkit.googleapis.com/v1"
)

// New builds the Client for cfg.Provider. Missing settings for the chosen
// provider fail here rather than on first use.
func New(cfg Config, clock common.Clock) (Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case models.ProviderCustom:
		if cfg.CustomBaseURL == "" {
			return nil, fmt.Errorf("%w: custom provider needs a base URL", ErrNotConfigured)
		}
		return NewCustomClient(h, cfg.CustomBaseURL), nil

	case models.ProviderFirebase:
		if cfg.FirebaseAPIKey == "" || cfg.FirebaseDatabaseURL == "" {
			return nil, fmt.Errorf("%w: firebase provider needs an API key and a database URL", ErrNotConfigured)
		}
		authURL := cfg.FirebaseAuthURL
		if authURL == "" {
			authURL = DefaultFirebaseAuthURL
		}
		return NewFirebaseClient(h, clock, cfg.FirebaseAPIKey, authURL, cfg.FirebaseDatabaseURL), nil

	case models.ProviderSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("%w: supabase provider needs a project URL and an anon key", ErrNotConfigured)
		}
		return NewSupabaseClient(h, clock, cfg.SupabaseURL, cfg.SupabaseAnonKey), nil
	}

	return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
}

func trimBase(u string) string {
	return strings.TrimRight(u, "/")
}

func bearer(token string) string {
	return common.BearerPrefix + token
}
