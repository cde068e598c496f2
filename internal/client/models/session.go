package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Provider names a remote backend family.
type Provider string

const (
	ProviderCustom   Provider = "custom"
	ProviderFirebase Provider = "firebase"
	ProviderSupabase Provider = "supabase"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderCustom, ProviderFirebase, ProviderSupabase:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown provider %q", common.ErrValidation, s)
}

// AuthUser is the identity returned by a provider at sign-in.
type AuthUser struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName,omitempty"`
}

// AuthSession is the single persisted credential used for push and pull.
type AuthSession struct {
	Provider    Provider `json:"provider"`
	AccessToken string   `json:"accessToken"`
	User        AuthUser `json:"user"`
}

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. ok is false for opaque tokens or tokens without exp.
func (s *AuthSession) TokenExpiry() (exp time.Time, ok bool) {
	if s == nil || s.AccessToken == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the access token is a JWT whose exp is not after now.
func (s *AuthSession) Expired(now time.Time) bool {
	exp, ok := s.TokenExpiry()
	return ok && !now.Before(exp)
}
