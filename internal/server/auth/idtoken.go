package auth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuers accepted for each identity provider.
var (
	AppleIssuers  = []string{"https://appleid.apple.com"}
	GoogleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}
)

// Identity is the verified content of an identity token.
type Identity struct {
	Subject string
	Email   string
}

type idClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
}

// IDTokenVerifier checks RS256 identity tokens signed by a provider key.
type IDTokenVerifier struct {
	key      *rsa.PublicKey
	issuers  []string
	audience string
	now      func() time.Time
}

func NewIDTokenVerifier(key *rsa.PublicKey, issuers []string, audience string, clock common.Clock) *IDTokenVerifier {
	return &IDTokenVerifier{key: key, issuers: issuers, audience: audience, now: clock.Now}
}

// LoadIDTokenVerifier reads a PEM encoded RSA public key from path.
func LoadIDTokenVerifier(path string, issuers []string, audience string, clock common.Clock) (*IDTokenVerifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", path, err)
	}
	return NewIDTokenVerifier(key, issuers, audience, clock), nil
}

// Verify checks signature, expiry, issuer and audience of token. The email
// is only returned when the provider marks it verified.
func (v *IDTokenVerifier) Verify(token string) (Identity, error) {
	claims := &idClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !slices.Contains(v.issuers, claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", common.ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}

	id := Identity{Subject: claims.Subject}
	// Apple sends email_verified as a string.
	switch ev := claims.EmailVerified.(type) {
	case bool:
		if ev {
			id.Email = claims.Email
		}
	case string:
		if ev == "true" {
			id.Email = claims.Email
		}
	}
	return id, nil
}
