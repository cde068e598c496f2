// Package auth issues and checks the server's bearer access tokens and
// verifies identity tokens from Apple and Google.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// GenerateToken signs an HS256 access token for userID valid for ttl from now.
func GenerateToken(userID, email string, secretKey []byte, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// GetUserIDFromToken validates tokenString and returns its subject. Every
// failure wraps common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte, now time.Time) (string, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("%w: expired", common.ErrInvalidToken)
	case err != nil:
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}

	return claims.Subject, nil
}
