package models

import "time"

// User is an account. PasswordHash is empty for accounts created through an
// identity provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity links an identity provider subject to a user.
type Identity struct {
	Provider string
	Subject  string
	UserID   string
}

// Identity provider names used in routes and the user_identities table.
const (
	ProviderApple  = "apple"
	ProviderGoogle = "google"
)
