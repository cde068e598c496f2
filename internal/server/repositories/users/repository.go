// Package users stores accounts and their identity provider links.
package users

import (
	"context"

	"github.com/dmitrijs2005/threeline/internal/server/models"
)

// Repository finds and creates users. Lookups return common.ErrNotFound
// when nothing matches; Create returns common.ErrAlreadyExists for a taken
// email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIdentity(ctx context.Context, provider, subject string) (*models.User, error)
	LinkIdentity(ctx context.Context, identity models.Identity) error
}
