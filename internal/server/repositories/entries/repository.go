// Package entries stores journal entries per user.
package entries

import (
	"context"

	"github.com/dmitrijs2005/threeline/internal/server/models"
)

// Repository persists entries keyed by (user, entry id).
type Repository interface {
	// LockUser blocks other pushes and pulls of userID until the enclosing
	// transaction ends.
	LockUser(ctx context.Context, userID string) error
	// Upsert writes e unless the stored copy has an equal or newer
	// UpdatedAt. It reports whether the write was applied.
	Upsert(ctx context.Context, userID string, e models.Entry) (bool, error)
	// ListSince returns the user's entries with SyncedAt >= since, oldest
	// receipt first.
	ListSince(ctx context.Context, userID string, since int64) ([]models.Entry, error)
}
