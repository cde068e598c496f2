package entries

import (
	"context"

	"github.com/dmitrijs2005/threeline/internal/client/models"
)

// Repository describes row-level operations on journal entries.
type Repository interface {
	// Upsert inserts the entry or replaces every column of the row with the
	// same id.
	Upsert(ctx context.Context, entry models.Entry) error

	// GetAll returns all entries, tombstones included.
	GetAll(ctx context.Context) ([]models.Entry, error)

	// GetByID returns common.ErrNotFound when no row has the id.
	GetByID(ctx context.Context, id string) (models.Entry, error)

	// DeleteAll removes every row. Only backup restore uses it.
	DeleteAll(ctx context.Context) error
}
