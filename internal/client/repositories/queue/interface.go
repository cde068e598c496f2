// Package queue persists the pending-push queue: one row per entry whose
// latest local write has not been confirmed by the remote.
package queue

import (
	"context"

	"github.com/dmitrijs2005/threeline/internal/client/models"
)

type Repository interface {
	// Enqueue records the entry version as pending. An existing item for the
	// same id is overwritten and its retry state reset.
	Enqueue(ctx context.Context, entryID string, updatedAt int64) error

	GetAll(ctx context.Context) ([]models.SyncQueueItem, error)

	// DeleteUpTo removes the item for entryID only when its queued version is
	// not newer than updatedAt.
	DeleteUpTo(ctx context.Context, entryID string, updatedAt int64) error

	DeleteIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error

	// MarkFailed increments the retry counter and stores message for ids.
	MarkFailed(ctx context.Context, ids []string, message string) error

	Count(ctx context.Context) (int, error)
}
