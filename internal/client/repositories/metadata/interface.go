// Package metadata stores small key/value settings of the local store, such
// as the sync watermark and the guest flag.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyLastSyncedAt = "last_synced_at"
	KeyGuest        = "guest"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, v int64) error
}
