package entries

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	applied, err := r.Upsert(ctx, "u-1", models.Entry{ID: "e1", Line1: "v1", UpdatedAt: 10, SyncedAt: 100})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = r.Upsert(ctx, "u-1", models.Entry{ID: "e1", Line1: "old", UpdatedAt: 5, SyncedAt: 200})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = r.Upsert(ctx, "u-1", models.Entry{ID: "e1", Line1: "same", UpdatedAt: 10, SyncedAt: 200})
	require.NoError(t, err)
	assert.False(t, applied, "equal timestamps keep the stored copy")

	applied, err = r.Upsert(ctx, "u-1", models.Entry{ID: "e1", Line1: "v2", UpdatedAt: 11, SyncedAt: 300})
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := r.ListSince(ctx, "u-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0].Line1)
}

func TestMemoryRepository_ListSince(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	for _, e := range []models.Entry{
		{ID: "b", UpdatedAt: 1, SyncedAt: 20},
		{ID: "a", UpdatedAt: 1, SyncedAt: 20},
		{ID: "c", UpdatedAt: 1, SyncedAt: 10},
	} {
		_, err := r.Upsert(ctx, "u-1", e)
		require.NoError(t, err)
	}
	_, err := r.Upsert(ctx, "u-2", models.Entry{ID: "x", UpdatedAt: 1, SyncedAt: 30})
	require.NoError(t, err)

	got, err := r.ListSince(ctx, "u-1", 0)
	require.NoError(t, err)
	ids := []string{}
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	got, err = r.ListSince(ctx, "u-1", 20)
	require.NoError(t, err)
	assert.Len(t, got, 2, "since is inclusive")

	got, err = r.ListSince(ctx, "u-3", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryRepository_CopiesPointers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	img := "a"
	_, err := r.Upsert(ctx, "u", models.Entry{ID: "e", ImageURI: &img, UpdatedAt: 1})
	require.NoError(t, err)
	img = "b"

	got, err := r.ListSince(ctx, "u", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", *got[0].ImageURI)
}
