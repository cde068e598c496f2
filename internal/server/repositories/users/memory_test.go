package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository(testutil.FixedClock())

	_, err := r.Create(ctx, &models.User{ID: "u-1", Email: "Alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = r.Create(ctx, &models.User{ID: "u-2", Email: "alice@EXAMPLE.com"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = r.Create(ctx, &models.User{ID: "u-3"})
	require.NoError(t, err)
	_, err = r.Create(ctx, &models.User{ID: "u-4"})
	require.NoError(t, err, "users without email do not collide")

	got, err := r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = r.GetByEmail(ctx, "")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.GetByIdentity(ctx, "google", "g-1")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.LinkIdentity(ctx, models.Identity{Provider: "google", Subject: "g-1", UserID: "u-3"}))
	require.NoError(t, r.LinkIdentity(ctx, models.Identity{Provider: "google", Subject: "g-1", UserID: "u-4"}))
	got, err = r.GetByIdentity(ctx, "google", "g-1")
	require.NoError(t, err)
	assert.Equal(t, "u-3", got.ID, "first link wins")

	err = r.LinkIdentity(ctx, models.Identity{Provider: "apple", Subject: "a", UserID: "ghost"})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
}
