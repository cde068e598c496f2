// Package session persists the single signed-in AuthSession.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/dbx"
)

type Repository interface {
	// Get returns nil, nil when nobody is signed in.
	Get(ctx context.Context) (*models.AuthSession, error)
	Save(ctx context.Context, s models.AuthSession) error
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.AuthSession, error) {
	var (
		s           models.AuthSession
		displayName sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT provider, access_token, user_id, email, display_name
		FROM auth_session WHERE id = 1`).
		Scan(&s.Provider, &s.AccessToken, &s.User.ID, &s.User.Email, &displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if displayName.Valid {
		s.User.DisplayName = &displayName.String
	}
	return &s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s models.AuthSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_session (id, provider, access_token, user_id, email, display_name)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			access_token = excluded.access_token,
			user_id = excluded.user_id,
			email = excluded.email,
			display_name = excluded.display_name
	`, string(s.Provider), s.AccessToken, s.User.ID, s.User.Email, s.User.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
