package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	var hash sql.NullString
	if user.PasswordHash != "" {
		hash = sql.NullString{String: user.PasswordHash, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, hash).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: email %s", common.ErrAlreadyExists, user.Email)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.one(ctx,
		`SELECT id, email, password_hash, created_at FROM users
		 WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.one(ctx,
		`SELECT id, email, password_hash, created_at FROM users
		 WHERE lower(email) = lower($1) AND email <> ''`, email)
}

func (r *PostgresRepository) GetByIdentity(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.one(ctx,
		`SELECT u.id, u.email, u.password_hash, u.created_at
		 FROM users u JOIN user_identities i ON i.user_id = u.id
		 WHERE i.provider = $1 AND i.subject = $2`, provider, subject)
}

func (r *PostgresRepository) LinkIdentity(ctx context.Context, identity models.Identity) error {
	query :=
		`INSERT INTO user_identities (provider, subject, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (provider, subject) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, identity.Provider, identity.Subject, identity.UserID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	var hash sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.PasswordHash = hash.String
	return user, nil
}
