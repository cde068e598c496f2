package entries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LockUser takes a transaction-scoped advisory lock keyed by userID.
func (r *PostgresRepository) LockUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, e models.Entry) (bool, error) {
	query :=
		`INSERT INTO entries (user_id, id, date, line1, line2, line3, image_uri, created_at, updated_at, deleted_at, synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, id) DO UPDATE SET
		   date = EXCLUDED.date,
		   line1 = EXCLUDED.line1,
		   line2 = EXCLUDED.line2,
		   line3 = EXCLUDED.line3,
		   image_uri = EXCLUDED.image_uri,
		   created_at = EXCLUDED.created_at,
		   updated_at = EXCLUDED.updated_at,
		   deleted_at = EXCLUDED.deleted_at,
		   synced_at = EXCLUDED.synced_at
		 WHERE entries.updated_at < EXCLUDED.updated_at`

	res, err := r.db.ExecContext(ctx, query,
		userID, e.ID, e.Date, e.Line1, e.Line2, e.Line3,
		nullString(e.ImageURI), e.CreatedAt, e.UpdatedAt, nullInt(e.DeletedAt), e.SyncedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListSince(ctx context.Context, userID string, since int64) ([]models.Entry, error) {
	query :=
		`SELECT id, date, line1, line2, line3, image_uri, created_at, updated_at, deleted_at, synced_at
		 FROM entries
		 WHERE user_id = $1 AND synced_at >= $2
		 ORDER BY synced_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		var (
			e       models.Entry
			image   sql.NullString
			deleted sql.NullInt64
		)
		err := rows.Scan(&e.ID, &e.Date, &e.Line1, &e.Line2, &e.Line3, &image,
			&e.CreatedAt, &e.UpdatedAt, &deleted, &e.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if image.Valid {
			e.ImageURI = &image.String
		}
		if deleted.Valid {
			e.DeletedAt = &deleted.Int64
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
