package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
)

const selectColumns = `id, date, line1, line2, line3, image_uri, created_at, updated_at, deleted_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, e models.Entry) error {
	query := `INSERT INTO journal_entries (` + selectColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				date = excluded.date,
				line1 = excluded.line1,
				line2 = excluded.line2,
				line3 = excluded.line3,
				image_uri = excluded.image_uri,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				deleted_at = excluded.deleted_at`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Date, e.Lines[0], e.Lines[1], e.Lines[2],
		e.ImageURI, e.CreatedAt, e.UpdatedAt, e.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", e.ID, err)
	}
	return nil
}

// GetAll lists every row ordered by date and recency.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM journal_entries ORDER BY date DESC, updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM journal_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, common.ErrNotFound
	}
	return e, err
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.Entry, error) {
	var (
		e         models.Entry
		imageURI  sql.NullString
		deletedAt sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.Date, &e.Lines[0], &e.Lines[1], &e.Lines[2],
		&imageURI, &e.CreatedAt, &e.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}
	if imageURI.Valid {
		e.ImageURI = &imageURI.String
	}
	if deletedAt.Valid {
		e.DeletedAt = &deletedAt.Int64
	}
	return e, nil
}
