package queue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, entryID string, updatedAt int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (entry_id, updated_at, retry_count, last_error)
		VALUES (?, ?, 0, NULL)
		ON CONFLICT(entry_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			retry_count = 0,
			last_error = NULL
	`, entryID, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", entryID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.SyncQueueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id, updated_at, retry_count, last_error FROM sync_queue ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	items := []models.SyncQueueItem{}
	for rows.Next() {
		var (
			it      models.SyncQueueItem
			lastErr sql.NullString
		)
		if err := rows.Scan(&it.EntryID, &it.UpdatedAt, &it.RetryCount, &lastErr); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		if lastErr.Valid {
			it.LastError = &lastErr.String
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) DeleteUpTo(ctx context.Context, entryID string, updatedAt int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE entry_id = ? AND updated_at <= ?`, entryID, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to dequeue %s: %w", entryID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := dbx.InList(ids)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE entry_id IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("failed to dequeue ids: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, ids []string, message string) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := dbx.InList(ids)
	args = append([]any{message}, args...)
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE entry_id IN (`+in+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark queue items failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}
