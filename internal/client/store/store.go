// Package store is the durable local state of the journal: entries, the
// pending-push queue, the session, the sync watermark and the guest flag.
//
// Every method returns only after its writes are committed. Multi-row and
// multi-table changes run in a single transaction, so a crash never leaves
// an entry written without its queue item or a merge without its watermark.
// Errors match common.ErrStorage.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/repositories/entries"
	"github.com/dmitrijs2005/threeline/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/threeline/internal/client/repositories/queue"
	"github.com/dmitrijs2005/threeline/internal/client/repositories/session"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
)

type Store struct {
	db *sql.DB
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens and migrates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := InitDatabase(ctx, path)
	if err != nil {
		return nil, wrap("open", err)
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type repoSet struct {
	entries  entries.Repository
	queue    queue.Repository
	meta     metadata.Repository
	sessions session.Repository
}

func reposOn(db dbx.DBTX) repoSet {
	return repoSet{
		entries:  entries.NewSQLiteRepository(db),
		queue:    queue.NewSQLiteRepository(db),
		meta:     metadata.NewSQLiteRepository(db),
		sessions: session.NewSQLiteRepository(db),
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

func (s *Store) tx(ctx context.Context, op string, fn func(r repoSet) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(reposOn(tx))
	})
	return wrap(op, err)
}

// LoadAll returns every entry, tombstones included.
func (s *Store) LoadAll(ctx context.Context) ([]models.Entry, error) {
	all, err := reposOn(s.db).entries.GetAll(ctx)
	return all, wrap("load entries", err)
}

// Upsert writes entries as full-row replacements by id.
func (s *Store) Upsert(ctx context.Context, list []models.Entry) error {
	return s.tx(ctx, "upsert entries", func(r repoSet) error {
		return upsertAll(ctx, r, list)
	})
}

// ReplaceAll swaps the whole entry table for list.
func (s *Store) ReplaceAll(ctx context.Context, list []models.Entry) error {
	return s.tx(ctx, "replace entries", func(r repoSet) error {
		if err := r.entries.DeleteAll(ctx); err != nil {
			return err
		}
		return upsertAll(ctx, r, list)
	})
}

// LoadSession returns nil when nobody is signed in.
func (s *Store) LoadSession(ctx context.Context) (*models.AuthSession, error) {
	sess, err := reposOn(s.db).sessions.Get(ctx)
	return sess, wrap("load session", err)
}

// SaveSession persists sess, or clears the stored session when sess is nil.
// Saving a session also clears the guest flag.
func (s *Store) SaveSession(ctx context.Context, sess *models.AuthSession) error {
	return s.tx(ctx, "save session", func(r repoSet) error {
		if sess == nil {
			return r.sessions.Clear(ctx)
		}
		if err := r.sessions.Save(ctx, *sess); err != nil {
			return err
		}
		return r.meta.Delete(ctx, metadata.KeyGuest)
	})
}

// LoadWatermark returns 0 before the first successful pull.
func (s *Store) LoadWatermark(ctx context.Context) (int64, error) {
	v, _, err := reposOn(s.db).meta.GetInt64(ctx, metadata.KeyLastSyncedAt)
	return v, wrap("load watermark", err)
}

// SaveWatermark stores ts unless a later watermark is already stored.
func (s *Store) SaveWatermark(ctx context.Context, ts int64) error {
	return s.tx(ctx, "save watermark", func(r repoSet) error {
		return advanceWatermark(ctx, r, ts)
	})
}

func (s *Store) LoadGuest(ctx context.Context) (bool, error) {
	v, err := reposOn(s.db).meta.Get(ctx, metadata.KeyGuest)
	return string(v) == "1", wrap("load guest flag", err)
}

func (s *Store) SaveGuest(ctx context.Context, guest bool) error {
	m := reposOn(s.db).meta
	if guest {
		return wrap("save guest flag", m.Set(ctx, metadata.KeyGuest, []byte("1")))
	}
	return wrap("save guest flag", m.Delete(ctx, metadata.KeyGuest))
}

func (s *Store) LoadQueue(ctx context.Context) ([]models.SyncQueueItem, error) {
	items, err := reposOn(s.db).queue.GetAll(ctx)
	return items, wrap("load queue", err)
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	n, err := reposOn(s.db).queue.Count(ctx)
	return n, wrap("count queue", err)
}

// Enqueue marks the given entry versions as pending push.
func (s *Store) Enqueue(ctx context.Context, list []models.Entry) error {
	return s.tx(ctx, "enqueue", func(r repoSet) error {
		return enqueueAll(ctx, r, list)
	})
}

// Dequeue removes the queue items for pushed entries. An item whose queued
// version is newer than the pushed one stays.
func (s *Store) Dequeue(ctx context.Context, pushed []models.Entry) error {
	return s.tx(ctx, "dequeue", func(r repoSet) error {
		for _, e := range pushed {
			if err := r.queue.DeleteUpTo(ctx, e.ID, e.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropQueued removes queue items by id regardless of version.
func (s *Store) DropQueued(ctx context.Context, ids []string) error {
	return wrap("drop queue items", reposOn(s.db).queue.DeleteIDs(ctx, ids))
}

func (s *Store) MarkFailed(ctx context.Context, ids []string, message string) error {
	return wrap("mark failed", reposOn(s.db).queue.MarkFailed(ctx, ids, message))
}

// SaveLocal writes locally mutated entries and enqueues them for push.
func (s *Store) SaveLocal(ctx context.Context, list []models.Entry) error {
	return s.tx(ctx, "save local", func(r repoSet) error {
		if err := upsertAll(ctx, r, list); err != nil {
			return err
		}
		return enqueueAll(ctx, r, list)
	})
}

// Restore replaces every entry with list and makes list the whole queue.
func (s *Store) Restore(ctx context.Context, list []models.Entry) error {
	return s.tx(ctx, "restore", func(r repoSet) error {
		if err := r.entries.DeleteAll(ctx); err != nil {
			return err
		}
		if err := r.queue.DeleteAll(ctx); err != nil {
			return err
		}
		if err := upsertAll(ctx, r, list); err != nil {
			return err
		}
		return enqueueAll(ctx, r, list)
	})
}

// CommitPull persists a merge result and advances the watermark together.
// Queue items for ids in remoteWins whose queued version is not newer than
// the winning remote version are dropped: the remote already holds it.
func (s *Store) CommitPull(ctx context.Context, merged, remoteWins []models.Entry, watermark int64) error {
	return s.tx(ctx, "commit pull", func(r repoSet) error {
		if err := upsertAll(ctx, r, merged); err != nil {
			return err
		}
		for _, e := range remoteWins {
			if err := r.queue.DeleteUpTo(ctx, e.ID, e.UpdatedAt); err != nil {
				return err
			}
		}
		return advanceWatermark(ctx, r, watermark)
	})
}

func upsertAll(ctx context.Context, r repoSet, list []models.Entry) error {
	for _, e := range list {
		if err := r.entries.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func enqueueAll(ctx context.Context, r repoSet, list []models.Entry) error {
	for _, e := range list {
		if err := r.queue.Enqueue(ctx, e.ID, e.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func advanceWatermark(ctx context.Context, r repoSet, ts int64) error {
	cur, ok, err := r.meta.GetInt64(ctx, metadata.KeyLastSyncedAt)
	if err != nil {
		return err
	}
	if ok && cur >= ts {
		return nil
	}
	return r.meta.SetInt64(ctx, metadata.KeyLastSyncedAt, ts)
}
