package entries

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/server/models"
)

type key struct {
	user string
	id   string
}

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[key]models.Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[key]models.Entry)}
}

// LockUser is a no-op: MemoryRepositoryManager runs every transaction
// under one mutex.
func (r *MemoryRepository) LockUser(context.Context, string) error { return nil }

func (r *MemoryRepository) Upsert(_ context.Context, userID string, e models.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{user: userID, id: e.ID}
	if cur, ok := r.rows[k]; ok && cur.UpdatedAt >= e.UpdatedAt {
		return false, nil
	}
	r.rows[k] = clone(e)
	return true, nil
}

func (r *MemoryRepository) ListSince(_ context.Context, userID string, since int64) ([]models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Entry{}
	for k, e := range r.rows {
		if k.user == userID && e.SyncedAt >= since {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b models.Entry) int {
		if c := cmp.Compare(a.SyncedAt, b.SyncedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func clone(e models.Entry) models.Entry {
	if e.ImageURI != nil {
		v := *e.ImageURI
		e.ImageURI = &v
	}
	if e.DeletedAt != nil {
		v := *e.DeletedAt
		e.DeletedAt = &v
	}
	return e
}
