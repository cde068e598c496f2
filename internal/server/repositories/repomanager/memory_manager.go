package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/entries"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. The DBTX
// arguments are ignored; InTx serialises callbacks but cannot roll back.
type MemoryRepositoryManager struct {
	mu      sync.Mutex
	users   *users.MemoryRepository
	entries *entries.MemoryRepository
}

func NewMemoryRepositoryManager(clock common.Clock) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:   users.NewMemoryRepository(clock),
		entries: entries.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) Entries(dbx.DBTX) entries.Repository { return m.entries }

func (m *MemoryRepositoryManager) Close() error { return nil }
