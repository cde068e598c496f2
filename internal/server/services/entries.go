package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/logging"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/repomanager"
)

// MaxPushBatch bounds the entries accepted by one push.
const MaxPushBatch = 1000

// EntryService serves pull and push for a signed-in user.
type EntryService struct {
	repomanager repomanager.RepositoryManager
	clock       common.Clock
	log         logging.Logger
}

func NewEntryService(m repomanager.RepositoryManager, clock common.Clock, log logging.Logger) *EntryService {
	if log == nil {
		log = logging.Nop()
	}
	return &EntryService{repomanager: m, clock: clock, log: log}
}

// Pull returns the user's entries received at or after since, and the
// server time to use as the next since. It holds the user's lock, so a push
// still in flight is either fully visible or stamped after the returned time.
func (s *EntryService) Pull(ctx context.Context, userID string, since int64) ([]models.Entry, int64, error) {
	if since < 0 {
		return nil, 0, fmt.Errorf("%w: since must not be negative", common.ErrValidation)
	}

	var (
		list       []models.Entry
		serverTime int64
	)
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}
		serverTime = common.NowMillis(s.clock)

		var err error
		list, err = repo.ListSince(ctx, userID, since)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("pull: %w", err)
	}
	return list, serverTime, nil
}

// Push stores entries with last-write-wins on UpdatedAt. Older or equal
// versions are ignored. The batch is validated as a whole and written in
// one transaction under the user's lock. It returns the number of entries
// applied.
func (s *EntryService) Push(ctx context.Context, userID string, list []models.Entry) (int, error) {
	if len(list) > MaxPushBatch {
		return 0, fmt.Errorf("%w: at most %d entries per push", common.ErrValidation, MaxPushBatch)
	}
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return 0, err
		}
	}

	applied := 0
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}

		syncedAt := common.NowMillis(s.clock)
		for _, e := range list {
			e.SyncedAt = syncedAt
			ok, err := repo.Upsert(ctx, userID, e)
			if err != nil {
				return err
			}
			if ok {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("push: %w", err)
	}

	s.log.Debug(ctx, "entries pushed", "user_id", userID, "received", len(list), "applied", applied)
	return applied, nil
}
