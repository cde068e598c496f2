package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/merge"
	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/common"
)

const flightKey = "sync"

// SyncNow runs one sync attempt, or joins the attempt already in flight.
// It returns common.ErrNoSession without touching state when nobody is
// signed in, and ErrNotLoaded after a failed Bootstrap.
func (e *Engine) SyncNow(ctx context.Context) error {
	_, err := e.syncShared(ctx)
	return err
}

// syncShared is SyncNow that also reports whether the attempt was shared
// with another caller.
func (e *Engine) syncShared(ctx context.Context) (bool, error) {
	_, err, shared := e.flight.Do(flightKey, func() (any, error) {
		return nil, e.attempt(ctx)
	})
	return shared, err
}

type attemptResult struct {
	pushed    int
	pulled    int
	watermark int64
}

func (e *Engine) attempt(ctx context.Context) error {
	sess := e.Session()
	if sess == nil {
		return common.ErrNoSession
	}
	if e.remote == nil {
		return remote.ErrNotConfigured
	}
	if err := e.loaded(); err != nil {
		return err
	}

	started := e.clock.Now()
	e.setSyncing()

	res, err := e.run(ctx, sess)
	e.finish(ctx, started, res, err)
	return err
}

func (e *Engine) run(ctx context.Context, sess *models.AuthSession) (attemptResult, error) {
	var res attemptResult

	if sess.Expired(e.clock.Now()) {
		return res, common.ErrSessionExpired
	}

	pending, err := e.pendingEntries(ctx)
	if err != nil {
		return res, err
	}

	if len(pending) > 0 {
		if err := e.remote.Push(ctx, sess, pending); err != nil {
			e.markFailed(ctx, pending, err)
			return res, err
		}
		if err := e.dequeue(ctx, pending); err != nil {
			return res, err
		}
		res.pushed = len(pending)
	}

	since := e.Status().LastSyncedAt
	pulled, err := e.remote.Pull(ctx, sess, since)
	if err != nil {
		return res, err
	}
	res.pulled = len(pulled.Entries)

	res.watermark, err = e.commitPull(ctx, since, pulled.Entries, pulled.ServerTime)
	return res, err
}

// pendingEntries returns the stored entries named by the queue. Queue items
// whose entry is not stored are dropped.
func (e *Engine) pendingEntries(ctx context.Context) ([]models.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.store.LoadQueue(ctx)
	if err != nil || len(items) == 0 {
		return nil, err
	}

	entries, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]models.Entry, 0, len(items))
	var orphans []string
	for _, it := range items {
		if en, ok := models.FindByID(entries, it.EntryID); ok {
			pending = append(pending, en)
			continue
		}
		orphans = append(orphans, it.EntryID)
	}

	if len(orphans) > 0 {
		if err := e.store.DropQueued(ctx, orphans); err != nil {
			return nil, err
		}
		e.log.Warn(ctx, "dropped queue items without a local entry", "count", len(orphans))
	}
	return pending, nil
}

func (e *Engine) markFailed(ctx context.Context, pushed []models.Entry, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, len(pushed))
	for i, p := range pushed {
		ids[i] = p.ID
	}
	if err := e.store.MarkFailed(context.WithoutCancel(ctx), ids, cause.Error()); err != nil {
		e.log.Error(ctx, "failed to record push failure", "error", err)
	}
}

func (e *Engine) dequeue(ctx context.Context, pushed []models.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Dequeue(ctx, pushed)
}

// commitPull merges pulled entries into the stored set and persists the
// result with the advanced watermark. It returns the watermark in effect.
func (e *Engine) commitPull(ctx context.Context, since int64, pulled []models.Entry, serverTime int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	local, err := e.store.LoadAll(ctx)
	if err != nil {
		return since, err
	}

	merged, wins := merge.Result(local, pulled)
	watermark := max(since, serverTime)

	if err := e.store.CommitPull(ctx, merged, wins, watermark); err != nil {
		return since, err
	}

	e.stateMu.Lock()
	e.entries = merged
	e.watermark = max(e.watermark, watermark)
	e.stateMu.Unlock()

	return watermark, nil
}

func (e *Engine) finish(ctx context.Context, started time.Time, res attemptResult, err error) {
	elapsed := e.clock.Now().Sub(started)
	e.refreshPending(ctx)

	e.stateMu.Lock()
	e.stats.Attempts++
	e.stats.LastAttemptAt = started
	e.stats.LastDuration = elapsed
	e.stats.LastPushed = res.pushed
	e.stats.LastPulled = res.pulled
	if err != nil {
		e.stats.Failures++
		e.state = StateError
		e.lastError = err.Error()
	} else {
		e.state = StateIdle
		e.lastError = ""
	}
	pending := e.pending
	e.stateMu.Unlock()

	if err != nil {
		e.log.Warn(ctx, "sync failed", "error", err, "pending", pending, "duration", elapsed)
		return
	}
	e.log.Info(ctx, "sync finished",
		"pushed", res.pushed, "pulled", res.pulled, "pending", pending,
		"watermark", res.watermark, "duration", elapsed)
}

// ErrorSummary formats a failed attempt for display.
func ErrorSummary(st Status) string {
	if st.State != StateError {
		return ""
	}
	return fmt.Sprintf("last sync failed: %s", st.LastError)
}
