package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Entry, error)
	LoadSession(ctx context.Context) (*models.AuthSession, error)
	SaveSession(ctx context.Context, s *models.AuthSession) error
	LoadWatermark(ctx context.Context) (int64, error)
	LoadGuest(ctx context.Context) (bool, error)
	SaveGuest(ctx context.Context, guest bool) error

	LoadQueue(ctx context.Context) ([]models.SyncQueueItem, error)
	PendingCount(ctx context.Context) (int, error)
	Dequeue(ctx context.Context, pushed []models.Entry) error
	DropQueued(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string, message string) error

	SaveLocal(ctx context.Context, entries []models.Entry) error
	Restore(ctx context.Context, entries []models.Entry) error
	CommitPull(ctx context.Context, merged, remoteWins []models.Entry, watermark int64) error
}

type Options struct {
	Clock  common.Clock
	Logger logging.Logger
}

// ErrNotLoaded is returned by operations that need the local data after
// Bootstrap failed to read it.
var ErrNotLoaded = fmt.Errorf("%w: local data is not loaded", common.ErrStorage)

type Engine struct {
	store  Store
	remote remote.Client
	clock  common.Clock
	log    logging.Logger

	// mu guards store critical sections.
	mu sync.Mutex

	stateMu   sync.RWMutex
	entries   []models.Entry
	state     State
	ready     bool
	loadErr   error
	watermark int64
	pending   int
	lastError string
	session   *models.AuthSession
	guest     bool
	stats     Stats

	flight singleflight.Group

	kick      chan struct{}
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func New(store Store, rc remote.Client, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = common.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Engine{
		store:    store,
		remote:   rc,
		clock:    opts.Clock,
		log:      opts.Logger.With("component", "syncer"),
		state:    StateIdle,
		entries:  []models.Entry{},
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Bootstrap loads the persisted state. A storage failure leaves the engine
// in StateError with the cause recorded, and is returned. With a stored
// session an initial background sync is requested.
func (e *Engine) Bootstrap(ctx context.Context) error {
	var (
		entries   []models.Entry
		sess      *models.AuthSession
		watermark int64
		guest     bool
		pending   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { entries, err = e.store.LoadAll(gctx); return err })
	g.Go(func() (err error) { sess, err = e.store.LoadSession(gctx); return err })
	g.Go(func() (err error) { watermark, err = e.store.LoadWatermark(gctx); return err })
	g.Go(func() (err error) { guest, err = e.store.LoadGuest(gctx); return err })
	g.Go(func() (err error) { pending, err = e.store.PendingCount(gctx); return err })

	if err := g.Wait(); err != nil {
		e.stateMu.Lock()
		e.ready = true
		e.loadErr = err
		e.state = StateError
		e.lastError = fmt.Sprintf("failed to load local data: %v", err)
		e.stateMu.Unlock()

		e.log.Error(ctx, "bootstrap failed", "error", err)
		return err
	}

	if sess != nil && e.remote != nil && sess.Provider != e.remote.Provider() {
		e.log.Warn(ctx, "ignoring session of another provider",
			"session_provider", sess.Provider, "configured_provider", e.remote.Provider())
		sess = nil
	}

	models.SortForDisplay(entries)

	e.stateMu.Lock()
	e.entries = entries
	e.session = sess
	e.watermark = watermark
	e.guest = guest
	e.pending = pending
	e.ready = true
	e.loadErr = nil
	e.state = StateIdle
	e.lastError = ""
	e.stateMu.Unlock()

	e.log.Info(ctx, "bootstrapped", "entries", len(entries), "pending", pending, "signed_in", sess != nil)

	e.Trigger()
	return nil
}

// Entries returns a copy of every cached entry, tombstones included, in
// display order.
func (e *Engine) Entries() []models.Entry {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return models.CloneAll(e.entries)
}

// Session returns the signed-in session or nil.
func (e *Engine) Session() *models.AuthSession {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.session == nil {
		return nil
	}
	s := *e.session
	return &s
}

func (e *Engine) Status() Status {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	st := Status{
		State:        e.state,
		Ready:        e.ready,
		LastSyncedAt: e.watermark,
		PendingCount: e.pending,
		LastError:    e.lastError,
		Guest:        e.guest,
		Stats:        e.stats,
	}
	if e.session != nil {
		s := *e.session
		st.Session = &s
	}
	return st
}

// Mutate runs fn on a snapshot of the entries under the store lock and
// persists what it returns as local changes queued for push. The cache is
// updated only after the write commits. A background sync is requested
// afterwards.
func (e *Engine) Mutate(ctx context.Context, fn func(current []models.Entry) ([]models.Entry, error)) ([]models.Entry, error) {
	if err := e.loaded(); err != nil {
		return nil, err
	}

	changed, err := func() ([]models.Entry, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		changed, err := fn(e.Entries())
		if err != nil || len(changed) == 0 {
			return nil, err
		}
		if err := e.store.SaveLocal(ctx, changed); err != nil {
			return nil, err
		}
		e.applyToCache(changed)
		return changed, nil
	}()
	if err != nil || len(changed) == 0 {
		return nil, err
	}

	e.refreshPending(ctx)
	e.Trigger()
	return models.CloneAll(changed), nil
}

// Restore replaces all entries with list and queues every one for push.
func (e *Engine) Restore(ctx context.Context, list []models.Entry) error {
	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if err := e.store.Restore(ctx, list); err != nil {
			return err
		}
		fresh := models.CloneAll(list)
		models.SortForDisplay(fresh)

		e.stateMu.Lock()
		e.entries = fresh
		e.stateMu.Unlock()
		return nil
	}()
	if err != nil {
		return err
	}

	e.refreshPending(ctx)
	e.Trigger()
	return nil
}

// SignedIn persists and installs a session. It ends guest mode.
func (e *Engine) SignedIn(ctx context.Context, s models.AuthSession) error {
	if err := e.store.SaveSession(ctx, &s); err != nil {
		return err
	}
	e.stateMu.Lock()
	e.session = &s
	e.guest = false
	e.stateMu.Unlock()
	return nil
}

// SignedOut forgets the session. Entries and the queue are kept.
func (e *Engine) SignedOut(ctx context.Context) error {
	if err := e.store.SaveSession(ctx, nil); err != nil {
		return err
	}
	e.stateMu.Lock()
	e.session = nil
	e.stateMu.Unlock()
	return nil
}

// ContinueAsGuest persists the choice to use the journal without signing in.
func (e *Engine) ContinueAsGuest(ctx context.Context) error {
	if err := e.store.SaveGuest(ctx, true); err != nil {
		return err
	}
	e.stateMu.Lock()
	e.guest = true
	e.stateMu.Unlock()
	return nil
}

func (e *Engine) applyToCache(changed []models.Entry) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	index := make(map[string]int, len(e.entries))
	for i, x := range e.entries {
		index[x.ID] = i
	}
	for _, c := range changed {
		if i, ok := index[c.ID]; ok {
			e.entries[i] = c.Clone()
			continue
		}
		index[c.ID] = len(e.entries)
		e.entries = append(e.entries, c.Clone())
	}
	models.SortForDisplay(e.entries)
}

func (e *Engine) refreshPending(ctx context.Context) {
	n, err := e.store.PendingCount(context.WithoutCancel(ctx))
	if err != nil {
		e.log.Warn(ctx, "failed to count pending changes", "error", err)
		return
	}
	e.stateMu.Lock()
	e.pending = n
	e.stateMu.Unlock()
}

func (e *Engine) setSyncing() {
	e.stateMu.Lock()
	e.state = StateSyncing
	e.stateMu.Unlock()
}

// loaded fails while the last Bootstrap could not read the store.
func (e *Engine) loaded() error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.loadErr != nil {
		return fmt.Errorf("%w: %v", ErrNotLoaded, e.loadErr)
	}
	return nil
}

func isBackgroundNoise(err error) bool {
	return errors.Is(err, common.ErrNoSession)
}

// IsGuest reports whether the user chose to continue without signing in.
func (e *Engine) IsGuest() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.guest
}
