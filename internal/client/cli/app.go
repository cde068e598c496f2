package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/threeline/internal/client/backup"
	"github.com/dmitrijs2005/threeline/internal/client/config"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/client/services"
	"github.com/dmitrijs2005/threeline/internal/client/store"
	"github.com/dmitrijs2005/threeline/internal/client/syncer"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/filex"
	"github.com/dmitrijs2005/threeline/internal/logging"
)

// App is one CLI invocation: an opened journal and the services over it.
type App struct {
	config *config.Config
	log    logging.Logger
	clock  common.Clock

	store  *store.Store
	engine *syncer.Engine

	entries  services.EntryService
	sessions services.SessionService
	backups  services.BackupService

	in  *bufio.Reader
	out io.Writer
}

// Deps lets tests replace the clock, ids and remote client.
type Deps struct {
	Clock  common.Clock
	IDs    common.IDGenerator
	Remote remote.Client
}

// NewApp opens the local journal described by cfg and bootstraps the sync
// engine. A missing remote configuration is not fatal: the journal works
// offline and sign-in reports the problem.
func NewApp(ctx context.Context, cfg *config.Config, deps Deps, in io.Reader, out, errOut io.Writer) (*App, error) {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, errOut)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = common.RealClock{}
	}
	if deps.IDs == nil {
		deps.IDs = common.UUIDGenerator{}
	}

	rc := deps.Remote
	if rc == nil {
		rc, err = remote.New(cfg.Remote(), deps.Clock)
		if err != nil {
			if !errors.Is(err, remote.ErrNotConfigured) {
				return nil, err
			}
			log.Warn(ctx, "remote sync disabled", "error", err)
			rc = nil
		}
	}

	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("database dir: %w", err)
	}
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	engine := syncer.New(st, rc, syncer.Options{Clock: deps.Clock, Logger: log})
	if err := engine.Bootstrap(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load journal: %w", err)
	}
	engine.Start(ctx)

	// archives are optional; a broken archive config only disables them
	var archive backup.Archive
	if a, err := backup.OpenArchive(ctx, cfg.Archive(), deps.Clock); err == nil {
		archive = a
	} else {
		log.Warn(ctx, "backup archives disabled", "error", err)
	}

	return &App{
		config:   cfg,
		log:      log,
		clock:    deps.Clock,
		store:    st,
		engine:   engine,
		entries:  services.NewEntryService(engine, deps.Clock, deps.IDs, log),
		sessions: services.NewSessionService(rc, engine, log),
		backups:  services.NewBackupService(engine, archive, deps.Clock, log),
		in:       bufio.NewReader(in),
		out:      out,
	}, nil
}

// Close lets a requested background sync finish, then closes the journal.
func (a *App) Close() error {
	a.engine.Stop()
	return a.store.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
