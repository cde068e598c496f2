// Package server wires the reference sync server: storage backend,
// services, identity verifiers and the HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/logging"
	"github.com/dmitrijs2005/threeline/internal/server/auth"
	"github.com/dmitrijs2005/threeline/internal/server/config"
	"github.com/dmitrijs2005/threeline/internal/server/httpapi"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/threeline/internal/server/services"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	repos        repomanager.RepositoryManager
	userService  *services.UserService
	entryService *services.EntryService
}

// NewApp opens storage, runs migrations and builds the services. Logs go
// to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, out)
	if err != nil {
		return nil, err
	}

	clock := common.RealClock{}

	repos, err := openRepositories(ctx, c, clock, logger)
	if err != nil {
		return nil, err
	}

	verifiers, err := loadVerifiers(c, clock)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	for name := range verifiers {
		logger.Info(ctx, "identity provider enabled", "provider", name)
	}

	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the development secret key; set secret_key before exposing the server")
	}

	us := services.NewUserService(repos, c, verifiers, clock, common.UUIDGenerator{}, logger.With("module", "users"))
	es := services.NewEntryService(repos, clock, logger.With("module", "entries"))

	return &App{config: c, logger: logger, repos: repos, userService: us, entryService: es}, nil
}

func openRepositories(ctx context.Context, c *config.Config, clock common.Clock, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database_dsn configured, data is kept in memory")
		return repomanager.NewMemoryRepositoryManager(clock), nil
	}

	pg, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := pg.RunMigrations(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return pg, nil
}

func loadVerifiers(c *config.Config, clock common.Clock) (map[string]services.IdentityVerifier, error) {
	verifiers := map[string]services.IdentityVerifier{}
	providers := []struct {
		name    string
		cfg     config.IdentityProviderConfig
		issuers []string
	}{
		{models.ProviderApple, c.Apple, auth.AppleIssuers},
		{models.ProviderGoogle, c.Google, auth.GoogleIssuers},
	}
	for _, p := range providers {
		if !p.cfg.Enabled() {
			continue
		}
		v, err := auth.LoadIDTokenVerifier(p.cfg.PublicKeyPath, p.issuers, p.cfg.Audience, clock)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		verifiers[p.name] = v
	}
	return verifiers, nil
}

// Run serves HTTP until ctx is cancelled, then releases storage.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	s := httpapi.NewHTTPServer(app.config.ListenAddr, app.logger, app.userService, app.entryService,
		app.config.ShutdownTimeout.Duration)

	err := s.Run(ctx)
	if cerr := app.repos.Close(); cerr != nil && err == nil {
		err = cerr
	}
	app.logger.Info(ctx, "Stopped")
	return err
}
