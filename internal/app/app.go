// Package app wires configuration, storage and the store services into a
// running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"clio/internal/config"
	"clio/internal/domain"
	"clio/internal/secret"
	"clio/internal/service"
	"clio/internal/storage"
)

// App owns the gateway, the in-memory graph and the background jobs.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	secrets secret.SecretStore
	emitter service.EventEmitter

	db      *storage.DB           // SQL backends
	mongo   *storage.MongoGateway // mongo backend
	graph   *service.Graph
	sweeper *service.Sweeper
	watcher *dbWatcher

	Workspaces *service.WorkspaceService
	Folders    *service.FolderService
	Pages      *service.PageService
	Blocks     *service.BlockService
}

type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

func WithSecrets(s secret.SecretStore) Option {
	return func(a *App) { a.secrets = s }
}

func WithEmitter(e service.EventEmitter) Option {
	return func(a *App) { a.emitter = e }
}

// New creates an App. Nothing is opened until Startup.
func New(cfg config.Config, opts ...Option) *App {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.secrets == nil {
		a.secrets = secret.Default()
	}
	if a.emitter == nil {
		a.emitter = service.LogEmitter{Logger: a.logger}
	}
	return a
}

// Startup opens the configured backend, loads the graph, repairs any block
// ordering left broken by another writer and starts the background jobs.
func (a *App) Startup(ctx context.Context) error {
	gw, err := a.openGateway(ctx)
	if err != nil {
		return err
	}

	a.graph = service.NewGraph(gw,
		service.WithLogger(a.logger),
		service.WithEmitter(a.emitter),
	)
	if err := a.graph.Load(ctx); err != nil {
		a.closeBackend(ctx)
		return err
	}

	a.Workspaces = service.NewWorkspaceService(a.graph)
	a.Folders = service.NewFolderService(a.graph)
	a.Pages = service.NewPageService(a.graph)
	a.Blocks = service.NewBlockService(a.graph)
	a.sweeper = service.NewSweeper(a.Blocks, a.logger.With("job", "sweep"))

	if _, err := a.sweeper.Sweep(ctx); err != nil {
		a.logger.Warn("startup sweep failed", "error", err)
	}
	if a.cfg.Sweep.Enabled {
		if err := a.sweeper.Start(ctx, a.cfg.Sweep.Schedule); err != nil {
			a.closeBackend(ctx)
			return fmt.Errorf("start sweeper: %w", err)
		}
	}

	if a.cfg.Watch.Enabled && a.db != nil && a.db.Path() != "" {
		a.watcher = newDBWatcher(a.db, a.graph, a.logger.With("job", "watch"), a.cfg.Watch.Debounce)
		if err := a.watcher.Start(ctx); err != nil {
			// reads still work; external writes just go unnoticed
			a.logger.Warn("external change watcher disabled", "error", err)
			a.watcher = nil
		}
	}

	a.logger.Info("store ready", "driver", a.cfg.Database.Driver)
	return nil
}

// Shutdown stops background jobs and closes the backend.
func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.sweeper != nil {
		a.sweeper.Stop(ctx)
	}
	return a.closeBackend(ctx)
}

// Graph exposes the loaded graph, e.g. to force a Reload after a failed
// commit.
func (a *App) Graph() *service.Graph { return a.graph }

func (a *App) Sweeper() *service.Sweeper { return a.sweeper }

func (a *App) openGateway(ctx context.Context) (domain.Gateway, error) {
	dbc := a.cfg.Database
	if dbc.Driver == config.DriverSQLite {
		db, err := storage.New(dbc.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.db = db
		a.logger.Info("database opened", "driver", dbc.Driver, "path", dbc.Path)
		return storage.NewSQLGateway(db), nil
	}

	dsn := dbc.DSN
	if dbc.PasswordKey != "" {
		pw, err := secret.Require(a.secrets, dbc.PasswordKey)
		if err != nil {
			return nil, fmt.Errorf("database password: %w", err)
		}
		if dsn, err = withPassword(dbc.Driver, dsn, pw); err != nil {
			return nil, err
		}
	}

	if dbc.Driver == config.DriverMongo {
		gw, err := storage.OpenMongo(ctx, dsn, dbc.Name)
		if err != nil {
			return nil, err
		}
		a.mongo = gw
		a.logger.Info("database opened", "driver", dbc.Driver, "dsn", dbc.Redacted(), "db", dbc.Name)
		return gw, nil
	}

	db, err := storage.Open(dbc.Driver, dsn)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.logger.Info("database opened", "driver", dbc.Driver, "dsn", dbc.Redacted())
	return storage.NewSQLGateway(db), nil
}

func (a *App) closeBackend(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Close(ctx))
		a.mongo = nil
	}
	return errors.Join(errs...)
}
