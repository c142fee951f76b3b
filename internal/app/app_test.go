package app

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"clio/internal/config"
	"clio/internal/domain"
	"clio/internal/secret"
	"clio/internal/service"
	"clio/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Database.Path = filepath.Join(cfg.DataDir, "clio.db")
	cfg.Sweep.Schedule = "@every 1h"
	cfg.Watch.Debounce = 10 * time.Millisecond
	return cfg
}

func startApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	a := New(cfg, opts...)
	require.NoError(t, a.Startup(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		a.Shutdown(ctx)
	})
	return a
}

func TestApp_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Watch.Enabled = false

	a := New(cfg)
	require.NoError(t, a.Startup(ctx))
	ws, err := a.Workspaces.CreateWorkspace(ctx, "Home")
	require.NoError(t, err)
	page, err := a.Pages.CreatePage(ctx, ws.ID, "", "Groceries")
	require.NoError(t, err)
	_, err = a.Blocks.CreateBlock(ctx, page.ID, domain.BlockTypeTodoList, "milk", nil)
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(ctx))

	b := startApp(t, cfg)
	state, err := b.Pages.GetPageState(page.ID)
	require.NoError(t, err)
	require.Equal(t, "Groceries", state.Page.Title)
	require.Len(t, state.Blocks, 1)
	require.Equal(t, "milk", state.Blocks[0].Content)
}

func TestApp_StartupRepairsBlockOrder(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Watch.Enabled = false

	db, err := storage.New(cfg.Database.Path)
	require.NoError(t, err)
	gw := storage.NewSQLGateway(db)
	now := time.Now()
	gw.Insert(&domain.Workspace{ID: "w", Name: "W", CreatedAt: now})
	gw.Insert(&domain.Page{ID: "p", Title: "P", WorkspaceID: "w", CreatedAt: now, UpdatedAt: now})
	gw.Insert(&domain.Block{ID: "a", PageID: "p", Type: domain.BlockTypeText, Order: 4, CreatedAt: now})
	gw.Insert(&domain.Block{ID: "b", PageID: "p", Type: domain.BlockTypeText, Order: 9, CreatedAt: now})
	require.NoError(t, gw.Commit(ctx))
	require.NoError(t, db.Close())

	a := startApp(t, cfg)
	blocks, err := a.Blocks.ListBlocks("p")
	require.NoError(t, err)
	require.Equal(t, 0, blocks[0].Order)
	require.Equal(t, 1, blocks[1].Order)
	require.Equal(t, "a", blocks[0].ID)
}

func TestApp_MissingPasswordSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = config.DriverPostgres
	cfg.Database.DSN = "postgres://clio@localhost/clio"
	cfg.Database.PasswordKey = "clio-test-absent"

	a := New(cfg, WithSecrets(secret.NewEnvStore()))
	err := a.Startup(context.Background())
	require.ErrorIs(t, err, secret.ErrNoSecret)
}

func TestDBWatcher_ReloadsExternalWrites(t *testing.T) {
	cfg := testConfig(t)
	emitter := &service.MockEmitter{}
	a := startApp(t, cfg, WithEmitter(emitter))
	require.NotNil(t, a.watcher)

	other, err := storage.New(cfg.Database.Path)
	require.NoError(t, err)
	defer other.Close()
	ext := storage.NewSQLGateway(other)
	ext.Insert(&domain.Workspace{ID: "ext", Name: "From elsewhere", CreatedAt: time.Now()})
	require.NoError(t, ext.Commit(context.Background()))

	require.Eventually(t, func() bool {
		_, err := a.Workspaces.GetWorkspace("ext")
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
	require.True(t, slices.Contains(emitter.Names(), service.EventGraphReloaded))
}

func TestDBWatcher_IgnoresOwnWrites(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	a := startApp(t, cfg)

	_, err := a.Workspaces.CreateWorkspace(ctx, "Mine")
	require.NoError(t, err)

	reloaded, err := a.watcher.check(ctx)
	require.NoError(t, err)
	require.False(t, reloaded)
}

func TestWithPassword(t *testing.T) {
	cases := []struct {
		driver, dsn, want string
	}{
		{config.DriverPostgres, "postgres://clio@db:5432/clio?sslmode=disable", "postgres://clio:p%40ss@db:5432/clio?sslmode=disable"},
		{config.DriverPostgres, "host=db user=clio", `host=db user=clio password='p@ss'`},
		{config.DriverMongo, "mongodb://clio@db:27017", "mongodb://clio:p%40ss@db:27017"},
	}
	for _, c := range cases {
		got, err := withPassword(c.driver, c.dsn, "p@ss")
		require.NoError(t, err, c.dsn)
		require.Equal(t, c.want, got)
	}

	got, err := withPassword(config.DriverMySQL, "clio@tcp(db:3306)/clio?parseTime=true", "p@ss")
	require.NoError(t, err)
	parsed, err := mysql.ParseDSN(got)
	require.NoError(t, err)
	require.Equal(t, "clio", parsed.User)
	require.Equal(t, "p@ss", parsed.Passwd)
	require.Equal(t, "db:3306", parsed.Addr)
	require.True(t, parsed.ParseTime)

	got, err = withPassword(config.DriverMySQL, "clio@tcp(db)/clio", "")
	require.NoError(t, err)
	require.Equal(t, "clio@tcp(db)/clio", got)

	_, err = withPassword(config.DriverMongo, "mongodb://db:27017", "x")
	require.Error(t, err)
}
