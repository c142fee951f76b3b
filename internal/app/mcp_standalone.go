package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clio/internal/config"
	mcpserver "clio/internal/mcp"
)

// ServeMCP runs the store as a standalone MCP server on stdin/stdout until
// the client disconnects or the process is interrupted.
func ServeMCP(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := config.NewLogger(cfg.LogLevel)
	a := New(cfg, WithLogger(logger))
	if err := a.Startup(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := a.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	srv := mcpserver.New(mcpserver.Deps{
		Logger:          logger.With("component", "mcp"),
		Emitter:         a.emitter,
		Workspaces:      a.Workspaces,
		Folders:         a.Folders,
		Pages:           a.Pages,
		Blocks:          a.Blocks,
		Sweeper:         a.sweeper,
		RequireApproval: cfg.MCP.RequireApproval,
		ApprovalTimeout: cfg.MCP.ApprovalTimeout,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.ServeStdio() }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("interrupted, shutting down")
		return nil
	}
}
