package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"clio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Sweeper: scheduled block-order integrity repair
// ─────────────────────────────────────────────────────────────

const sweepJob = "sweep"

// SweepResult reports what one sweep repaired.
type SweepResult struct {
	Pages  int `json:"pages"`
	Blocks int `json:"blocks"`
}

// Sweeper finds pages whose block orders are not dense (for example after
// another process wrote the same database) and renormalizes them.
type Sweeper struct {
	blocks *BlockService
	logger *slog.Logger
	guard  JobGuard

	mu    sync.Mutex
	sched *cron.Cron
}

func NewSweeper(blocks *BlockService, logger *slog.Logger) *Sweeper {
	return &Sweeper{blocks: blocks, logger: logger}
}

// Sweep runs one pass. It fails with ErrConflict if a pass is already
// running.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	if !s.guard.TryLock(sweepJob) {
		return SweepResult{}, fmt.Errorf("sweep already running: %w", domain.ErrConflict)
	}
	defer s.guard.Unlock(sweepJob)

	var res SweepResult
	for _, pageID := range s.blocks.NonDensePages() {
		n, err := s.blocks.RenormalizePage(ctx, pageID)
		if err != nil {
			// page deleted between listing and repair
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return res, fmt.Errorf("renormalize page %s: %w", pageID, err)
		}
		if n > 0 {
			res.Pages++
			res.Blocks += n
		}
	}
	if res.Pages > 0 {
		s.logger.Warn("sweep repaired block order", "pages", res.Pages, "blocks", res.Blocks)
	} else {
		s.logger.Debug("sweep found nothing to repair")
	}
	return res, nil
}

// Start schedules Sweep on a cron spec (standard five fields or
// descriptors like "@every 10m").
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sched != nil {
		return fmt.Errorf("sweeper already started: %w", domain.ErrConflict)
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	c.Start()
	s.sched = c
	s.logger.Info("sweep scheduled", "spec", spec)
	return nil
}

// Stop cancels the schedule and waits for a running pass until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.sched
	s.sched = nil
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if err := s.guard.Wait(ctx); err != nil {
		s.logger.Warn("sweep still running at shutdown", "error", err)
	}
}
