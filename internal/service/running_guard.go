package service

import (
	"context"
	"sync"
	"time"
)

// JobGuard keeps background jobs (sweep, reload) from overlapping with
// themselves and lets shutdown wait for the runs in flight. The zero value
// is ready to use.
type JobGuard struct {
	mu     sync.Mutex
	active map[string]time.Time // job -> start of the current run
	wg     sync.WaitGroup
}

// TryLock claims name. It reports false when a run of name is already
// active.
func (g *JobGuard) TryLock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]time.Time)
	}
	if _, busy := g.active[name]; busy {
		return false
	}
	g.active[name] = time.Now()
	g.wg.Add(1)
	return true
}

// Unlock releases a claim taken by a successful TryLock.
func (g *JobGuard) Unlock(name string) {
	g.mu.Lock()
	delete(g.active, name)
	g.mu.Unlock()
	g.wg.Done()
}

// Run calls fn under the claim for name, or skips it and returns false
// when another run holds the claim.
func (g *JobGuard) Run(name string, fn func()) bool {
	if !g.TryLock(name) {
		return false
	}
	defer g.Unlock(name)
	fn()
	return true
}

// Since reports when the active run of name started.
func (g *JobGuard) Since(name string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	start, ok := g.active[name]
	return start, ok
}

// Wait blocks until no job is active. It returns ctx.Err() if ctx ends
// first; the goroutine waiting on the jobs then lingers until the last one
// finishes, so callers give up waiting without abandoning the jobs.
func (g *JobGuard) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
