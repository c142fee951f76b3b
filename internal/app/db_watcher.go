package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clio/internal/service"
	"clio/internal/storage"
)

// dbWatcher reloads the graph when another process commits to the SQLite
// file. File events only wake it up; PRAGMA data_version decides whether
// the commit was external.
type dbWatcher struct {
	db       *storage.DB
	graph    *service.Graph
	logger   *slog.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	guard service.JobGuard
	last  int64 // data_version at the last reload; owned by the reload job
}

const reloadJob = "reload"

func newDBWatcher(db *storage.DB, graph *service.Graph, logger *slog.Logger, debounce time.Duration) *dbWatcher {
	return &dbWatcher{db: db, graph: graph, logger: logger, debounce: debounce}
}

// Start records the current data version and watches the database
// directory until Stop or ctx is done.
func (w *dbWatcher) Start(ctx context.Context) error {
	v, err := w.db.DataVersion(ctx)
	if err != nil {
		return err
	}
	w.last = v

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// the directory, not the file: SQLite writes land in the -wal sibling
	if err := fsw.Add(filepath.Dir(w.db.Path())); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.db.Path()), err)
	}
	w.fsw = fsw
	w.done = make(chan struct{})

	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Debug("watching database", "path", w.db.Path())
	return nil
}

func (w *dbWatcher) Stop() {
	if w.fsw == nil {
		return
	}
	close(w.done)
	w.fsw.Close()
	w.wg.Wait()
	w.fsw = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.guard.Wait(ctx); err != nil {
		w.logger.Warn("reload still running at shutdown", "error", err)
	}
}

func (w *dbWatcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			if _, err := w.check(ctx); err != nil {
				w.logger.Error("reload after external change failed", "error", err)
			}

		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// relevant keeps writes to the database file and its WAL. The -shm file
// changes on every read and is ignored.
func (w *dbWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	base := filepath.Base(w.db.Path())
	name := filepath.Base(ev.Name)
	return name == base || name == base+"-wal"
}

// check reloads the graph if data_version moved since the last check and
// reports whether it did. A check that finds a reload in flight is skipped.
func (w *dbWatcher) check(ctx context.Context) (reloaded bool, err error) {
	w.guard.Run(reloadJob, func() {
		var v int64
		if v, err = w.db.DataVersion(ctx); err != nil || v == w.last {
			return
		}
		if err = w.graph.Reload(ctx); err != nil {
			return
		}
		w.last = v
		reloaded = true
		w.logger.Info("external change picked up", "data_version", v)
	})
	return reloaded, err
}
