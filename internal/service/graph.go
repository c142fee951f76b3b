package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"clio/internal/domain"
	"clio/internal/ordering"
)

// ─────────────────────────────────────────────────────────────
// Graph: in-memory workspace/folder/page/block graph
// ─────────────────────────────────────────────────────────────

// Graph holds every entity in memory and is shared by the four store
// services. One RWMutex guards it: mutating calls hold the write lock
// through their gateway commit, reads take the read lock.
//
// A failed commit leaves the in-memory mutation in place; call Reload to
// resynchronize with durable state.
type Graph struct {
	mu sync.RWMutex

	gateway domain.Gateway
	logger  *slog.Logger
	emitter EventEmitter
	now     func() time.Time

	workspaces map[string]*domain.Workspace
	folders    map[string]*domain.Folder
	pages      map[string]*domain.Page
	blocks     map[string]*domain.Block
	pageBlocks map[string][]*domain.Block // page ID -> blocks, unordered
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) { g.logger = l }
}

// WithEmitter sets the change-event sink. Emit is called with the write
// lock held and must not call back into the services.
func WithEmitter(e EventEmitter) GraphOption {
	return func(g *Graph) { g.emitter = e }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) GraphOption {
	return func(g *Graph) { g.now = now }
}

// NewGraph returns an empty graph persisting through gw.
func NewGraph(gw domain.Gateway, opts ...GraphOption) *Graph {
	g := &Graph{
		gateway: gw,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		emitter: NopEmitter{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.workspaces = make(map[string]*domain.Workspace)
	g.folders = make(map[string]*domain.Folder)
	g.pages = make(map[string]*domain.Page)
	g.blocks = make(map[string]*domain.Block)
	g.pageBlocks = make(map[string][]*domain.Block)
}

// Load replaces the in-memory state with the gateway's snapshot. The write
// lock is held from the read through the swap, so no commit can land
// between them and be dropped.
func (g *Graph) Load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap, err := g.gateway.Load(ctx)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	g.reset()
	for i := range snap.Workspaces {
		w := snap.Workspaces[i]
		g.workspaces[w.ID] = &w
	}
	for i := range snap.Folders {
		f := snap.Folders[i]
		g.folders[f.ID] = &f
	}
	for i := range snap.Pages {
		p := snap.Pages[i]
		g.pages[p.ID] = &p
	}
	for i := range snap.Blocks {
		b := snap.Blocks[i]
		g.addBlock(&b)
	}

	g.logger.Debug("graph loaded",
		"workspaces", len(g.workspaces),
		"folders", len(g.folders),
		"pages", len(g.pages),
		"blocks", len(g.blocks),
	)
	return nil
}

// Reload is Load followed by a "graph:reloaded" event.
func (g *Graph) Reload(ctx context.Context) error {
	if err := g.Load(ctx); err != nil {
		return err
	}
	g.logger.Info("graph reloaded")
	g.emitter.Emit(ctx, EventGraphReloaded, nil)
	return nil
}

// commit flushes the gateway. Callers hold the write lock.
func (g *Graph) commit(ctx context.Context, op string) error {
	if err := g.gateway.Commit(ctx); err != nil {
		g.logger.Error("commit failed", "op", op, "error", err)
		return &domain.CommitError{Op: op, Err: err}
	}
	return nil
}

// ── Block index ────────────────────────────────────────────

func (g *Graph) addBlock(b *domain.Block) {
	g.blocks[b.ID] = b
	g.pageBlocks[b.PageID] = append(g.pageBlocks[b.PageID], b)
}

func (g *Graph) removeBlock(b *domain.Block) {
	delete(g.blocks, b.ID)
	siblings := g.pageBlocks[b.PageID]
	for i, s := range siblings {
		if s == b {
			siblings = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(g.pageBlocks, b.PageID)
		return
	}
	g.pageBlocks[b.PageID] = siblings
}

func (g *Graph) setPageBlocks(pageID string, blocks []*domain.Block) {
	if len(blocks) == 0 {
		delete(g.pageBlocks, pageID)
		return
	}
	g.pageBlocks[pageID] = blocks
}

// sortedBlocks returns the page's blocks by ascending order.
func (g *Graph) sortedBlocks(pageID string) []*domain.Block {
	return ordering.Sorted(g.pageBlocks[pageID])
}

// touchPage refreshes the page's UpdatedAt and records the update.
func (g *Graph) touchPage(p *domain.Page) {
	p.Touch(g.now())
	g.gateway.Update(p)
}

// ── Cascade helpers ────────────────────────────────────────

// deletePageLocked removes a page and its blocks and records the deletes.
func (g *Graph) deletePageLocked(p *domain.Page) int {
	blocks := g.pageBlocks[p.ID]
	for _, b := range blocks {
		delete(g.blocks, b.ID)
		g.gateway.Delete(b)
	}
	delete(g.pageBlocks, p.ID)
	delete(g.pages, p.ID)
	g.gateway.Delete(p)
	return len(blocks)
}

// deleteFolderLocked removes a folder, its subfolders and every page filed
// in any of them. Children go before their parent.
func (g *Graph) deleteFolderLocked(f *domain.Folder) (folders, pages int) {
	for _, child := range g.childFolders(f.ID) {
		cf, cp := g.deleteFolderLocked(child)
		folders += cf
		pages += cp
	}
	for _, p := range g.pages {
		if p.FolderID == f.ID {
			g.deletePageLocked(p)
			pages++
		}
	}
	delete(g.folders, f.ID)
	g.gateway.Delete(f)
	return folders + 1, pages
}

func (g *Graph) childFolders(parentID string) []*domain.Folder {
	var out []*domain.Folder
	for _, f := range g.folders {
		if f.ParentID == parentID && parentID != "" {
			out = append(out, f)
		}
	}
	return out
}

// isDescendant reports whether candidate is folderID or lies beneath it.
func (g *Graph) isDescendant(candidate, folderID string) bool {
	seen := make(map[string]bool)
	for id := candidate; id != ""; {
		if id == folderID {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		f, ok := g.folders[id]
		if !ok {
			return false
		}
		id = f.ParentID
	}
	return false
}
