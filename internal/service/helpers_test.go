package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clio/internal/domain"
	"clio/internal/service"
)

// memGateway records gateway calls and keeps committed entities in memory.
type memGateway struct {
	mu      sync.Mutex
	pending []memOp
	commits int
	failing error

	rows map[string]domain.Entity // kind/id -> last committed value
	log  []string                 // every committed op, "insert:block:<id>"
}

type memOp struct {
	op     string
	entity domain.Entity
}

func newMemGateway() *memGateway {
	return &memGateway{rows: make(map[string]domain.Entity)}
}

func (m *memGateway) record(op string, e domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, memOp{op: op, entity: clone(e)})
}

func (m *memGateway) Insert(e domain.Entity) { m.record("insert", e) }

func (m *memGateway) Update(e domain.Entity) { m.record("update", e) }

func (m *memGateway) Delete(e domain.Entity) { m.record("delete", e) }

func (m *memGateway) Commit(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := m.pending
	m.pending = nil
	if m.failing != nil {
		return m.failing
	}
	m.commits++
	for _, o := range ops {
		key := string(o.entity.Kind()) + "/" + o.entity.EntityID()
		if o.op == "delete" {
			delete(m.rows, key)
		} else {
			m.rows[key] = o.entity
		}
		m.log = append(m.log, o.op+":"+string(o.entity.Kind())+":"+o.entity.EntityID())
	}
	return nil
}

func (m *memGateway) Load(context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var snap domain.Snapshot
	for _, e := range m.rows {
		switch v := e.(type) {
		case *domain.Workspace:
			snap.Workspaces = append(snap.Workspaces, *v)
		case *domain.Folder:
			snap.Folders = append(snap.Folders, *v)
		case *domain.Page:
			snap.Pages = append(snap.Pages, *v)
		case *domain.Block:
			snap.Blocks = append(snap.Blocks, *v.Clone())
		}
	}
	return &snap, nil
}

func (m *memGateway) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func (m *memGateway) Fail(err error) {
	m.mu.Lock()
	m.failing = err
	m.mu.Unlock()
}

func (m *memGateway) Log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

func (m *memGateway) ResetLog() {
	m.mu.Lock()
	m.log = nil
	m.mu.Unlock()
}

func clone(e domain.Entity) domain.Entity {
	switch v := e.(type) {
	case *domain.Workspace:
		return v.Clone()
	case *domain.Folder:
		return v.Clone()
	case *domain.Page:
		return v.Clone()
	case *domain.Block:
		return v.Clone()
	}
	return e
}

var errDiskFull = errors.New("disk full")

// stepClock advances one second per reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type stores struct {
	gw         *memGateway
	graph      *service.Graph
	emitter    *service.MockEmitter
	workspaces *service.WorkspaceService
	folders    *service.FolderService
	pages      *service.PageService
	blocks     *service.BlockService
}

func newStores(t *testing.T) *stores {
	t.Helper()
	return newStoresWith(t, newMemGateway())
}

func newStoresWith(t *testing.T, gw *memGateway) *stores {
	t.Helper()
	em := &service.MockEmitter{}
	clk := &stepClock{t: time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)}
	g := service.NewGraph(gw, service.WithEmitter(em), service.WithClock(clk.Now))
	return &stores{
		gw:         gw,
		graph:      g,
		emitter:    em,
		workspaces: service.NewWorkspaceService(g),
		folders:    service.NewFolderService(g),
		pages:      service.NewPageService(g),
		blocks:     service.NewBlockService(g),
	}
}

func intPtr(v int) *int { return &v }

// orders maps block content to order for a page.
func (s *stores) orders(t *testing.T, pageID string) map[string]int {
	t.Helper()
	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	m := make(map[string]int, len(blocks))
	for _, b := range blocks {
		m[b.Content] = b.Order
	}
	return m
}

// page creates a page with one text block per content string.
func (s *stores) page(t *testing.T, contents ...string) (*domain.Page, []*domain.Block) {
	t.Helper()
	ctx := context.Background()
	p, err := s.pages.CreatePage(ctx, "", "", "Scratch")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	var blocks []*domain.Block
	for _, c := range contents {
		b, err := s.blocks.CreateBlock(ctx, p.ID, domain.BlockTypeText, c, nil)
		if err != nil {
			t.Fatalf("create block %q: %v", c, err)
		}
		blocks = append(blocks, b)
	}
	return p, blocks
}
