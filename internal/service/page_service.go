package service

import (
	"context"
	"slices"
	"strings"

	"clio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Page Service: pages and their placement in the folder tree
// ─────────────────────────────────────────────────────────────

type PageService struct {
	g *Graph
}

func NewPageService(g *Graph) *PageService {
	return &PageService{g: g}
}

// CreatePage adds a page to folderID ("" for the workspace root). When
// workspaceID is empty the folder's workspace is used. A blank title
// becomes "Untitled".
func (s *PageService) CreatePage(ctx context.Context, workspaceID, folderID, title string) (*domain.Page, error) {
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	if folderID != "" {
		f, ok := s.g.folders[folderID]
		if !ok {
			return nil, notFound(domain.KindFolder, folderID)
		}
		if workspaceID == "" {
			workspaceID = f.WorkspaceID
		} else if f.WorkspaceID != workspaceID {
			return nil, domain.NewValidationError("folderId", errCrossWorkspace)
		}
	}
	if workspaceID != "" {
		if _, ok := s.g.workspaces[workspaceID]; !ok {
			return nil, notFound(domain.KindWorkspace, workspaceID)
		}
	}

	now := s.g.now()
	p := &domain.Page{
		ID:          newID(),
		Title:       title,
		WorkspaceID: workspaceID,
		FolderID:    folderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.g.pages[p.ID] = p
	s.g.gateway.Insert(p)
	if err := s.g.commit(ctx, "create page"); err != nil {
		return nil, err
	}

	s.g.logger.Info("page created", "id", p.ID, "workspace", workspaceID, "folder", folderID)
	s.g.emitter.Emit(ctx, EventPageChanged, p.ID)
	return p.Clone(), nil
}

// ── Reads ──────────────────────────────────────────────────

// ListPages returns the workspace's unfiled pages, most recently updated first.
func (s *PageService) ListPages(workspaceID string) []domain.Page {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()
	return s.collect(func(p *domain.Page) bool {
		return p.WorkspaceID == workspaceID && p.FolderID == ""
	})
}

// ListPagesInFolder returns the pages filed directly in folderID, most
// recently updated first.
func (s *PageService) ListPagesInFolder(folderID string) ([]domain.Page, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	if _, ok := s.g.folders[folderID]; !ok {
		return nil, notFound(domain.KindFolder, folderID)
	}
	return s.collect(func(p *domain.Page) bool { return p.FolderID == folderID }), nil
}

// ListAllPages returns every page across workspaces, most recently updated first.
func (s *PageService) ListAllPages() []domain.Page {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()
	return s.collect(func(*domain.Page) bool { return true })
}

func (s *PageService) collect(keep func(*domain.Page) bool) []domain.Page {
	var out []domain.Page
	for _, p := range s.g.pages {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sortPages(out)
	return out
}

func (s *PageService) GetPage(id string) (*domain.Page, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	p, ok := s.g.pages[id]
	if !ok {
		return nil, notFound(domain.KindPage, id)
	}
	return p.Clone(), nil
}

// GetPageState returns the page with its blocks in order.
func (s *PageService) GetPageState(id string) (*domain.PageState, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	p, ok := s.g.pages[id]
	if !ok {
		return nil, notFound(domain.KindPage, id)
	}
	state := &domain.PageState{Page: *p, Blocks: []domain.Block{}}
	for _, b := range s.g.sortedBlocks(id) {
		state.Blocks = append(state.Blocks, *b.Clone())
	}
	return state, nil
}

// ── Mutations ──────────────────────────────────────────────

func (s *PageService) RenamePage(ctx context.Context, id, title string) error {
	title, err := validTitle(title)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "rename page", id, func(p *domain.Page) error {
		p.Title = title
		return nil
	})
}

// TouchPage refreshes the page's UpdatedAt.
func (s *PageService) TouchPage(ctx context.Context, id string) error {
	return s.mutate(ctx, "touch page", id, func(*domain.Page) error { return nil })
}

// MovePage re-files a page into folderID, or to its workspace root when
// folderID is "". The folder must belong to the page's workspace.
func (s *PageService) MovePage(ctx context.Context, id, folderID string) error {
	return s.mutate(ctx, "move page", id, func(p *domain.Page) error {
		if folderID != "" {
			f, ok := s.g.folders[folderID]
			if !ok {
				return notFound(domain.KindFolder, folderID)
			}
			if f.WorkspaceID != p.WorkspaceID {
				return domain.NewValidationError("folderId", errCrossWorkspace)
			}
		}
		p.FolderID = folderID
		return nil
	})
}

// mutate runs fn on the page under the write lock, touches it and commits.
// fn must validate before changing anything.
func (s *PageService) mutate(ctx context.Context, op, id string, fn func(*domain.Page) error) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	p, ok := s.g.pages[id]
	if !ok {
		return notFound(domain.KindPage, id)
	}
	if err := fn(p); err != nil {
		return err
	}
	s.g.touchPage(p)
	if err := s.g.commit(ctx, op); err != nil {
		return err
	}
	s.g.emitter.Emit(ctx, EventPageChanged, p.ID)
	return nil
}

// DeletePage removes the page and its blocks.
func (s *PageService) DeletePage(ctx context.Context, id string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	p, ok := s.g.pages[id]
	if !ok {
		return notFound(domain.KindPage, id)
	}
	blocks := s.g.deletePageLocked(p)
	if err := s.g.commit(ctx, "delete page"); err != nil {
		return err
	}

	s.g.logger.Info("page deleted", "id", id, "blocks", blocks)
	s.g.emitter.Emit(ctx, EventPageChanged, id)
	return nil
}

func sortPages(pages []domain.Page) {
	slices.SortFunc(pages, func(a, b domain.Page) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
