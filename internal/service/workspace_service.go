package service

import (
	"context"
	"slices"
	"strings"

	"clio/internal/domain"
)

// WorkspaceService creates, renames and deletes workspaces. Deleting a
// workspace removes every folder, page and block that belongs to it.
type WorkspaceService struct {
	g *Graph
}

func NewWorkspaceService(g *Graph) *WorkspaceService {
	return &WorkspaceService{g: g}
}

func (s *WorkspaceService) CreateWorkspace(ctx context.Context, name string) (*domain.Workspace, error) {
	name, err := validName("name", name)
	if err != nil {
		return nil, err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	w := &domain.Workspace{ID: newID(), Name: name, CreatedAt: s.g.now()}
	s.g.workspaces[w.ID] = w
	s.g.gateway.Insert(w)
	if err := s.g.commit(ctx, "create workspace"); err != nil {
		return nil, err
	}

	s.g.logger.Info("workspace created", "id", w.ID, "name", w.Name)
	s.g.emitter.Emit(ctx, EventWorkspaceChanged, w.ID)
	return w.Clone(), nil
}

// ListWorkspaces returns every workspace, oldest first.
func (s *WorkspaceService) ListWorkspaces() []domain.Workspace {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	out := make([]domain.Workspace, 0, len(s.g.workspaces))
	for _, w := range s.g.workspaces {
		out = append(out, *w)
	}
	slices.SortFunc(out, func(a, b domain.Workspace) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *WorkspaceService) GetWorkspace(id string) (*domain.Workspace, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	w, ok := s.g.workspaces[id]
	if !ok {
		return nil, notFound(domain.KindWorkspace, id)
	}
	return w.Clone(), nil
}

func (s *WorkspaceService) RenameWorkspace(ctx context.Context, id, name string) error {
	name, err := validName("name", name)
	if err != nil {
		return err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	w, ok := s.g.workspaces[id]
	if !ok {
		return notFound(domain.KindWorkspace, id)
	}
	w.Name = name
	s.g.gateway.Update(w)
	if err := s.g.commit(ctx, "rename workspace"); err != nil {
		return err
	}
	s.g.emitter.Emit(ctx, EventWorkspaceChanged, w.ID)
	return nil
}

// DeleteWorkspace removes the workspace and cascades to its folders (with
// their subtrees), its pages and their blocks.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, id string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	w, ok := s.g.workspaces[id]
	if !ok {
		return notFound(domain.KindWorkspace, id)
	}

	var folderIDs []string
	for _, f := range s.g.folders {
		if f.WorkspaceID == id {
			folderIDs = append(folderIDs, f.ID)
		}
	}
	folders, pages := 0, 0
	for _, fid := range folderIDs {
		// may already be gone as part of an ancestor's subtree
		if f, ok := s.g.folders[fid]; ok {
			nf, np := s.g.deleteFolderLocked(f)
			folders += nf
			pages += np
		}
	}
	for _, p := range s.g.pages {
		if p.WorkspaceID == id {
			s.g.deletePageLocked(p)
			pages++
		}
	}
	delete(s.g.workspaces, id)
	s.g.gateway.Delete(w)

	if err := s.g.commit(ctx, "delete workspace"); err != nil {
		return err
	}

	s.g.logger.Info("workspace deleted", "id", id, "folders", folders, "pages", pages)
	s.g.emitter.Emit(ctx, EventWorkspaceChanged, id)
	return nil
}
