package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"clio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Folder Service: folder tree inside a workspace
// ─────────────────────────────────────────────────────────────

type FolderService struct {
	g *Graph
}

func NewFolderService(g *Graph) *FolderService {
	return &FolderService{g: g}
}

var (
	errCrossWorkspace = errors.New("must belong to the same workspace")
	errFolderCycle    = errors.New("cannot move a folder into itself or one of its subfolders")
)

// CreateFolder adds a folder under parentID ("" for top level). When
// workspaceID is empty the parent's workspace is used.
func (s *FolderService) CreateFolder(ctx context.Context, workspaceID, parentID, name string) (*domain.Folder, error) {
	name, err := validName("name", name)
	if err != nil {
		return nil, err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	if parentID != "" {
		parent, ok := s.g.folders[parentID]
		if !ok {
			return nil, notFound(domain.KindFolder, parentID)
		}
		if workspaceID == "" {
			workspaceID = parent.WorkspaceID
		} else if parent.WorkspaceID != workspaceID {
			return nil, domain.NewValidationError("parentId", errCrossWorkspace)
		}
	}
	if workspaceID != "" {
		if _, ok := s.g.workspaces[workspaceID]; !ok {
			return nil, notFound(domain.KindWorkspace, workspaceID)
		}
	}

	f := &domain.Folder{
		ID:          newID(),
		Name:        name,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		CreatedAt:   s.g.now(),
	}
	s.g.folders[f.ID] = f
	s.g.gateway.Insert(f)
	if err := s.g.commit(ctx, "create folder"); err != nil {
		return nil, err
	}

	s.g.logger.Info("folder created", "id", f.ID, "workspace", workspaceID, "parent", parentID)
	s.g.emitter.Emit(ctx, EventFolderChanged, f.ID)
	return f.Clone(), nil
}

// ListFolders returns the workspace's top-level folders sorted by name.
func (s *FolderService) ListFolders(workspaceID string) []domain.Folder {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	var out []domain.Folder
	for _, f := range s.g.folders {
		if f.WorkspaceID == workspaceID && f.ParentID == "" {
			out = append(out, *f)
		}
	}
	sortFolders(out)
	return out
}

// ListSubfolders returns the direct children of folderID sorted by name.
func (s *FolderService) ListSubfolders(folderID string) ([]domain.Folder, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	if _, ok := s.g.folders[folderID]; !ok {
		return nil, notFound(domain.KindFolder, folderID)
	}
	var out []domain.Folder
	for _, f := range s.g.childFolders(folderID) {
		out = append(out, *f)
	}
	sortFolders(out)
	return out, nil
}

func (s *FolderService) GetFolder(id string) (*domain.Folder, error) {
	s.g.mu.RLock()
	defer s.g.mu.RUnlock()

	f, ok := s.g.folders[id]
	if !ok {
		return nil, notFound(domain.KindFolder, id)
	}
	return f.Clone(), nil
}

func (s *FolderService) RenameFolder(ctx context.Context, id, name string) error {
	name, err := validName("name", name)
	if err != nil {
		return err
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	f, ok := s.g.folders[id]
	if !ok {
		return notFound(domain.KindFolder, id)
	}
	f.Name = name
	s.g.gateway.Update(f)
	if err := s.g.commit(ctx, "rename folder"); err != nil {
		return err
	}
	s.g.emitter.Emit(ctx, EventFolderChanged, f.ID)
	return nil
}

// MoveFolder re-parents a folder; "" moves it to the top level of its
// workspace. The destination must be in the same workspace and must not be
// the folder itself or one of its descendants.
func (s *FolderService) MoveFolder(ctx context.Context, id, newParentID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	f, ok := s.g.folders[id]
	if !ok {
		return notFound(domain.KindFolder, id)
	}
	if newParentID != "" {
		parent, ok := s.g.folders[newParentID]
		if !ok {
			return notFound(domain.KindFolder, newParentID)
		}
		if parent.WorkspaceID != f.WorkspaceID {
			return domain.NewValidationError("parentId", errCrossWorkspace)
		}
		if s.g.isDescendant(newParentID, id) {
			return domain.NewValidationError("parentId", errFolderCycle)
		}
	}
	if f.ParentID == newParentID {
		return nil
	}

	f.ParentID = newParentID
	s.g.gateway.Update(f)
	if err := s.g.commit(ctx, "move folder"); err != nil {
		return err
	}

	s.g.logger.Info("folder moved", "id", id, "parent", newParentID)
	s.g.emitter.Emit(ctx, EventFolderChanged, f.ID)
	return nil
}

// DeleteFolder removes the folder, every folder beneath it and the pages
// (with their blocks) filed in any of them.
func (s *FolderService) DeleteFolder(ctx context.Context, id string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	f, ok := s.g.folders[id]
	if !ok {
		return notFound(domain.KindFolder, id)
	}
	folders, pages := s.g.deleteFolderLocked(f)
	if err := s.g.commit(ctx, "delete folder"); err != nil {
		return err
	}

	s.g.logger.Info("folder deleted", "id", id, "folders", folders, "pages", pages)
	s.g.emitter.Emit(ctx, EventFolderChanged, id)
	return nil
}

func sortFolders(folders []domain.Folder) {
	slices.SortFunc(folders, func(a, b domain.Folder) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
