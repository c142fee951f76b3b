package storage

import (
	"context"
	"fmt"

	"clio/internal/domain"
)

// ── Workspaces ─────────────────────────────────────────────

var workspaceTable = table{
	name:    "workspaces",
	columns: []string{"name", "created_at"},
}

func workspaceValues(w *domain.Workspace) []any {
	return []any{w.Name, w.CreatedAt}
}

func loadWorkspaces(ctx context.Context, db *DB) ([]domain.Workspace, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, created_at FROM workspaces ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []domain.Workspace
	for rows.Next() {
		var w domain.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// ── Folders ────────────────────────────────────────────────

var folderTable = table{
	name:    "folders",
	columns: []string{"name", "workspace_id", "parent_id", "created_at"},
}

func folderValues(f *domain.Folder) []any {
	return []any{f.Name, f.WorkspaceID, f.ParentID, f.CreatedAt}
}

func loadFolders(ctx context.Context, db *DB) ([]domain.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, workspace_id, parent_id, created_at FROM folders ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.WorkspaceID, &f.ParentID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// ── Pages ──────────────────────────────────────────────────

var pageTable = table{
	name:    "pages",
	columns: []string{"title", "workspace_id", "folder_id", "created_at", "updated_at"},
}

func pageValues(p *domain.Page) []any {
	return []any{p.Title, p.WorkspaceID, p.FolderID, p.CreatedAt, p.UpdatedAt}
}

func loadPages(ctx context.Context, db *DB) ([]domain.Page, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, workspace_id, folder_id, created_at, updated_at FROM pages ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.Title, &p.WorkspaceID, &p.FolderID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
