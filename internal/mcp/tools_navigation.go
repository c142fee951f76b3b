package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerWorkspaceTools() {
	// ── list_workspaces ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List all workspaces, oldest first"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListWorkspaces)

	// ── create_workspace ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_workspace",
		mcp.WithDescription("Create a new workspace"),
		mcp.WithString("name", mcp.Description("Workspace name"), mcp.Required()),
	), s.handleCreateWorkspace)

	// ── rename_workspace ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_workspace",
		mcp.WithDescription("Rename a workspace"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameWorkspace)

	// ── delete_workspace (destructive) ─────────────────
	s.mcp.AddTool(mcp.NewTool("delete_workspace",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a workspace with all its folders, pages and blocks."),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteWorkspace)
}

func (s *Server) registerFolderTools() {
	// ── list_folders ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List folders sorted by name: the top-level folders of a workspace, or the subfolders of parentId"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (ignored when parentId is set)")),
		mcp.WithString("parentId", mcp.Description("Parent folder ID (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListFolders)

	// ── create_folder ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder at the top of a workspace or inside a parent folder"),
		mcp.WithString("name", mcp.Description("Folder name"), mcp.Required()),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional when parentId is set)")),
		mcp.WithString("parentId", mcp.Description("Parent folder ID (optional)")),
	), s.handleCreateFolder)

	// ── rename_folder ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_folder",
		mcp.WithDescription("Rename a folder"),
		mcp.WithString("folderId", mcp.Description("Folder ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameFolder)

	// ── move_folder ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_folder",
		mcp.WithDescription("Move a folder under another folder of the same workspace, or to the top level when parentId is empty"),
		mcp.WithString("folderId", mcp.Description("Folder ID"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("New parent folder ID (empty for top level)")),
	), s.handleMoveFolder)

	// ── delete_folder (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_folder",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a folder with its subfolders, pages and blocks."),
		mcp.WithString("folderId", mcp.Description("Folder ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteFolder)
}

// ── Workspace handlers ─────────────────────────────────────

func (s *Server) handleListWorkspaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.workspaces.ListWorkspaces())
}

func (s *Server) handleCreateWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspaces.CreateWorkspace(ctx, req.GetString("name", ""))
	if err != nil {
		return toolError("create workspace", err)
	}
	return jsonResult(ws)
}

func (s *Server) handleRenameWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("workspaceId", "")
	if err := s.workspaces.RenameWorkspace(ctx, id, req.GetString("name", "")); err != nil {
		return toolError("rename workspace", err)
	}
	return textResult(fmt.Sprintf("Workspace %s renamed", id)), nil
}

func (s *Server) handleDeleteWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.workspaces.GetWorkspace(req.GetString("workspaceId", ""))
	if err != nil {
		return toolError("delete workspace", err)
	}
	if res, ok := s.confirm(ctx, "delete_workspace", fmt.Sprintf("Delete workspace %q and everything in it", ws.Name)); !ok {
		return res, nil
	}
	if err := s.workspaces.DeleteWorkspace(ctx, ws.ID); err != nil {
		return toolError("delete workspace", err)
	}
	return textResult(fmt.Sprintf("Workspace %s deleted", ws.ID)), nil
}

// ── Folder handlers ────────────────────────────────────────

func (s *Server) handleListFolders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if parentID := req.GetString("parentId", ""); parentID != "" {
		folders, err := s.folders.ListSubfolders(parentID)
		if err != nil {
			return toolError("list folders", err)
		}
		return jsonResult(folders)
	}
	return jsonResult(s.folders.ListFolders(req.GetString("workspaceId", "")))
}

func (s *Server) handleCreateFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := s.folders.CreateFolder(ctx,
		req.GetString("workspaceId", ""),
		req.GetString("parentId", ""),
		req.GetString("name", ""),
	)
	if err != nil {
		return toolError("create folder", err)
	}
	return jsonResult(f)
}

func (s *Server) handleRenameFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("folderId", "")
	if err := s.folders.RenameFolder(ctx, id, req.GetString("name", "")); err != nil {
		return toolError("rename folder", err)
	}
	return textResult(fmt.Sprintf("Folder %s renamed", id)), nil
}

func (s *Server) handleMoveFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("folderId", "")
	parentID := req.GetString("parentId", "")
	if err := s.folders.MoveFolder(ctx, id, parentID); err != nil {
		return toolError("move folder", err)
	}
	if parentID == "" {
		return textResult(fmt.Sprintf("Folder %s moved to the top level", id)), nil
	}
	return textResult(fmt.Sprintf("Folder %s moved under %s", id, parentID)), nil
}

func (s *Server) handleDeleteFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := s.folders.GetFolder(req.GetString("folderId", ""))
	if err != nil {
		return toolError("delete folder", err)
	}
	if res, ok := s.confirm(ctx, "delete_folder", fmt.Sprintf("Delete folder %q with its subfolders and pages", f.Name)); !ok {
		return res, nil
	}
	if err := s.folders.DeleteFolder(ctx, f.ID); err != nil {
		return toolError("delete folder", err)
	}
	return textResult(fmt.Sprintf("Folder %s deleted", f.ID)), nil
}
