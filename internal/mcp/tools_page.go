package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List pages, most recently updated first: those in folderId, the unfiled pages of workspaceId, or every page when neither is given"),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional)")),
		mcp.WithString("folderId", mcp.Description("Folder ID (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListPages)

	// ── find_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("find_pages",
		mcp.WithDescription(`Filter pages with a boolean expression over id, title, workspaceId, workspace, folderId, folder, blocks, createdAt, updatedAt. Example: blocks > 3 && title contains "plan"`),
		mcp.WithString("filter", mcp.Description("Filter expression (empty matches all)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleFindPages)

	// ── get_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page together with its blocks in order"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetPage)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a page in a workspace or folder and make it the active page"),
		mcp.WithString("title", mcp.Description("Page title (defaults to Untitled)")),
		mcp.WithString("workspaceId", mcp.Description("Workspace ID (optional when folderId is set)")),
		mcp.WithString("folderId", mcp.Description("Folder ID (optional)")),
	), s.handleCreatePage)

	// ── rename_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Change a page title"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenamePage)

	// ── move_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_page",
		mcp.WithDescription("File a page into a folder of its workspace, or back to the workspace root when folderId is empty"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("folderId", mcp.Description("Destination folder ID (empty for root)")),
	), s.handleMovePage)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a page and all its blocks."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the active page for subsequent tool calls. Tools that accept pageId will default to this."),
		mcp.WithString("pageId", mcp.Description("ID of the page to make active"), mcp.Required()),
	), s.handleSetActivePage)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if folderID := req.GetString("folderId", ""); folderID != "" {
		pages, err := s.pages.ListPagesInFolder(folderID)
		if err != nil {
			return toolError("list pages", err)
		}
		return jsonResult(pages)
	}
	if workspaceID := req.GetString("workspaceId", ""); workspaceID != "" {
		return jsonResult(s.pages.ListPages(workspaceID))
	}
	return jsonResult(s.pages.ListAllPages())
}

func (s *Server) handleFindPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	found, err := s.pages.FindPages(req.GetString("filter", ""))
	if err != nil {
		return toolError("find pages", err)
	}
	return jsonResult(found)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return toolError("get page", err)
	}
	state, err := s.pages.GetPageState(pageID)
	if err != nil {
		return toolError("get page", err)
	}
	return jsonResult(state)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.pages.CreatePage(ctx,
		req.GetString("workspaceId", ""),
		req.GetString("folderId", ""),
		req.GetString("title", ""),
	)
	if err != nil {
		return toolError("create page", err)
	}
	s.setActivePage(page.ID)
	return jsonResult(page)
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pageId", "")
	if err := s.pages.RenamePage(ctx, id, req.GetString("title", "")); err != nil {
		return toolError("rename page", err)
	}
	return textResult(fmt.Sprintf("Page %s renamed", id)), nil
}

func (s *Server) handleMovePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pageId", "")
	folderID := req.GetString("folderId", "")
	if err := s.pages.MovePage(ctx, id, folderID); err != nil {
		return toolError("move page", err)
	}
	if folderID == "" {
		return textResult(fmt.Sprintf("Page %s moved to the workspace root", id)), nil
	}
	return textResult(fmt.Sprintf("Page %s moved to folder %s", id, folderID)), nil
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.pages.GetPage(req.GetString("pageId", ""))
	if err != nil {
		return toolError("delete page", err)
	}
	if res, ok := s.confirm(ctx, "delete_page", fmt.Sprintf("Delete page %q and its blocks", page.Title)); !ok {
		return res, nil
	}
	if err := s.pages.DeletePage(ctx, page.ID); err != nil {
		return toolError("delete page", err)
	}

	s.mu.Lock()
	if s.activePageID == page.ID {
		s.activePageID = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Page %s deleted", page.ID)), nil
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.pages.GetPage(req.GetString("pageId", ""))
	if err != nil {
		return toolError("set active page", err)
	}
	s.setActivePage(page.ID)
	return textResult(fmt.Sprintf("Active page set to %s (%s)", page.ID, page.Title)), nil
}
