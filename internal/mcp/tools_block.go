package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"clio/internal/domain"
)

func (s *Server) registerBlockTools() {
	types := make([]string, len(domain.BlockTypes))
	for i, t := range domain.BlockTypes {
		types[i] = string(t)
	}

	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a block on a page. Without index the block is appended at the end; with index it is inserted there and later blocks shift down."),
		mcp.WithString("type",
			mcp.Description("Block type: "+strings.Join(types, ", ")),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("content", mcp.Description("Initial content (optional)")),
		mcp.WithNumber("index", mcp.Description("Zero-based position (optional, 0..count)")),
	), s.handleCreateBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a page in order"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("type", mcp.Description("Only blocks of this type (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListBlocks)

	// ── get_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Get a block with all its attributes"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetBlock)

	// ── update_block_content ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_content",
		mcp.WithDescription("Replace the text content of a block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New content"), mcp.Required()),
	), s.handleUpdateBlockContent)

	// ── update_block_type ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_type",
		mcp.WithDescription("Change the type of a block, keeping its content and position"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("New block type"), mcp.Required()),
	), s.handleUpdateBlockType)

	// ── set_heading_level ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_heading_level",
		mcp.WithDescription(fmt.Sprintf("Set the heading level (%d-%d) of a block", domain.MinHeadingLevel, domain.MaxHeadingLevel)),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("level", mcp.Description("Heading level"), mcp.Required()),
	), s.handleSetHeadingLevel)

	// ── set_todo_checked ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_todo_checked",
		mcp.WithDescription("Check or uncheck a to-do block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithBoolean("checked", mcp.Description("Checked state"), mcp.Required()),
	), s.handleSetTodoChecked)

	// ── set_toggle_expanded ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_toggle_expanded",
		mcp.WithDescription("Expand or collapse a toggle block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithBoolean("expanded", mcp.Description("Expanded state"), mcp.Required()),
	), s.handleSetToggleExpanded)

	// ── set_callout_icon ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_callout_icon",
		mcp.WithDescription("Set the icon of a callout block; an empty icon clears it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("icon", mcp.Description("Icon, usually a single emoji")),
	), s.handleSetCalloutIcon)

	// ── set_table_data ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_table_data",
		mcp.WithDescription("Replace the JSON payload of a table block; empty clears it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("data", mcp.Description("Table data as JSON")),
	), s.handleSetTableData)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a zero-based index within its page; the blocks in between shift by one"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Target index (0..count-1)"), mcp.Required()),
	), s.handleMoveBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block. The following blocks close the gap."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── repair_block_order ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("repair_block_order",
		mcp.WithDescription("Renumber block positions to 0..n-1 on one page, or on every page that needs it when pageId is omitted"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional)")),
	), s.handleRepairBlockOrder)
}

// blockSummary is the compact block view returned by list tools.
type blockSummary struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Order   int    `json:"order"`
	Preview string `json:"preview,omitempty"`
}

const previewLength = 80

func summarizeBlock(b domain.Block) blockSummary {
	preview := strings.Join(strings.Fields(b.Content), " ")
	if r := []rune(preview); len(r) > previewLength {
		preview = string(r[:previewLength]) + "…"
	}
	return blockSummary{ID: b.ID, Type: string(b.Type), Order: b.Order, Preview: preview}
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return toolError("create block", err)
	}

	var index *int
	i, ok, err := optionalInt(req, "index")
	if err != nil {
		return toolError("create block", err)
	}
	if ok {
		index = &i
	}

	b, err := s.blocks.CreateBlock(ctx, pageID,
		domain.BlockType(req.GetString("type", "")),
		req.GetString("content", ""),
		index,
	)
	if err != nil {
		return toolError("create block", err)
	}
	return jsonResult(b)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req)
	if err != nil {
		return toolError("list blocks", err)
	}
	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		return toolError("list blocks", err)
	}

	filter := domain.BlockType(req.GetString("type", ""))
	summaries := make([]blockSummary, 0, len(blocks))
	for _, b := range blocks {
		if filter != "" && b.Type != filter {
			continue
		}
		summaries = append(summaries, summarizeBlock(b))
	}
	return jsonResult(summaries)
}

func (s *Server) handleGetBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blocks.GetBlock(req.GetString("blockId", ""))
	if err != nil {
		return toolError("get block", err)
	}
	return jsonResult(b)
}

func (s *Server) handleUpdateBlockContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	if err := s.blocks.UpdateContent(ctx, id, req.GetString("content", "")); err != nil {
		return toolError("update block content", err)
	}
	return textResult(fmt.Sprintf("Block %s updated", id)), nil
}

func (s *Server) handleUpdateBlockType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	typ := domain.BlockType(req.GetString("type", ""))
	if err := s.blocks.UpdateType(ctx, id, typ); err != nil {
		return toolError("update block type", err)
	}
	return textResult(fmt.Sprintf("Block %s is now %s", id, typ)), nil
}

func (s *Server) handleSetHeadingLevel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	level, ok, err := optionalInt(req, "level")
	if err != nil {
		return toolError("set heading level", err)
	}
	if !ok {
		return mcp.NewToolResultError("set heading level: level is required"), nil
	}
	if err := s.blocks.UpdateHeadingLevel(ctx, id, level); err != nil {
		return toolError("set heading level", err)
	}
	return textResult(fmt.Sprintf("Block %s heading level set to %d", id, level)), nil
}

func (s *Server) handleSetTodoChecked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	checked := req.GetBool("checked", false)
	if err := s.blocks.UpdateTodoChecked(ctx, id, checked); err != nil {
		return toolError("set todo checked", err)
	}
	return textResult(fmt.Sprintf("Block %s checked=%t", id, checked)), nil
}

func (s *Server) handleSetToggleExpanded(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	expanded := req.GetBool("expanded", false)
	if err := s.blocks.UpdateToggleExpanded(ctx, id, expanded); err != nil {
		return toolError("set toggle expanded", err)
	}
	return textResult(fmt.Sprintf("Block %s expanded=%t", id, expanded)), nil
}

func (s *Server) handleSetCalloutIcon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	if err := s.blocks.UpdateCalloutIcon(ctx, id, req.GetString("icon", "")); err != nil {
		return toolError("set callout icon", err)
	}
	return textResult(fmt.Sprintf("Block %s icon updated", id)), nil
}

func (s *Server) handleSetTableData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	if err := s.blocks.UpdateTableData(ctx, id, req.GetString("data", "")); err != nil {
		return toolError("set table data", err)
	}
	return textResult(fmt.Sprintf("Block %s table data updated", id)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("blockId", "")
	index, ok, err := optionalInt(req, "index")
	if err != nil {
		return toolError("move block", err)
	}
	if !ok {
		return mcp.NewToolResultError("move block: index is required"), nil
	}
	if err := s.blocks.MoveBlock(ctx, id, index); err != nil {
		return toolError("move block", err)
	}
	return textResult(fmt.Sprintf("Block %s moved to index %d", id, index)), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blocks.GetBlock(req.GetString("blockId", ""))
	if err != nil {
		return toolError("delete block", err)
	}
	desc := fmt.Sprintf("Delete %s block %q", b.Type, summarizeBlock(*b).Preview)
	if res, ok := s.confirm(ctx, "delete_block", desc); !ok {
		return res, nil
	}
	if err := s.blocks.DeleteBlock(ctx, b.ID); err != nil {
		return toolError("delete block", err)
	}
	return textResult(fmt.Sprintf("Block %s deleted", b.ID)), nil
}

func (s *Server) handleRepairBlockOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if pageID := req.GetString("pageId", ""); pageID != "" {
		n, err := s.blocks.RenormalizePage(ctx, pageID)
		if err != nil {
			return toolError("repair block order", err)
		}
		return textResult(fmt.Sprintf("Page %s: %d blocks renumbered", pageID, n)), nil
	}

	if s.sweeper == nil {
		return mcp.NewToolResultError("repair block order: pageId is required"), nil
	}
	res, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return toolError("repair block order", err)
	}
	return jsonResult(res)
}
