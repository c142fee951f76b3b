package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_page",
		mcp.WithPromptDescription("Draft a structured page from a topic using headings, lists and to-dos"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the page is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("workspaceId",
			mcp.ArgumentDescription("Workspace to create the page in (optional)"),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_page",
		mcp.WithPromptDescription("Review an existing page and reorganize its blocks"),
		mcp.WithArgument("pageId",
			mcp.ArgumentDescription("Page to tidy"),
			mcp.RequiredArgument(),
		),
	), s.handleTidyPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	target := "the first workspace from list_workspaces (create one if there is none)"
	if ws := req.Params.Arguments["workspaceId"]; ws != "" {
		target = fmt.Sprintf("workspace %s", ws)
	}

	return userPrompt(fmt.Sprintf("Outline: %s", topic), fmt.Sprintf(`Write a page about "%s" in %s. Follow these steps:

1. Use create_page with the title "%s". It becomes the active page.
2. Add a heading1 block with a one-line summary of the topic.
3. For each main section add a heading2 block followed by bulletedList blocks for the key points.
4. Finish with a heading2 "Next steps" and todoList blocks for concrete follow-ups.

Append blocks in reading order (omit index) so positions stay 0..n-1.`, topic, target, topic)), nil
}

func (s *Server) handleTidyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pageID := req.Params.Arguments["pageId"]
	page, err := s.pages.GetPageState(pageID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, blk := range page.Blocks {
		fmt.Fprintf(&b, "%d. [%s] %s (id %s)\n", blk.Order, blk.Type, summarizeBlock(blk).Preview, blk.ID)
	}

	return userPrompt(fmt.Sprintf("Tidy page: %s", page.Title), fmt.Sprintf(`Page "%s" currently has these blocks:

%s
Reorganize it so related blocks sit together under headings. Use move_block to reorder, update_block_type to fix block kinds and delete_block only for empty or duplicated blocks. Run list_blocks at the end to confirm the final order.`, page.Title, b.String())), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
