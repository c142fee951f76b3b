package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	workspacesURI  = "clio://workspaces"
	pageURIPrefix  = "clio://page/"
	pageBlocksPart = "/blocks"
)

func (s *Server) registerResources() {
	// ── clio://workspaces ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		workspacesURI,
		"All Workspaces",
		mcp.WithResourceDescription("Workspaces with their top-level folders and unfiled page counts"),
		mcp.WithMIMEType("application/json"),
	), s.handleWorkspacesResource)

	// ── clio://page/{pageId}/blocks ────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{pageId}"+pageBlocksPart,
			"Blocks on a Page",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePageBlocksResource,
	)
}

type workspaceOverview struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Folders []string `json:"folders"`
	Pages   int      `json:"pages"`
}

func (s *Server) handleWorkspacesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workspaces := s.workspaces.ListWorkspaces()
	overview := make([]workspaceOverview, len(workspaces))
	for i, ws := range workspaces {
		folders := s.folders.ListFolders(ws.ID)
		names := make([]string, len(folders))
		for j, f := range folders {
			names[j] = f.Name
		}
		overview[i] = workspaceOverview{
			ID:      ws.ID,
			Name:    ws.Name,
			Folders: names,
			Pages:   len(s.pages.ListPages(ws.ID)),
		}
	}
	return jsonResource(workspacesURI, overview)
}

func (s *Server) handlePageBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := pageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}

	blocks, err := s.blocks.ListBlocks(pageID)
	if err != nil {
		return nil, err
	}
	summaries := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		summaries[i] = summarizeBlock(b)
	}
	return jsonResource(uri, summaries)
}

// pageIDFromURI extracts the id from "clio://page/{id}/blocks".
func pageIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, pageBlocksPart)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
