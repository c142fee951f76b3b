package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"clio/internal/domain"
	"clio/internal/service"
)

const (
	serverName    = "clio-mcp"
	serverVersion = "1.0.0"
)

// Server exposes the workspace, folder, page and block stores to MCP
// clients as tools, resources and prompts.
type Server struct {
	mcp      *server.MCPServer
	logger   *slog.Logger
	approval *ApprovalQueue

	workspaces *service.WorkspaceService
	folders    *service.FolderService
	pages      *service.PageService
	blocks     *service.BlockService
	sweeper    *service.Sweeper

	mu           sync.Mutex
	activePageID string
}

// Deps holds everything the server needs from the app layer.
type Deps struct {
	Logger     *slog.Logger
	Emitter    service.EventEmitter
	Workspaces *service.WorkspaceService
	Folders    *service.FolderService
	Pages      *service.PageService
	Blocks     *service.BlockService
	Sweeper    *service.Sweeper

	// RequireApproval makes destructive tools wait for Approve/Reject.
	RequireApproval bool
	ApprovalTimeout time.Duration
}

// New creates the server and registers every tool, resource and prompt.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.NopEmitter{}
	}

	s := &Server{
		logger:     logger,
		approval:   NewApprovalQueue(emitter, !deps.RequireApproval, deps.ApprovalTimeout),
		workspaces: deps.Workspaces,
		folders:    deps.Folders,
		pages:      deps.Pages,
		blocks:     deps.Blocks,
		sweeper:    deps.Sweeper,
	}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	s.registerWorkspaceTools()
	s.registerFolderTools()
	s.registerPageTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp stdio server starting", "name", serverName, "version", serverVersion)
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) bool {
	return s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) bool {
	return s.approval.Reject(actionID)
}

// PendingApprovals lists destructive calls waiting for a decision.
func (s *Server) PendingApprovals() []PendingAction {
	return s.approval.Pending()
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// toolError turns store errors the caller can fix (bad input, missing
// entity) into tool-level error results so the model can retry. Anything
// else is returned as a protocol error.
func toolError(op string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDanglingReference),
		errors.Is(err, domain.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err)), nil
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Server) setActivePage(id string) {
	s.mu.Lock()
	s.activePageID = id
	s.mu.Unlock()
}

// resolvePageID returns the pageId argument or falls back to the active page.
func (s *Server) resolvePageID(req mcp.CallToolRequest) (string, error) {
	if pid := req.GetString("pageId", ""); pid != "" {
		return pid, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePageID != "" {
		return s.activePageID, nil
	}
	return "", &domain.ValidationError{
		Field:   "pageId",
		Message: "no pageId provided and no active page set (use set_active_page first)",
	}
}

// confirm asks the approval queue before a destructive call.
func (s *Server) confirm(ctx context.Context, tool, description string) (*mcp.CallToolResult, bool) {
	if err := s.approval.Request(ctx, tool, description); err != nil {
		s.logger.Info("destructive tool refused", "tool", tool, "reason", err)
		return textResult("Action rejected: " + err.Error()), false
	}
	return nil, true
}

func boolPtr(v bool) *bool { return &v }

// optionalInt reads an integer argument, reporting whether it was given.
// Fractional or out-of-range numbers are a validation error.
func optionalInt(req mcp.CallToolRequest, key string) (int, bool, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, false, &domain.ValidationError{
				Field:   key,
				Message: fmt.Sprintf("must be an integer, got %v", n),
			}
		}
		return int(n), true, nil
	}
	return 0, false, &domain.ValidationError{Field: key, Message: fmt.Sprintf("must be a number, got %T", v)}
}
