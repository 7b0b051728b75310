package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/rev/internal/models"
	"github.com/joescharf/rev/internal/store"
)

// Server wraps the review store and exposes it as MCP tools, so agents can
// read and close out review sessions without shelling out to the CLI.
type Server struct {
	store store.Store
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("rev", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.historyTool())
	srv.AddTool(s.getSessionTool())
	srv.AddTool(s.latestTool())
	srv.AddTool(s.completeSessionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// rev_history
func (s *Server) historyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("rev_history",
		mcp.WithDescription("List review sessions, most recent first. Returns a JSON array with id, status, summary, round count, and timestamps."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default: all)")),
	)
	return tool, s.handleHistory
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	sessions, err := s.store.History(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	type sessionOut struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		Summary    string `json:"summary"`
		Rounds     int    `json:"rounds"`
		Assessment string `json:"last_assessment,omitempty"`
		CreatedAt  string `json:"created_at"`
		UpdatedAt  string `json:"updated_at"`
	}

	out := make([]sessionOut, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionOut{
			ID:        sess.ID,
			Status:    string(sess.Status),
			Summary:   sess.Request.Summary,
			Rounds:    len(sess.Rounds),
			CreatedAt: sess.CreatedAt.Format("2006-01-02 15:04"),
			UpdatedAt: sess.UpdatedAt.Format("2006-01-02 15:04"),
		}
		if last := sess.LatestRound(); last != nil {
			out[i].Assessment = string(last.OverallAssessment)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// rev_get_session
func (s *Server) getSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("rev_get_session",
		mcp.WithDescription("Get a full review session by id, including every round's findings."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier (YYYY-MM-DD-NNN)")),
	)
	return tool, s.handleGetSession
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// rev_latest
func (s *Server) latestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("rev_latest",
		mcp.WithDescription("Get the most recently written review session."),
	)
	return tool, s.handleLatest
}

func (s *Server) handleLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return mcp.NewToolResultError("no review sessions yet"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve latest session: %v", err)), nil
	}

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session %s: %v", id, err)), nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// rev_complete_session
func (s *Server) completeSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("rev_complete_session",
		mcp.WithDescription("Move a review session to a terminal status (approved, abandoned, or merged), optionally recording final notes."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier (YYYY-MM-DD-NNN)")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Terminal status: approved, abandoned, or merged")),
		mcp.WithString("notes", mcp.Description("Optional closing notes")),
	)
	return tool, s.handleCompleteSession
}

func (s *Server) handleCompleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}
	notes := request.GetString("notes", "")

	if err := s.store.Complete(ctx, id, models.SessionStatus(status), notes); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete session: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`{"session_id": %q, "status": %q}`, id, status)), nil
}
