package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/rev/internal/models"
	"github.com/joescharf/rev/internal/store"
)

// newTestServer backs the MCP server with a real file store in a temp dir.
func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewServer(fs), fs
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// seedSession creates a session with one lgtm round and returns its id.
func seedSession(t *testing.T, s store.Store, summary string) string {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateSession(ctx, models.ReviewRequest{Summary: summary})
	require.NoError(t, err)
	result := &models.ReviewResult{
		Status:            models.ReviewStatusApproved,
		OverallAssessment: models.AssessmentLGTM,
	}
	require.NoError(t, s.AppendRound(ctx, id, result))
	return id
}

func TestHandleHistory(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	seedSession(t, s, "first change")
	seedSession(t, s, "second change")

	result, err := srv.handleHistory(ctx, callToolReq("rev_history", nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "first change")
	assert.Contains(t, text, "second change")
	assert.Contains(t, text, `"last_assessment":"lgtm"`)
}

func TestHandleHistory_Limit(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	seedSession(t, s, "one")
	seedSession(t, s, "two")
	seedSession(t, s, "three")

	result, err := srv.handleHistory(ctx, callToolReq("rev_history", map[string]any{"limit": float64(2)}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Len(t, out, 2)
}

func TestHandleGetSession(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	id := seedSession(t, s, "get me")

	result, err := srv.handleGetSession(ctx, callToolReq("rev_get_session", map[string]any{"session_id": id}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var session models.ReviewSession
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &session))
	assert.Equal(t, id, session.ID)
	assert.Len(t, session.Rounds, 1)
}

func TestHandleGetSession_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleGetSession(ctx, callToolReq("rev_get_session", map[string]any{"session_id": "2020-01-01-001"}))
	require.NoError(t, err, "handler should not return Go error; should wrap in result")
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestHandleGetSession_MissingID(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleGetSession(context.Background(), callToolReq("rev_get_session", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleLatest(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	seedSession(t, s, "older")
	id := seedSession(t, s, "newer")

	result, err := srv.handleLatest(ctx, callToolReq("rev_latest", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var session models.ReviewSession
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &session))
	assert.Equal(t, id, session.ID)
}

func TestHandleLatest_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleLatest(context.Background(), callToolReq("rev_latest", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no review sessions")
}

func TestHandleCompleteSession(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	id := seedSession(t, s, "finish me")

	result, err := srv.handleCompleteSession(ctx, callToolReq("rev_complete_session", map[string]any{
		"session_id": id,
		"status":     "merged",
		"notes":      "shipped in v1.4",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	session, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusMerged, session.Status)
}

func TestHandleCompleteSession_InvalidStatus(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	id := seedSession(t, s, "bad status")

	result, err := srv.handleCompleteSession(ctx, callToolReq("rev_complete_session", map[string]any{
		"session_id": id,
		"status":     "in_progress",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid terminal status")
}

func TestMCPIntegration_ListTools(t *testing.T) {
	srv, _ := newTestServer(t)

	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv)

	// Call tools/list via HandleMessage to verify registration.
	ctx := context.Background()
	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(ctx, reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}

	for _, name := range []string{"rev_history", "rev_get_session", "rev_latest", "rev_complete_session"} {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}
