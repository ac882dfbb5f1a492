// Package testserver provides in-process stand-ins for the CKAN MCP server and
// the CKAN action API, plus helpers to connect MCP clients to them.
package testserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Tool names served by the fake, matching the real CKAN MCP server.
const (
	PackageSearch   = "ckan_package_search"
	DatastoreSearch = "ckan_datastore_search"
)

// ToolResponse is a canned reply for one tool.
type ToolResponse struct {
	Text    string
	IsError bool
}

// ToolCall records the arguments a tool was invoked with.
type ToolCall struct {
	Tool string
	Args map[string]any
}

// CKAN fakes the catalog side of the workflow.
type CKAN struct {
	mu        sync.Mutex
	responses map[string]ToolResponse
	calls     []ToolCall
}

// NewCKAN returns a fake with no canned responses; unknown tools reply with
// an error result.
func NewCKAN() *CKAN {
	return &CKAN{responses: make(map[string]ToolResponse)}
}

// Respond sets the raw reply for tool.
func (c *CKAN) Respond(tool string, resp ToolResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[tool] = resp
}

// RespondJSON marshals payload as the reply text for tool.
func (c *CKAN) RespondJSON(t *testing.T, tool string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	c.Respond(tool, ToolResponse{Text: string(data)})
}

// Calls returns every recorded invocation in order.
func (c *CKAN) Calls() []ToolCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ToolCall, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *CKAN) reply(tool string, args map[string]any) ToolResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ToolCall{Tool: tool, Args: args})
	resp, ok := c.responses[tool]
	if !ok {
		return ToolResponse{Text: "no response configured for " + tool, IsError: true}
	}
	return resp
}

// MCPServer builds an MCP server exposing the fake tools.
func (c *CKAN) MCPServer() *sdkmcp.Server {
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "fake-ckan", Version: "0.0.0"}, nil)
	for _, name := range []string{PackageSearch, DatastoreSearch} {
		tool := name
		srv.AddTool(&sdkmcp.Tool{
			Name:        tool,
			Description: "fake " + tool,
			InputSchema: map[string]any{"type": "object"},
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			args := map[string]any{}
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, err
				}
			}
			resp := c.reply(tool, args)
			return &sdkmcp.CallToolResult{
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: resp.Text}},
				IsError: resp.IsError,
			}, nil
		})
	}
	return srv
}

// Connect starts the fake over in-memory transports and returns a client
// session bound to it.
func (c *CKAN) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	return ConnectServer(t, c.MCPServer())
}

// ActionServer serves the canned replies through the CKAN action API.
func (c *CKAN) ActionServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/", func(w http.ResponseWriter, r *http.Request) {
		action := strings.TrimPrefix(r.URL.Path, "/api/3/action/")
		args := map[string]any{}
		for k := range r.URL.Query() {
			args[k] = r.URL.Query().Get(k)
		}
		args["user_agent"] = r.Header.Get("User-Agent")
		resp := c.reply("ckan_"+action, args)

		w.Header().Set("Content-Type", "application/json")
		if resp.IsError {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]any{"message": resp.Text},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  json.RawMessage(resp.Text),
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// ConnectServer runs srv over in-memory transports and connects a client.
func ConnectServer(t *testing.T, srv *sdkmcp.Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	serverT, clientT := sdkmcp.NewInMemoryTransports()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
	})
	return session
}
