package ckan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed by the CKAN MCP server.
const (
	ToolPackageSearch   = "ckan_package_search"
	ToolDatastoreSearch = "ckan_datastore_search"
)

// MCPConfig describes how to launch the CKAN MCP server over stdio.
type MCPConfig struct {
	ServerURL string
	Command   string
	Args      []string
	Env       []string
}

// MCPCatalog reaches the catalog through the tools of a CKAN MCP server.
type MCPCatalog struct {
	serverURL string
	session   *sdkmcp.ClientSession
	logger    *slog.Logger
}

// DialMCP spawns the configured MCP server and completes the initialize
// handshake.
func DialMCP(ctx context.Context, cfg MCPConfig, logger *slog.Logger) (*MCPCatalog, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp command is empty")
	}
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Stderr = os.Stderr

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "ckanflow",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Command, err)
	}
	return NewMCPCatalog(session, cfg.ServerURL, logger), nil
}

// NewMCPCatalog wraps an already connected client session.
func NewMCPCatalog(session *sdkmcp.ClientSession, serverURL string, logger *slog.Logger) *MCPCatalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MCPCatalog{serverURL: serverURL, session: session, logger: logger}
}

// SearchPackages calls ckan_package_search.
func (c *MCPCatalog) SearchPackages(ctx context.Context, query string, rows int) (*SearchResult, error) {
	text, err := c.callTool(ctx, ToolPackageSearch, map[string]any{
		"server_url":      c.serverURL,
		"q":               query,
		"rows":            rows,
		"response_format": "json",
	})
	if err != nil {
		return nil, err
	}
	return DecodeSearchText(text)
}

// DatastoreSearch calls ckan_datastore_search.
func (c *MCPCatalog) DatastoreSearch(ctx context.Context, resourceID string, limit int) (*DatastoreResult, error) {
	text, err := c.callTool(ctx, ToolDatastoreSearch, map[string]any{
		"server_url":      c.serverURL,
		"resource_id":     resourceID,
		"limit":           limit,
		"response_format": "json",
	})
	if err != nil {
		return nil, err
	}
	return DecodeDatastoreText(text)
}

// Close terminates the session and the server process.
func (c *MCPCatalog) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func (c *MCPCatalog) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.session == nil {
		return "", ErrNotConnected
	}
	c.logger.Debug("calling catalog tool", "tool", name, "server_url", c.serverURL)

	result, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	text, ok := firstText(result)
	if result.IsError {
		if !ok || text == "" {
			text = fmt.Sprintf("tool %s failed", name)
		}
		return "", serviceError(text)
	}
	if !ok {
		return "", serviceError("No content in response")
	}
	return text, nil
}

func firstText(result *sdkmcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}
	for _, content := range result.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			return tc.Text, true
		}
	}
	return "", false
}
