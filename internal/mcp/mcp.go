// Package mcp provides the testsum MCP server, exposing test runs and their
// failure summaries to coding agents.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/deixis/testsum"
	"github.com/deixis/testsum/internal/config"
	"github.com/deixis/testsum/internal/report"
	"github.com/deixis/testsum/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	mu     sync.Mutex
	cfg    *config.Config
	runner *runner.Runner
	store  report.Store
}

// NewServer creates an MCP server with all testsum tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store) *mcp.Server {
	h := &handler{
		cfg:    cfg,
		runner: r,
		store:  store,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "testsum", Version: testsum.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_tests",
		Description: `Run the project's test command and return a condensed failure summary.

Runs the whole suite, or a single test file when target is given. On failure the result
contains the context around every line with FAILED, Error: or ✗, between copy delimiters.
Results are stored for drill-down via inspect_run.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "inspect_run",
		Description: `Drill into a stored run_tests result.

Pass excerpt to get a single failure excerpt by index, or tail to get the last lines of the
raw output. With neither, the summary is returned again.`,
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and reloads the
// configuration and runner if a valid file root is returned.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = loaded.Config
	h.runner = loaded.Config.Runner(loaded.ProjectRoot)
}

// current returns the configuration and runner in use.
func (h *handler) current() (*config.Config, *runner.Runner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg, h.runner
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
