package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/testsum/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type inspectParams struct {
	RunID   string `json:"run_id" jsonschema:"the run ID from a run_tests result"`
	Excerpt *int   `json:"excerpt,omitempty" jsonschema:"zero-based index of the failure excerpt to return"`
	Tail    int    `json:"tail,omitempty" jsonschema:"number of trailing lines of raw output to return"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	switch {
	case params.Excerpt != nil:
		e, err := result.Excerpt(*params.Excerpt)
		if err != nil {
			return errorResult(err.Error())
		}
		return textResult(formatExcerpt(result, *params.Excerpt, e))
	case params.Tail > 0:
		return textResult(fmt.Sprintf("Run: %s\nLast %d lines:\n\n%s\n", result.ID, params.Tail, result.Tail(params.Tail)))
	default:
		return textResult(formatRun(result))
	}
}

func formatExcerpt(r *report.RunResult, idx int, e report.Excerpt) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	if e.Marker < 0 {
		fmt.Fprintf(&b, "Excerpt %d/%d: output tail, lines %d-%d\n", idx+1, len(r.Excerpts), e.Start+1, e.End)
	} else {
		fmt.Fprintf(&b, "Excerpt %d/%d: marker at line %d, lines %d-%d\n", idx+1, len(r.Excerpts), e.Marker+1, e.Start+1, e.End)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, e.Text)

	return b.String()
}
