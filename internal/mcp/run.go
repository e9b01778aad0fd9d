package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/testsum/internal/report"
	"github.com/deixis/testsum/internal/summary"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Target string `json:"target,omitempty" jsonschema:"path of a single test file to run (e.g. test/widget_test.dart). Defaults to the whole suite."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	cfg, r := h.current()

	res, err := r.Run(ctx, params.Target)
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	rep, _ := summary.Summarize(res, cfg.SummaryOptions())
	result := report.FromSummary(res, params.Target, rep)

	if err := h.store.Save(result); err != nil {
		return errorResult(fmt.Sprintf("saving run %s: %v", result.ID, err))
	}

	return textResult(formatRun(result))
}

func formatRun(r *report.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	fmt.Fprintf(&b, "Command: %s\n", strings.Join(r.Command, " "))
	if r.Passed() {
		fmt.Fprintln(&b, "Status: PASS")
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "✅ All tests passed!")
		return b.String()
	}

	fmt.Fprintf(&b, "Status: FAIL (exit %d)\n", r.ExitCode)
	if r.FailureCount > 0 {
		fmt.Fprintf(&b, "Total failures: %d\n", r.FailureCount)
	}
	if r.Fallback {
		fmt.Fprintf(&b, "No failure markers found; showing the last %d lines.\n", r.Excerpts[0].End-r.Excerpts[0].Start)
	} else {
		fmt.Fprintf(&b, "Excerpts: %d\n", len(r.Excerpts))
	}
	if r.Truncated {
		fmt.Fprintln(&b, "Output was truncated at the configured size cap.")
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, summary.StartCopy)
	fmt.Fprintln(&b, r.CopyText())
	fmt.Fprintln(&b, summary.EndCopy)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Inspect with inspect_run(run_id=%q, excerpt=<index>) or inspect_run(run_id=%q, tail=<lines>).\n", r.ID, r.ID)

	return b.String()
}
