// Package report persists summarised test runs so they can be inspected
// after the fact.
package report

import (
	"fmt"
	"strings"

	"github.com/deixis/testsum/internal/runner"
	"github.com/deixis/testsum/internal/summary"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds a finished run and its summary.
type RunResult struct {
	ID           string    `json:"id"`
	Command      []string  `json:"command"`
	Target       string    `json:"target,omitempty"`
	ExitCode     int       `json:"exit_code"`
	Output       string    `json:"output"`
	Truncated    bool      `json:"truncated,omitempty"`
	Excerpts     []Excerpt `json:"excerpts,omitempty"`
	Fallback     bool      `json:"fallback,omitempty"`
	FailureCount int       `json:"failure_count"`
}

// Excerpt is a stored failure excerpt.
type Excerpt struct {
	Marker int    `json:"marker"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
}

// FromSummary builds a RunResult from a runner result and its report.
// rep is nil for passing runs.
func FromSummary(res *runner.Result, target string, rep *summary.Report) *RunResult {
	r := &RunResult{
		ID:        res.RunID,
		Command:   res.Command,
		Target:    target,
		ExitCode:  res.ExitCode,
		Output:    res.Combined(),
		Truncated: res.Truncated,
	}
	if rep == nil {
		return r
	}
	r.Fallback = rep.Fallback
	r.FailureCount = rep.FailureCount
	for _, e := range rep.Excerpts {
		r.Excerpts = append(r.Excerpts, Excerpt{
			Marker: e.Marker,
			Start:  e.Start,
			End:    e.End,
			Text:   e.Text(),
		})
	}
	return r
}

// Passed reports whether the run exited with status zero.
func (r *RunResult) Passed() bool {
	return r.ExitCode == 0
}

// CopyText joins the excerpts the same way the console report does.
func (r *RunResult) CopyText() string {
	parts := make([]string, len(r.Excerpts))
	for i, e := range r.Excerpts {
		parts[i] = e.Text
	}
	return strings.Join(parts, "\n\n")
}

// Excerpt returns the excerpt at index i.
func (r *RunResult) Excerpt(i int) (Excerpt, error) {
	if i < 0 || i >= len(r.Excerpts) {
		return Excerpt{}, fmt.Errorf("run %s has %d excerpts, index %d out of range", r.ID, len(r.Excerpts), i)
	}
	return r.Excerpts[i], nil
}

// Tail returns the last n lines of the combined output.
func (r *RunResult) Tail(n int) string {
	lines := strings.Split(r.Output, "\n")
	if n <= 0 || n >= len(lines) {
		return r.Output
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
