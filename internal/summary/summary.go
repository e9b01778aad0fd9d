// Package summary condenses captured test output into a failure report.
// Summarize is pure: it only reads the runner result it is given.
package summary

import (
	"slices"
	"strings"

	"github.com/deixis/testsum/internal/runner"
)

// failedToken is counted across the whole output to report the number of
// failures.
const failedToken = "FAILED"

// DefaultMarkers are the substrings that identify a marker line.
var DefaultMarkers = []string{failedToken, "Error:", "✗"}

// Options controls excerpt extraction.
type Options struct {
	Markers []string // substrings that mark a failure line
	Before  int      // lines of leading context
	After   int      // exclusive end offset from the marker line
	Tail    int      // lines kept when no marker is found

	// Merge coalesces overlapping context windows into one excerpt.
	// Off by default: every marker gets its own excerpt.
	Merge bool
}

// DefaultOptions returns 5 lines before each marker, up to the marker plus
// 14 lines after it, and a 50 line tail fallback.
func DefaultOptions() Options {
	return Options{
		Markers: DefaultMarkers,
		Before:  5,
		After:   15,
		Tail:    50,
	}
}

// Excerpt is a contiguous run of output lines around a failure.
type Excerpt struct {
	Marker int      // index of the marker line; -1 for the tail fallback
	Start  int      // first line index, inclusive
	End    int      // last line index, exclusive
	Lines  []string // lines[Start:End]
}

// Text joins the excerpt lines with newlines.
func (e Excerpt) Text() string {
	return strings.Join(e.Lines, "\n")
}

// Report is the condensed view of a failed run.
type Report struct {
	Excerpts     []Excerpt
	Fallback     bool // true when no marker was found and Excerpts holds the tail
	FailureCount int  // occurrences of "FAILED" in the combined output
	ExitCode     int
}

// Text joins all excerpts, separated by a blank line.
func (r *Report) Text() string {
	parts := make([]string, len(r.Excerpts))
	for i, e := range r.Excerpts {
		parts[i] = e.Text()
	}
	return strings.Join(parts, "\n\n")
}

// Summarize builds a Report for a failed run. It returns a nil Report and
// exit code 0 when the run passed; otherwise the child's exit code is
// returned unchanged.
func Summarize(res *runner.Result, opts Options) (*Report, int) {
	if res.Passed() {
		return nil, 0
	}

	output := res.Combined()
	lines := strings.Split(output, "\n")

	rep := &Report{
		FailureCount: strings.Count(output, failedToken),
		ExitCode:     res.ExitCode,
	}

	for i, line := range lines {
		if !isMarker(line, opts.Markers) {
			continue
		}
		start := max(0, i-opts.Before)
		end := min(len(lines), i+opts.After)
		rep.Excerpts = append(rep.Excerpts, Excerpt{
			Marker: i,
			Start:  start,
			End:    end,
			Lines:  lines[start:end],
		})
	}

	if len(rep.Excerpts) == 0 {
		start := max(0, len(lines)-opts.Tail)
		rep.Fallback = true
		rep.Excerpts = []Excerpt{{
			Marker: -1,
			Start:  start,
			End:    len(lines),
			Lines:  lines[start:],
		}}
		return rep, res.ExitCode
	}

	if opts.Merge {
		rep.Excerpts = merge(rep.Excerpts, lines)
	}
	return rep, res.ExitCode
}

func isMarker(line string, markers []string) bool {
	return slices.ContainsFunc(markers, func(m string) bool {
		return m != "" && strings.Contains(line, m)
	})
}

// merge coalesces excerpts whose line ranges overlap. The merged excerpt
// keeps the marker of its first member.
func merge(excerpts []Excerpt, lines []string) []Excerpt {
	out := []Excerpt{excerpts[0]}
	for _, e := range excerpts[1:] {
		last := &out[len(out)-1]
		if e.Start < last.End {
			last.End = max(last.End, e.End)
			last.Lines = lines[last.Start:last.End]
			continue
		}
		out = append(out, e)
	}
	return out
}
