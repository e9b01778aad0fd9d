package summary

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/deixis/testsum/internal/runner"
)

// numbered returns n lines "line 0".."line n-1" joined without a trailing
// newline, with overrides applied by index.
func numbered(n int, overrides map[int]string) string {
	lines := make([]string, n)
	for i := range lines {
		if s, ok := overrides[i]; ok {
			lines[i] = s
			continue
		}
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return strings.Join(lines, "\n")
}

func failed(stdout string) *runner.Result {
	return &runner.Result{ExitCode: 1, Stdout: []byte(stdout)}
}

func TestSummarize_Success(t *testing.T) {
	res := &runner.Result{ExitCode: 0, Stdout: []byte("FAILED Error: ✗")}
	rep, code := Summarize(res, DefaultOptions())
	if rep != nil {
		t.Errorf("report = %+v, want nil", rep)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestSummarize_NoMarkersFallsBackToAllLines(t *testing.T) {
	out := numbered(30, nil)
	rep, code := Summarize(failed(out), DefaultOptions())
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !rep.Fallback {
		t.Error("Fallback = false, want true")
	}
	if len(rep.Excerpts) != 1 {
		t.Fatalf("len(Excerpts) = %d, want 1", len(rep.Excerpts))
	}
	if got := rep.Excerpts[0].Text(); got != out {
		t.Errorf("excerpt = %q, want all 30 lines", got)
	}
	if rep.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0", rep.FailureCount)
	}
}

func TestSummarize_NoMarkersKeepsTail(t *testing.T) {
	rep, _ := Summarize(failed(numbered(120, nil)), DefaultOptions())
	e := rep.Excerpts[0]
	if e.Start != 70 || e.End != 120 || len(e.Lines) != 50 {
		t.Errorf("excerpt = [%d,%d) with %d lines, want [70,120) with 50", e.Start, e.End, len(e.Lines))
	}
	if e.Marker != -1 {
		t.Errorf("Marker = %d, want -1", e.Marker)
	}
	if e.Lines[0] != "line 70" || e.Lines[49] != "line 119" {
		t.Errorf("tail = %q .. %q", e.Lines[0], e.Lines[49])
	}
}

func TestSummarize_SingleMarker(t *testing.T) {
	out := numbered(40, map[int]string{20: "001: FAILED test_foo"})
	rep, code := Summarize(failed(out), DefaultOptions())
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if len(rep.Excerpts) != 1 {
		t.Fatalf("len(Excerpts) = %d, want 1", len(rep.Excerpts))
	}
	e := rep.Excerpts[0]
	if e.Start != 15 || e.End != 35 {
		t.Errorf("window = [%d,%d), want [15,35)", e.Start, e.End)
	}
	if len(e.Lines) != 20 {
		t.Errorf("len(Lines) = %d, want 20", len(e.Lines))
	}
	if e.Lines[0] != "line 15" || e.Lines[5] != "001: FAILED test_foo" || e.Lines[19] != "line 34" {
		t.Errorf("unexpected lines: %q", e.Lines)
	}
	if rep.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", rep.FailureCount)
	}
	if rep.Fallback {
		t.Error("Fallback = true, want false")
	}
}

func TestSummarize_OverlappingWindowsNotMerged(t *testing.T) {
	out := numbered(40, map[int]string{3: "FAILED a", 4: "FAILED b"})
	rep, _ := Summarize(failed(out), DefaultOptions())
	if len(rep.Excerpts) != 2 {
		t.Fatalf("len(Excerpts) = %d, want 2", len(rep.Excerpts))
	}
	want := [][2]int{{0, 18}, {0, 19}}
	for i, e := range rep.Excerpts {
		if e.Start != want[i][0] || e.End != want[i][1] {
			t.Errorf("excerpt %d = [%d,%d), want [%d,%d)", i, e.Start, e.End, want[i][0], want[i][1])
		}
	}
	if rep.FailureCount != 2 {
		t.Errorf("FailureCount = %d, want 2", rep.FailureCount)
	}
	wantText := rep.Excerpts[0].Text() + "\n\n" + rep.Excerpts[1].Text()
	if got := rep.Text(); got != wantText {
		t.Errorf("Text() = %q, want %q", got, wantText)
	}
}

func TestSummarize_WindowClampedAtEnd(t *testing.T) {
	out := numbered(10, map[int]string{8: "Error: boom"})
	rep, _ := Summarize(failed(out), DefaultOptions())
	e := rep.Excerpts[0]
	if e.Start != 3 || e.End != 10 {
		t.Errorf("window = [%d,%d), want [3,10)", e.Start, e.End)
	}
}

func TestSummarize_MarkerMatching(t *testing.T) {
	tests := []struct {
		line   string
		marker bool
	}{
		{"00:02 +3 -1: Some tests FAILED", true},
		{"Error: Expected: <1>", true},
		{"  ✗ renders button", true},
		{"failed", false},
		{"error: lowercase", false},
		{"Error without colon", false},
		{"UNFAILED", true},
		{"TypeError: x", true},
		{"all good", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rep, _ := Summarize(failed(tt.line), DefaultOptions())
			if got := !rep.Fallback; got != tt.marker {
				t.Errorf("marker(%q) = %v, want %v", tt.line, got, tt.marker)
			}
		})
	}
}

func TestSummarize_MarkerOrder(t *testing.T) {
	out := numbered(100, map[int]string{10: "✗ one", 50: "Error: two", 90: "FAILED three"})
	rep, _ := Summarize(failed(out), DefaultOptions())
	var markers []int
	for _, e := range rep.Excerpts {
		markers = append(markers, e.Marker)
	}
	if !reflect.DeepEqual(markers, []int{10, 50, 90}) {
		t.Errorf("markers = %v, want [10 50 90]", markers)
	}
}

func TestSummarize_FailureCountIndependentOfMarkers(t *testing.T) {
	// Two FAILED tokens on one line yield one excerpt but a count of two.
	out := numbered(20, map[int]string{5: "FAILED x FAILED", 12: "Error: y"})
	rep, _ := Summarize(failed(out), DefaultOptions())
	if len(rep.Excerpts) != 2 {
		t.Errorf("len(Excerpts) = %d, want 2", len(rep.Excerpts))
	}
	if rep.FailureCount != 2 {
		t.Errorf("FailureCount = %d, want 2", rep.FailureCount)
	}
}

func TestSummarize_StderrIncluded(t *testing.T) {
	res := &runner.Result{
		ExitCode: 1,
		Stdout:   []byte("running\n"),
		Stderr:   []byte("Error: compile failed\n"),
	}
	rep, _ := Summarize(res, DefaultOptions())
	if rep.Fallback {
		t.Fatal("expected marker from stderr")
	}
	if rep.Excerpts[0].Marker != 1 {
		t.Errorf("Marker = %d, want 1", rep.Excerpts[0].Marker)
	}
}

func TestSummarize_ExitCodePropagated(t *testing.T) {
	res := &runner.Result{ExitCode: 79, Stdout: []byte("FAILED")}
	rep, code := Summarize(res, DefaultOptions())
	if code != 79 || rep.ExitCode != 79 {
		t.Errorf("exit code = %d (report %d), want 79", code, rep.ExitCode)
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	res := failed(numbered(60, map[int]string{7: "FAILED", 9: "✗", 40: "Error: z"}))
	rep1, code1 := Summarize(res, DefaultOptions())
	rep2, code2 := Summarize(res, DefaultOptions())
	if code1 != code2 || !reflect.DeepEqual(rep1, rep2) {
		t.Error("Summarize is not idempotent")
	}
}

func TestSummarize_Merge(t *testing.T) {
	out := numbered(60, map[int]string{3: "FAILED a", 4: "FAILED b", 50: "FAILED c"})
	opts := DefaultOptions()
	opts.Merge = true
	rep, _ := Summarize(failed(out), opts)
	if len(rep.Excerpts) != 2 {
		t.Fatalf("len(Excerpts) = %d, want 2", len(rep.Excerpts))
	}
	if e := rep.Excerpts[0]; e.Start != 0 || e.End != 19 || e.Marker != 3 {
		t.Errorf("merged = [%d,%d) marker %d, want [0,19) marker 3", e.Start, e.End, e.Marker)
	}
	if e := rep.Excerpts[1]; e.Start != 45 || e.End != 60 {
		t.Errorf("second = [%d,%d), want [45,60)", e.Start, e.End)
	}
}

func TestSummarize_CustomOptions(t *testing.T) {
	out := numbered(30, map[int]string{10: "BOOM"})
	opts := Options{Markers: []string{"BOOM"}, Before: 1, After: 2, Tail: 5}
	rep, _ := Summarize(failed(out), opts)
	if got, want := rep.Excerpts[0].Text(), "line 9\nBOOM\nline 11"; got != want {
		t.Errorf("excerpt = %q, want %q", got, want)
	}
}

func TestSummarize_CarriageReturnOutput(t *testing.T) {
	r := &runner.Runner{Command: []string{"sh", "-c", `printf 'a\r\nb\rFAILED x\r\n'; exit 1`}}
	res, err := r.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rep, _ := Summarize(res, DefaultOptions())
	if len(rep.Excerpts) != 1 {
		t.Fatalf("len(Excerpts) = %d, want 1", len(rep.Excerpts))
	}
	e := rep.Excerpts[0]
	if e.Marker != 2 {
		t.Errorf("Marker = %d, want 2", e.Marker)
	}
	if !reflect.DeepEqual(e.Lines, []string{"a", "b", "FAILED x", ""}) {
		t.Errorf("Lines = %q", e.Lines)
	}
}
