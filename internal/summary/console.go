package summary

import (
	"fmt"
	"io"
	"strings"
)

// Delimiters bracketing the copy-pasteable section. Tooling greps for
// these, so they must not change.
const (
	StartCopy = "--- START COPY HERE ---"
	EndCopy   = "--- END COPY HERE ---"
)

var banner = strings.Repeat("=", 60)

// WriteHeader prints the notice shown before the test command starts.
func WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, "🧪 Running tests...\n%s\n\n", banner)
	return err
}

// WriteSummary prints the summary section. A nil report means the run
// passed.
func WriteSummary(w io.Writer, rep *Report) error {
	var b strings.Builder

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "📋 FAILURE SUMMARY")
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b)

	if rep == nil {
		fmt.Fprintln(&b, "✅ All tests passed!")
	} else {
		fmt.Fprint(&b, "❌ Tests failed. Copy the section below:\n\n")
		fmt.Fprintf(&b, "%s\n\n", StartCopy)
		fmt.Fprintln(&b, rep.Text())
		fmt.Fprintf(&b, "\n%s\n\n", EndCopy)
		if rep.FailureCount > 0 {
			fmt.Fprintf(&b, "Total failures: %d\n", rep.FailureCount)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
