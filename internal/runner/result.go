package runner

// Result holds the output of a test command execution.
type Result struct {
	RunID     string   // unique identifier for this run
	Command   []string // argv that was executed
	ExitCode  int      // process exit code
	Stdout    []byte   // captured stdout, newlines normalised (may be truncated)
	Stderr    []byte   // captured stderr, newlines normalised (may be truncated)
	Truncated bool     // true if output exceeded the size cap
}

// Passed reports whether the command exited with status zero.
func (r *Result) Passed() bool {
	return r.ExitCode == 0
}

// Combined returns stdout followed by stderr. The streams are not
// interleaved by time.
func (r *Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}
