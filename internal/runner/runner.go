// Package runner executes the project's test command and captures its
// output streams in full.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// DefaultCommand is the test command used when none is configured.
var DefaultCommand = []string{"flutter", "test"}

// waitDelay bounds how long Run waits for output pipes to close after the
// command is killed on timeout.
const waitDelay = 5 * time.Second

// Runner executes the test command within a workspace directory.
type Runner struct {
	Command   []string      // base argv; DefaultCommand when empty
	Args      []string      // extra arguments placed before the target
	Workspace string        // working directory; current directory when empty
	Timeout   time.Duration // zero means wait indefinitely
	MaxOutput int           // bytes per stream; zero means unlimited

	// Echo receives the raw output once the command exits, before any
	// summarisation happens. Nil disables echoing.
	Echo io.Writer
}

// Argv returns the command line for target. An empty target runs the
// whole suite; otherwise target is appended verbatim.
func (r *Runner) Argv(target string) []string {
	base := r.Command
	if len(base) == 0 {
		base = DefaultCommand
	}
	argv := make([]string, 0, len(base)+len(r.Args)+1)
	argv = append(argv, base...)
	argv = append(argv, r.Args...)
	if target != "" {
		argv = append(argv, target)
	}
	return argv
}

// Run executes the test command and blocks until it exits. A non-zero exit
// is reported through Result.ExitCode. An error is returned only when the
// command could not be started at all.
func (r *Runner) Run(ctx context.Context, target string) (*Result, error) {
	argv := r.Argv(target)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Workspace
	if r.Timeout > 0 {
		cmd.WaitDelay = waitDelay
	}

	var stdout, stderr bytes.Buffer
	outW := &limitWriter{buf: &stdout, limit: r.MaxOutput}
	errW := &limitWriter{buf: &stderr, limit: r.MaxOutput}
	cmd.Stdout = outW
	cmd.Stderr = errW

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary not found or other exec error.
			return nil, fmt.Errorf("executing %s: %w", argv[0], runErr)
		}
		exitCode = exitErr.ExitCode()
		if exitCode < 0 {
			// Killed by a signal (e.g. the configured timeout).
			exitCode = 1
		}
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Command:   argv,
		ExitCode:  exitCode,
		Stdout:    normalizeNewlines(stdout.Bytes()),
		Stderr:    normalizeNewlines(stderr.Bytes()),
		Truncated: outW.truncated || errW.truncated,
	}

	if r.Echo != nil {
		if err := echo(r.Echo, res); err != nil {
			return nil, fmt.Errorf("echoing output: %w", err)
		}
	}
	return res, nil
}

// echo writes stdout followed by a newline, then stderr followed by a
// newline when stderr is non-empty.
func echo(w io.Writer, res *Result) error {
	if _, err := fmt.Fprintln(w, string(res.Stdout)); err != nil {
		return err
	}
	if len(res.Stderr) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, string(res.Stderr))
	return err
}

// normalizeNewlines converts "\r\n" and bare "\r" line endings to "\n".
func normalizeNewlines(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. A limit of zero disables the cap.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool // set once any bytes were discarded
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil // discard
	}
	if len(p) > remaining {
		w.truncated = true
		// Report all bytes as consumed to avoid short write errors
		// from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
