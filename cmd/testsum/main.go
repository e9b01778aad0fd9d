// Command testsum runs the project's tests and prints a condensed,
// copy-pasteable summary of any failures.
//
// Usage:
//
//	testsum [test-file]
//
// The exit code is the test command's exit code.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/deixis/testsum"
	"github.com/deixis/testsum/internal/config"
	"github.com/deixis/testsum/internal/summary"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("testsum: ")

	code, err := newRootCmd(os.Stdout).Execute()
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

type rootCmd struct {
	cmd  *cobra.Command
	code int
}

func newRootCmd(out io.Writer) *rootCmd {
	rc := &rootCmd{}
	rc.cmd = &cobra.Command{
		Use:   "testsum [test-file]",
		Short: "Run tests and summarise failures",
		Long: `testsum runs the project's test command (flutter test by default),
echoes its output and prints the context around each failure between
copy delimiters. Pass a test file to run only that file.`,
		Version:       testsum.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			code, err := run(cmd.Context(), out, target)
			rc.code = code
			return err
		},
	}
	rc.cmd.SetOut(out)
	return rc
}

// Execute runs the command and returns the exit code to use.
func (rc *rootCmd) Execute() (int, error) {
	if err := rc.cmd.ExecuteContext(context.Background()); err != nil {
		return 1, err
	}
	return rc.code, nil
}

func run(ctx context.Context, out io.Writer, target string) (int, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return 1, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return 1, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	r := cfg.Runner(workspace)
	r.Echo = out

	if err := summary.WriteHeader(out); err != nil {
		return 1, err
	}

	res, err := r.Run(ctx, target)
	if err != nil {
		return 1, err
	}

	rep, code := summary.Summarize(res, cfg.SummaryOptions())
	if err := summary.WriteSummary(out, rep); err != nil {
		return 1, err
	}
	return code, nil
}
