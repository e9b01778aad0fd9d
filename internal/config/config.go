// Package config loads and validates the optional .testsum YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deixis/testsum/internal/runner"
	"github.com/deixis/testsum/internal/summary"
)

// FileName is the name of the configuration file.
const FileName = ".testsum"

// rootMarkers identify a project root when walking upward.
var rootMarkers = []string{FileName, "pubspec.yaml"}

// DefaultHistory is the number of runs the MCP server keeps in memory.
const DefaultHistory = 5

// Config holds the parsed .testsum configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int           `yaml:"version"`
	Command      []string      `yaml:"command"`    // base test command, e.g. [flutter, test]
	Args         []string      `yaml:"args"`       // extra flags placed before the target
	RawTimeout   string        `yaml:"timeout"`    // e.g. "10m"; empty waits forever
	RawMaxOutput int           `yaml:"max_output"` // bytes per stream; 0 is unlimited
	Markers      []string      `yaml:"markers"`
	Context      ContextConfig `yaml:"context"`
	History      int           `yaml:"history"`
}

// ContextConfig controls the size of excerpts.
type ContextConfig struct {
	Before *int `yaml:"before"` // default 5
	After  *int `yaml:"after"`  // default 15
	Tail   *int `yaml:"tail"`   // default 50
	Merge  bool `yaml:"merge"`
}

// TestCommand returns the configured base command or runner.DefaultCommand.
func (c *Config) TestCommand() []string {
	if len(c.Command) > 0 {
		return c.Command
	}
	return runner.DefaultCommand
}

// Timeout returns the configured timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured per-stream cap, or zero for none.
func (c *Config) MaxOutputBytes() int {
	return max(c.RawMaxOutput, 0)
}

// HistorySize returns the configured MCP run history size or the default.
func (c *Config) HistorySize() int {
	if c.History > 0 {
		return c.History
	}
	return DefaultHistory
}

// SummaryOptions converts the context settings into summary options.
func (c *Config) SummaryOptions() summary.Options {
	opts := summary.DefaultOptions()
	if len(c.Markers) > 0 {
		opts.Markers = c.Markers
	}
	if c.Context.Before != nil {
		opts.Before = *c.Context.Before
	}
	if c.Context.After != nil {
		opts.After = *c.Context.After
	}
	if c.Context.Tail != nil {
		opts.Tail = *c.Context.Tail
	}
	opts.Merge = c.Context.Merge
	return opts
}

// Runner builds a runner for dir from the configuration.
func (c *Config) Runner(dir string) *runner.Runner {
	return &runner.Runner{
		Command:   c.TestCommand(),
		Args:      c.Args,
		Workspace: dir,
		Timeout:   c.Timeout(),
		MaxOutput: c.MaxOutputBytes(),
	}
}

func (c *Config) validate() error {
	ctx := c.Context
	for name, v := range map[string]*int{"before": ctx.Before, "after": ctx.After, "tail": ctx.Tail} {
		if v != nil && *v < 0 {
			return fmt.Errorf("context.%s must not be negative, got %d", name, *v)
		}
	}
	if ctx.After != nil && *ctx.After < 1 {
		return fmt.Errorf("context.after must include the marker line, got %d", *ctx.After)
	}
	if ctx.Tail != nil && *ctx.Tail < 1 {
		return fmt.Errorf("context.tail must keep at least one line, got %d", *ctx.Tail)
	}
	for _, m := range c.Markers {
		if m == "" {
			return fmt.Errorf("markers must not contain an empty string")
		}
	}
	if c.RawTimeout != "" {
		if _, err := time.ParseDuration(c.RawTimeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.RawTimeout, err)
		}
	}
	return nil
}

// LoadResult holds the parsed config and the discovered project root.
type LoadResult struct {
	Config      *Config
	ProjectRoot string // directory containing .testsum or pubspec.yaml; falls back to workspace
	Path        string // config file path; empty when none was found
}

// Load reads the .testsum file from the project root.
// The project root is discovered by walking upward from workspace looking
// for .testsum or pubspec.yaml. If no .testsum file exists, a default Config
// is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findProjectRoot(workspace)
	if err != nil {
		// No marker found; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, ProjectRoot: root}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, ProjectRoot: root, Path: path}, nil
}

// findProjectRoot walks upward from dir looking for a directory containing
// one of rootMarkers.
func findProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("project root not found")
		}
		dir = parent
	}
}
