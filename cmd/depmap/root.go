package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"depmap/internal/config"
	"depmap/internal/engine"
	"depmap/internal/logging"
	"depmap/internal/version"
)

var (
	// rootFlag is the workspace root holding .depmap/
	rootFlag string
	// formatFlag selects CLI output encoding
	formatFlag string
	// quietFlag silences the structured log stream
	quietFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "depmap",
	Short: "depmap - cross-repository dependency analysis",
	Long: `depmap discovers what a source file depends on across a set of git-hosted
repositories. It builds a bounded breadth-first dependency graph from cached
repository listings and file contents, so repeated analyses stay cheap.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("depmap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Workspace root containing the .depmap directory")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "human",
		"Output format: human, json, or yaml")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress log output")
}

// newLogger builds the CLI logger from configuration and the --quiet flag.
func newLogger(cfg *config.Config) *logging.Logger {
	out := io.Writer(os.Stderr)
	if quietFlag {
		out = io.Discard
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Output: out,
	})
}

// loadEngine loads configuration from the workspace root and composes the
// analysis engine. The caller owns the returned engine and must Close it.
func loadEngine() (*engine.Engine, *config.Config, *logging.Logger, error) {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	eng, err := engine.New(rootFlag, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return eng, cfg, logger, nil
}
