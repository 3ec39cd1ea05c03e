package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"depmap/internal/depgraph"
	"depmap/internal/githost"
)

var (
	analyzeRepos          []string
	analyzeDepth          int
	analyzeMethodLevel    bool
	analyzeIncludeContent bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <org/name[@branch]> <file>",
	Short: "Analyze what a file depends on across repositories",
	Long: `Analyze builds the dependency graph rooted at one file. References are
resolved against the repositories given with --repo (or the workspace scope
file when none are given); the target repository is always searched.

Examples:
  depmap analyze acme/api src/FooController.java
  depmap analyze acme/api@develop src/FooController.java --repo acme/shared --depth 3
  depmap analyze acme/api src/FooController.java -f json`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringArrayVar(&analyzeRepos, "repo", nil,
		"Repository to search (repeatable); defaults to the scope file")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 0,
		"Traversal depth (0 uses the configured default)")
	analyzeCmd.Flags().BoolVar(&analyzeMethodLevel, "method-level", true,
		"Attribute references to enclosing methods")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeContent, "include-content", false,
		"Attach content excerpts to nodes")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target, err := githost.ParseRepository(args[0])
	if err != nil {
		return fmt.Errorf("target repository: %w", err)
	}

	repos := make([]githost.Repository, 0, len(analyzeRepos))
	for _, spec := range analyzeRepos {
		repo, err := githost.ParseRepository(spec)
		if err != nil {
			return fmt.Errorf("--repo %s: %w", spec, err)
		}
		repos = append(repos, repo)
	}

	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	graph, err := eng.Analyze(context.Background(), depgraph.Request{
		Repositories:   repos,
		TargetRepo:     target,
		TargetFile:     args[1],
		MaxDepth:       analyzeDepth,
		MethodLevel:    analyzeMethodLevel,
		IncludeContent: analyzeIncludeContent,
	})
	if err != nil {
		return err
	}

	return printOutput(graph)
}
