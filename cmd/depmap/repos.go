package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"depmap/internal/scope"
)

var repoTags []string

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage the repository scope searched by default",
	Long: `The repository scope is the set of repositories an analysis searches when
the analyze command is given no --repo flags. It is stored in
.depmap/repos.toml under the workspace root.`,
}

var reposAddCmd = &cobra.Command{
	Use:   "add <org/name[@branch]>",
	Short: "Add a repository to the scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scope.Load(rootFlag)
		if err != nil {
			return err
		}
		entry, err := s.Add(args[0], repoTags)
		if err != nil {
			return err
		}
		if err := s.Save(rootFlag); err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", entry.Spec, entry.UID)
		return nil
	},
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the repositories in scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scope.Load(rootFlag)
		if err != nil {
			return err
		}
		if len(s.Repos) == 0 {
			fmt.Println("Scope is empty; add repositories with 'depmap repos add'")
			return nil
		}
		for _, r := range s.Repos {
			line := r.Spec
			if len(r.Tags) > 0 {
				line += "  [" + strings.Join(r.Tags, ", ") + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var reposRemoveCmd = &cobra.Command{
	Use:   "remove <org/name[@branch]>",
	Short: "Remove a repository from the scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scope.Load(rootFlag)
		if err != nil {
			return err
		}
		if err := s.Remove(args[0]); err != nil {
			return err
		}
		if err := s.Save(rootFlag); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reposCmd)
	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposRemoveCmd)

	reposAddCmd.Flags().StringArrayVar(&repoTags, "tag", nil, "Label for the repository (repeatable)")
}
