package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the fetch caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per cache category",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		stats, err := eng.CacheStats()
		if err != nil {
			return err
		}
		return printOutput(stats)
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		removed, err := eng.CleanExpired()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty every cache category",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := loadEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.ClearAll(); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
