package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouze/asp-classic-parser/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the parse result cache",
}

var cacheOpts struct {
	path string
	all  bool
}

var cacheStatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show cache location and entry count",
	SilenceUsage: true,
	RunE:         runCacheStats,
}

var cacheCleanCmd = &cobra.Command{
	Use:          "clean",
	Short:        "Remove expired cache entries (or the whole cache with --all)",
	SilenceUsage: true,
	RunE:         runCacheClean,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheOpts.path, "cache-path", "", "override the cache snapshot location")
	cacheCleanCmd.Flags().BoolVar(&cacheOpts.all, "all", false, "drop every entry, not just expired ones")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}

func cacheSnapshotPath() string {
	if cacheOpts.path != "" {
		return cacheOpts.path
	}
	return cache.DefaultPath()
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	path := cacheSnapshotPath()
	store := cache.Load(path)
	fmt.Fprintf(cmd.OutOrStdout(), "Cache file: %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Entries:    %d\n", store.Len())
	return nil
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	path := cacheSnapshotPath()
	if cacheOpts.all {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	}
	store := cache.Load(path)
	removed := store.SweepExpired()
	if err := store.Save(path); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries, %d remaining\n", removed, store.Len())
	return nil
}
