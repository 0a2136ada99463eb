package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/cmipget/pkg/search"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the search result cache",
		Long:  "Clean and show information about cached search results",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove cached search results",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cache := search.NewCache(cfg.GetSearchCacheDir(), cfg.Settings.SearchCacheTTL)
			if err := cache.Clean(); err != nil {
				return fmt.Errorf("failed to clean search cache: %w", err)
			}
			fmt.Println("Search cache cleaned")
			return nil
		},
	}
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show search cache information",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cache := search.NewCache(cfg.GetSearchCacheDir(), cfg.Settings.SearchCacheTTL)
			count, size, err := cache.Info()
			if err != nil {
				return fmt.Errorf("failed to inspect search cache: %w", err)
			}
			fmt.Printf("Cache Directory: %s\n", cfg.GetSearchCacheDir())
			fmt.Printf("Cached Searches: %d\n", count)
			fmt.Printf("Total Size: %d bytes\n", size)
			return nil
		},
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show the cache directory path",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Println(cfg.GetCacheDir())
			return nil
		},
	}
}
