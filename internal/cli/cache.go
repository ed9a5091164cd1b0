package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/gaia-agent/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the answer and fact caches",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached answers and scraped facts",
	Long: `Clear removes the on-disk answer and fact caches, forcing fresh scrapes
and fresh answers on the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, sub := range []string{"facts", "answers"} {
			dir := filepath.Join(cfg.Cache.Dir, sub)
			if err := cache.NewDiskCache(dir, 0).Clear(); err != nil {
				return fmt.Errorf("clear %s: %w", dir, err)
			}
			fmt.Printf("✓ Cleared %s\n", dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
