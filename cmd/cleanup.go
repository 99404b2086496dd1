package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/autopotter/autopotter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	cleanupDir    string
	olderThanDays int
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftover downloaded video artifacts",
	Long: `Remove autopotter-*.mp4 files left behind by draft-only runs or
interrupted workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanupDir == "" {
			cleanupDir = os.TempDir()
		}
		if _, err := os.Stat(cleanupDir); os.IsNotExist(err) {
			return fmt.Errorf("directory %s does not exist", cleanupDir)
		}

		matches, err := filepath.Glob(filepath.Join(cleanupDir, "autopotter-*.mp4"))
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cleanupDir, err)
		}

		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		var toDelete []string
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if olderThanDays == 0 || info.ModTime().Before(cutoff) {
				toDelete = append(toDelete, path)
			}
		}

		if len(toDelete) == 0 {
			utils.LogInfo("No artifacts to delete.")
			return nil
		}

		utils.LogInfo("Found %d artifacts to delete:", len(toDelete))
		for _, path := range toDelete {
			utils.LogInfo("- %s", path)
		}

		if cleanupDryRun {
			utils.LogInfo("Dry run - no files were deleted.")
			return nil
		}

		for _, path := range toDelete {
			if err := os.Remove(path); err != nil {
				utils.LogWarning("Error deleting %s: %v", path, err)
			}
		}

		utils.LogSuccess("Cleanup completed.")
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVarP(&cleanupDir, "dir", "d", "", "Directory to clean up (defaults to the system temp dir)")
	cleanupCmd.Flags().IntVarP(&olderThanDays, "older-than", "o", 0, "Only delete artifacts older than this many days")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "Show what would be deleted without actually deleting")
	rootCmd.AddCommand(cleanupCmd)
}
