package cmd

import (
	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/inventory"
	"github.com/autopotter/autopotter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	inventoryConfigPath string
	inventoryOutPath    string
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Export a file inventory of the media bucket",
	Long: `Scan the configured GCS folders and export a per-folder inventory of the
media files available to the draft generator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(inventoryConfigPath)
		if err != nil {
			return err
		}

		scanner, err := inventory.NewService(ctx, cfg.GCS)
		if err != nil {
			return err
		}

		report, err := scanner.GenerateReport(ctx)
		if err != nil {
			return err
		}

		if err := scanner.SaveReport(report, inventoryOutPath); err != nil {
			return err
		}

		for folder, files := range report.FilesByFolder {
			utils.LogInfo("%s: %d files", folder, len(files))
		}
		return nil
	},
}

func init() {
	inventoryCmd.Flags().StringVarP(&inventoryConfigPath, "config", "c", "autopotter.yaml", "Path to the YAML config file")
	inventoryCmd.Flags().StringVarP(&inventoryOutPath, "output", "O", "gcs_inventory.json", "Where to save the inventory JSON")
	rootCmd.AddCommand(inventoryCmd)
}
