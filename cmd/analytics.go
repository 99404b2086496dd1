package cmd

import (
	"github.com/autopotter/autopotter/internal/analytics"
	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	analyticsConfigPath string
	analyticsOutPath    string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Export Instagram account and media analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(analyticsConfigPath)
		if err != nil {
			return err
		}

		collector, err := analytics.NewClient(cfg.Instagram)
		if err != nil {
			return err
		}

		report, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		outPath := analyticsOutPath
		if outPath == "" {
			outPath = cfg.AnalyticsPath
		}
		if outPath == "" {
			outPath = "instagram_analytics.json"
		}
		if err := collector.SaveReport(report, outPath); err != nil {
			return err
		}

		utils.LogInfo("@%s: %d followers, %d posts", report.Account.Username,
			report.Account.FollowersCount, report.Account.MediaCount)
		return nil
	},
}

func init() {
	analyticsCmd.Flags().StringVarP(&analyticsConfigPath, "config", "c", "autopotter.yaml", "Path to the YAML config file")
	analyticsCmd.Flags().StringVarP(&analyticsOutPath, "output", "O", "", "Where to save the analytics JSON (defaults to the configured analytics_path)")
	rootCmd.AddCommand(analyticsCmd)
}
