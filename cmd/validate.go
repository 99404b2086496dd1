package cmd

import (
	"fmt"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/render"
	"github.com/autopotter/autopotter/internal/utils"

	"github.com/spf13/cobra"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and remote service access",
	Long:  `Check that the config file is complete and the render service accepts the configured credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.LogInfo("Validating configuration...")

		cfg, err := config.Load(validateConfigPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		utils.LogSuccess("Configuration: OK")

		if cfg.TokenExpired(time.Now()) {
			utils.LogWarning("Instagram access token expires %s and is inside the refresh window",
				cfg.Instagram.TokenExpiration)
		} else {
			utils.LogSuccess("Instagram token: OK (expires %s)", cfg.Instagram.TokenExpiration)
		}

		client, err := render.NewClient(cfg.Render)
		if err != nil {
			return err
		}
		if err := client.TestConnection(cmd.Context()); err != nil {
			return fmt.Errorf("render service validation failed: %w", err)
		}
		utils.LogSuccess("Render service: OK")

		utils.LogSuccess("Validation completed successfully")
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "autopotter.yaml", "Path to the YAML config file")
	rootCmd.AddCommand(validateCmd)
}
