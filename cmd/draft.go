package cmd

import (
	"fmt"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/draft"
	"github.com/autopotter/autopotter/internal/services/openai"
	"github.com/autopotter/autopotter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	draftConfigPath string
	draftOutPath    string
	draftPrompt     string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate draft video candidates without rendering",
	Long: `Ask the LLM for a batch of video candidates and save them to a draft
file that a later run can consume with --from-draft.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(draftConfigPath)
		if err != nil {
			return err
		}

		svc, err := openai.NewService(cfg.OpenAI.APIKey)
		if err != nil {
			return err
		}
		generator := draft.NewGenerator(svc, cfg.OpenAI)

		prompt := draftPrompt
		if prompt == "" {
			prompt = cfg.OpenAI.DraftPrompt
		}

		list, err := generator.Generate(ctx, prompt, promptContext(ctx, cfg))
		if err != nil {
			return fmt.Errorf("draft generation failed: %w", err)
		}

		if err := draft.SaveOutput(draftOutPath, prompt, list); err != nil {
			return err
		}

		usable := 0
		for _, candidate := range list.Videos {
			if !candidate.Config().IsEmpty() {
				usable++
			}
		}
		utils.LogSuccess("Generated %d candidates (%d with usable configs)", len(list.Videos), usable)
		return nil
	},
}

func init() {
	draftCmd.Flags().StringVarP(&draftConfigPath, "config", "c", "autopotter.yaml", "Path to the YAML config file")
	draftCmd.Flags().StringVarP(&draftOutPath, "draft-outfile", "o", "autodraft_output.json", "Where to save the generated draft candidates")
	draftCmd.Flags().StringVarP(&draftPrompt, "prompt", "p", "", "Draft prompt (defaults to the configured draft_prompt)")
	rootCmd.AddCommand(draftCmd)
}
