package cmd

import (
	"context"
	"fmt"

	"github.com/autopotter/autopotter/internal/analytics"
	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/draft"
	"github.com/autopotter/autopotter/internal/inventory"
	"github.com/autopotter/autopotter/internal/publish"
	"github.com/autopotter/autopotter/internal/render"
	"github.com/autopotter/autopotter/internal/services/openai"
	"github.com/autopotter/autopotter/internal/utils"
	"github.com/autopotter/autopotter/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	draftOutfile string
	runPrompt    string
	videoOutDir  string
	draftOnly    bool
	useDraftFile bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full draft-render-publish pipeline",
	Long: `Generate draft video candidates, render the first viable one through the
remote render service, and publish it as an Instagram reel. With
--draft-only the pipeline stops after download and keeps the video.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if !draftOnly {
			refresher := publish.NewTokenRefresher(cfg.Instagram.APIVersion)
			if err := refresher.EnsureFresh(ctx, cfg, configPath); err != nil {
				return err
			}
		}

		candidates, err := obtainCandidates(ctx, cfg)
		if err != nil {
			return err
		}

		renderer, err := render.NewClient(cfg.Render)
		if err != nil {
			return err
		}

		var publisher publish.Publisher
		if !draftOnly {
			client, err := publish.NewClient(cfg.Instagram, cfg.Publish)
			if err != nil {
				return err
			}
			publisher = client
		}

		orchestrator := workflow.New(renderer, publisher, workflow.Options{
			DraftOnly:      draftOnly,
			PublishFromURL: cfg.Publish.FromURL,
			MinDuration:    cfg.Render.MinDurationSeconds,
			ThumbOffsetMS:  cfg.Render.ThumbnailOffsetMS,
			ArtifactDir:    videoOutDir,
		})

		result, err := orchestrator.Run(ctx, candidates)
		if err != nil {
			return fmt.Errorf("workflow failed: %w", err)
		}

		if draftOnly {
			utils.LogSuccess("Video rendered to %s (draft-only, not published)", result.ArtifactPath)
		} else {
			utils.LogSuccess("Published media %s (project %s)", result.MediaID, result.ProjectID)
		}
		return nil
	},
}

// obtainCandidates loads a pre-generated draft file or generates a fresh
// batch, saving the result for inspection and reruns.
func obtainCandidates(ctx context.Context, cfg *config.Config) ([]draft.Candidate, error) {
	if useDraftFile {
		out, err := draft.LoadOutput(draftOutfile)
		if err != nil {
			return nil, err
		}
		utils.LogInfo("Loaded %d candidates from %s", len(out.ParsedOutput.Videos), draftOutfile)
		return out.ParsedOutput.Videos, nil
	}

	svc, err := openai.NewService(cfg.OpenAI.APIKey)
	if err != nil {
		return nil, err
	}
	generator := draft.NewGenerator(svc, cfg.OpenAI)

	prompt := runPrompt
	if prompt == "" {
		prompt = cfg.OpenAI.DraftPrompt
	}

	list, err := generator.Generate(ctx, prompt, promptContext(ctx, cfg))
	if err != nil {
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	if draftOutfile != "" {
		if err := draft.SaveOutput(draftOutfile, prompt, list); err != nil {
			utils.LogWarning("Could not save draft output: %v", err)
		}
	}
	return list.Videos, nil
}

// promptContext gathers bucket inventory and account analytics for the draft
// prompt. Both sources are best-effort; a failure is logged and the draft
// proceeds without that context.
func promptContext(ctx context.Context, cfg *config.Config) map[string]interface{} {
	data := make(map[string]interface{})

	if cfg.GCS.Bucket != "" && cfg.GCS.CredentialsPath != "" {
		scanner, err := inventory.NewService(ctx, cfg.GCS)
		if err != nil {
			utils.LogWarning("Skipping inventory context: %v", err)
		} else if report, err := scanner.GenerateReport(ctx); err != nil {
			utils.LogWarning("Skipping inventory context: %v", err)
		} else {
			data["gcs_inventory"] = report
		}
	}

	if cfg.Instagram.IncludeInsights {
		if report := analyticsContext(ctx, cfg); report != nil {
			data["instagram_analytics"] = report
		}
	}

	return data
}

// analyticsContext returns a fresh analytics report when a reload is
// configured, falling back to the last export on disk.
func analyticsContext(ctx context.Context, cfg *config.Config) *analytics.Report {
	if cfg.ReloadAnalytics {
		collector, err := analytics.NewClient(cfg.Instagram)
		if err != nil {
			utils.LogWarning("Skipping analytics context: %v", err)
			return nil
		}
		report, err := collector.Collect(ctx)
		if err != nil {
			utils.LogWarning("Analytics reload failed, continuing with existing data: %v", err)
		} else {
			if cfg.AnalyticsPath != "" {
				if err := collector.SaveReport(report, cfg.AnalyticsPath); err != nil {
					utils.LogWarning("Could not save analytics export: %v", err)
				}
			}
			return report
		}
	}

	if cfg.AnalyticsPath == "" || !utils.FileExists(cfg.AnalyticsPath) {
		return nil
	}
	var report analytics.Report
	if err := utils.ReadJSONFile(cfg.AnalyticsPath, &report); err != nil {
		utils.LogWarning("Could not read analytics export %s: %v", cfg.AnalyticsPath, err)
		return nil
	}
	return &report
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "autopotter.yaml", "Path to the YAML config file")
	runCmd.Flags().StringVarP(&draftOutfile, "draft-outfile", "o", "autodraft_output.json", "Where to save the generated draft candidates")
	runCmd.Flags().StringVarP(&runPrompt, "prompt", "p", "", "Draft prompt (defaults to the configured draft_prompt)")
	runCmd.Flags().StringVar(&videoOutDir, "video-out", "", "Directory for the downloaded video (defaults to the system temp dir)")
	runCmd.Flags().BoolVar(&draftOnly, "draft-only", false, "Stop after rendering and keep the video instead of publishing")
	runCmd.Flags().BoolVar(&useDraftFile, "from-draft", false, "Skip generation and load candidates from --draft-outfile")
	rootCmd.AddCommand(runCmd)
}
