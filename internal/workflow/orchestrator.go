package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/autopotter/autopotter/internal/draft"
	"github.com/autopotter/autopotter/internal/publish"
	"github.com/autopotter/autopotter/internal/render"
	"github.com/autopotter/autopotter/internal/utils"

	"github.com/google/uuid"
)

const defaultMinDuration = 2.0

// Orchestrator runs the pipeline: pick a candidate, render it, and publish
// the first one that survives.
type Orchestrator struct {
	renderer  render.Renderer
	publisher publish.Publisher
	opts      Options

	// randInt picks a uniform index in [0, n). Overridable in tests.
	randInt func(n int) int
}

// New creates an orchestrator. The publisher may be nil for draft-only runs.
func New(renderer render.Renderer, publisher publish.Publisher, opts Options) *Orchestrator {
	if opts.MinDuration <= 0 {
		opts.MinDuration = defaultMinDuration
	}
	if opts.ArtifactDir == "" {
		opts.ArtifactDir = os.TempDir()
	}
	return &Orchestrator{
		renderer:  renderer,
		publisher: publisher,
		opts:      opts,
		randInt:   rand.Intn,
	}
}

// Run tries candidates in uniform random order until one renders, then
// publishes it. Candidates that fail to parse, render, or meet the minimum
// duration are discarded and the next one is tried. Rendering exhaustion is
// ErrNoViableCandidate; a publish failure after a successful render is fatal
// for the whole run. The downloaded artifact is removed on every exit path
// unless the run is draft-only.
func (o *Orchestrator) Run(ctx context.Context, candidates []draft.Candidate) (*Result, error) {
	result := &Result{
		RunID:          uuid.New().String(),
		CandidateIndex: -1,
	}
	if len(candidates) == 0 {
		return result, ErrNoViableCandidate
	}

	utils.LogInfo("Starting run %s with %d candidates", result.RunID, len(candidates))

	remaining := make([]int, len(candidates))
	for i := range candidates {
		remaining[i] = i
	}

	var renderURL string
	var renderDuration float64
	for len(remaining) > 0 && result.CandidateIndex < 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pick := o.randInt(len(remaining))
		idx := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)

		candidate := candidates[idx]
		utils.LogInfo("Trying candidate %d of %d: %s", idx+1, len(candidates), candidate.Title)

		cfg := candidate.Config()
		if cfg.IsEmpty() {
			utils.LogWarning("Candidate %d has no usable config, skipping without a render attempt", idx+1)
			result.Attempts = append(result.Attempts, Attempt{CandidateIndex: idx, Err: errEmptyConfig})
			continue
		}

		projectID, artifactPath, status, err := o.renderCandidate(ctx, result.RunID, cfg)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			utils.LogWarning("Candidate %d failed: %v", idx+1, err)
			result.Attempts = append(result.Attempts, Attempt{CandidateIndex: idx, ProjectID: projectID, Err: err})
			continue
		}

		result.CandidateIndex = idx
		result.ProjectID = projectID
		result.ArtifactPath = artifactPath
		renderURL = status.URL
		renderDuration = status.Duration
	}

	if result.CandidateIndex < 0 {
		return result, ErrNoViableCandidate
	}

	retain := o.opts.DraftOnly
	defer func() {
		if retain {
			return
		}
		if err := utils.RemoveFileIfExists(result.ArtifactPath); err != nil {
			utils.LogWarning("Failed to remove artifact %s: %v", result.ArtifactPath, err)
		}
	}()

	if o.opts.DraftOnly {
		utils.LogSuccess("Draft-only run complete, artifact retained at %s", result.ArtifactPath)
		return result, nil
	}

	mediaID, err := o.publishArtifact(ctx, candidates[result.CandidateIndex].Caption, result.ArtifactPath, renderURL, renderDuration)
	if err != nil {
		return result, fmt.Errorf("publish failed for candidate %d: %w", result.CandidateIndex+1, err)
	}

	result.MediaID = mediaID
	utils.LogSuccess("Run %s published media %s from candidate %d", result.RunID, mediaID, result.CandidateIndex+1)
	return result, nil
}

// renderCandidate takes one config through submit, completion, the duration
// gate, and download.
func (o *Orchestrator) renderCandidate(ctx context.Context, runID string, cfg draft.RenderJobConfig) (projectID, artifactPath string, status render.JobStatus, err error) {
	projectID, err = o.renderer.Submit(ctx, cfg)
	if err != nil {
		return "", "", status, fmt.Errorf("render submit failed: %w", err)
	}
	utils.LogVerbose("Render job submitted, project %s", projectID)

	status, err = o.renderer.AwaitCompletion(ctx, projectID)
	if err != nil {
		return projectID, "", status, err
	}

	if status.Duration < o.opts.MinDuration {
		return projectID, "", status, fmt.Errorf("rendered %.1fs, minimum is %.1fs: %w",
			status.Duration, o.opts.MinDuration, ErrDurationTooShort)
	}

	dest := filepath.Join(o.opts.ArtifactDir, fmt.Sprintf("autopotter-%s-%s.mp4", runID, projectID))
	artifactPath, err = o.renderer.Download(ctx, projectID, dest)
	if err != nil {
		return projectID, "", status, fmt.Errorf("download failed: %w", err)
	}

	return projectID, artifactPath, status, nil
}

// publishArtifact runs the single-shot publish path: container create,
// optional binary upload, readiness poll, publish.
func (o *Orchestrator) publishArtifact(ctx context.Context, caption, artifactPath, renderURL string, duration float64) (string, error) {
	if o.publisher == nil {
		return "", fmt.Errorf("no publisher configured")
	}

	source := publish.MediaSource{ThumbOffsetMS: o.thumbOffset(duration)}
	if o.opts.PublishFromURL && renderURL != "" {
		source.URL = renderURL
	} else {
		source.LocalPath = artifactPath
	}

	containerID, err := o.publisher.CreateContainer(ctx, caption, source)
	if err != nil {
		return "", err
	}
	utils.LogVerbose("Media container created: %s", containerID)

	if source.LocalPath != "" {
		if err := o.publisher.UploadVideo(ctx, containerID, source.LocalPath); err != nil {
			return "", err
		}
	}

	status, err := o.publisher.AwaitReady(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("container %s never became ready (last status %s): %w", containerID, status, err)
	}

	return o.publisher.Publish(ctx, containerID)
}

// thumbOffset picks the cover frame: the configured offset when set,
// otherwise one second before the end of the video.
func (o *Orchestrator) thumbOffset(duration float64) int {
	if o.opts.ThumbOffsetMS > 0 {
		return o.opts.ThumbOffsetMS
	}
	if duration <= 1 {
		return 0
	}
	return int((duration - 1) * 1000)
}
