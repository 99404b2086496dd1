package render

import (
	"context"

	"github.com/autopotter/autopotter/internal/draft"
)

// Renderer defines the interface for render service operations.
type Renderer interface {
	// Submit posts a render job configuration and returns the project ID
	Submit(ctx context.Context, cfg draft.RenderJobConfig) (string, error)

	// Status fetches the current status of a render job
	Status(ctx context.Context, projectID string) (JobStatus, error)

	// AwaitCompletion polls the job until a terminal state or timeout
	AwaitCompletion(ctx context.Context, projectID string) (JobStatus, error)

	// Download fetches the rendered artifact into destPath
	Download(ctx context.Context, projectID, destPath string) (string, error)

	// TestConnection verifies credentials against the remote API
	TestConnection(ctx context.Context) error
}

// Ensure Client implements Renderer
var _ Renderer = (*Client)(nil)
