package publish

import (
	"context"
)

// Publisher defines the interface for social-publish operations.
type Publisher interface {
	// CreateContainer provisions a media container for the caption and source
	CreateContainer(ctx context.Context, caption string, source MediaSource) (string, error)

	// UploadVideo streams a local file to the resumable upload endpoint
	UploadVideo(ctx context.Context, containerID, localPath string) error

	// Status fetches the container's processing state
	Status(ctx context.Context, containerID string) (ContainerStatus, error)

	// AwaitReady polls the container until ready, failed, or budget exhausted
	AwaitReady(ctx context.Context, containerID string) (ContainerStatus, error)

	// Publish finalizes a FINISHED container and returns the media ID
	Publish(ctx context.Context, containerID string) (string, error)
}

// Ensure Client implements Publisher
var _ Publisher = (*Client)(nil)
