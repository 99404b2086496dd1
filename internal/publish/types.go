// Package publish wraps the Meta Graph API flow for posting a video: create
// a media container, upload the bytes, poll readiness, then finalize.
package publish

import (
	"errors"
)

// ContainerStatus is the processing state of a remote media container.
type ContainerStatus string

const (
	// StatusInProgress covers the pre-terminal processing states
	StatusInProgress ContainerStatus = "IN_PROGRESS"
	// StatusFinished means the container is ready to publish
	StatusFinished ContainerStatus = "FINISHED"
	// StatusError is an absorbing failure state
	StatusError ContainerStatus = "ERROR"
	// StatusExpired means the platform processing window elapsed
	StatusExpired ContainerStatus = "EXPIRED"
	// StatusPublished means the container was already finalized
	StatusPublished ContainerStatus = "PUBLISHED"
	// StatusTimeout is reported locally when the poll budget runs out
	// before the remote side reaches a terminal state
	StatusTimeout ContainerStatus = "TIMEOUT"
)

// Terminal reports whether the remote side will make no further transition.
func (s ContainerStatus) Terminal() bool {
	switch s {
	case StatusFinished, StatusError, StatusExpired, StatusPublished:
		return true
	}
	return false
}

// MediaSource identifies the video to attach to a container: either a remote
// URL referenced directly or a local file uploaded in a follow-up step.
type MediaSource struct {
	URL       string
	LocalPath string
	// ThumbOffsetMS selects the cover frame, in milliseconds from the start.
	ThumbOffsetMS int
}

var (
	// ErrNoContainerID means container creation returned no id
	ErrNoContainerID = errors.New("no container ID in publish API response")
	// ErrContainerFailed means the container reached ERROR or EXPIRED
	ErrContainerFailed = errors.New("media container failed")
	// ErrReadyTimeout means the poll budget elapsed before readiness
	ErrReadyTimeout = errors.New("media container not ready within poll budget")
	// ErrPublishFailed means finalization was rejected
	ErrPublishFailed = errors.New("media publish failed")
)
