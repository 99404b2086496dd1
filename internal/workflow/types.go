// Package workflow orchestrates the draft-render-publish pipeline.
package workflow

import "errors"

var (
	// ErrNoViableCandidate means every candidate was tried and none rendered.
	ErrNoViableCandidate = errors.New("no viable candidate produced a video")
	// ErrDurationTooShort rejects a rendered video below the minimum duration.
	ErrDurationTooShort = errors.New("rendered video is too short")
	// errEmptyConfig marks a candidate whose config could not be salvaged.
	errEmptyConfig = errors.New("candidate has no usable render config")
)

// Options control a single workflow run.
type Options struct {
	// DraftOnly stops after download and retains the artifact.
	DraftOnly bool
	// PublishFromURL publishes from the render URL instead of uploading
	// the downloaded file.
	PublishFromURL bool
	// MinDuration is the minimum acceptable rendered length in seconds.
	MinDuration float64
	// ThumbOffsetMS pins the cover frame. Zero derives it from the
	// rendered duration.
	ThumbOffsetMS int
	// ArtifactDir is where downloaded videos land. Empty means the
	// system temp directory.
	ArtifactDir string
}

// Attempt records one candidate try and how it failed.
type Attempt struct {
	CandidateIndex int
	ProjectID      string
	Err            error
}

// Result is the outcome of a workflow run.
type Result struct {
	RunID          string
	CandidateIndex int
	ProjectID      string
	MediaID        string
	ArtifactPath   string
	Attempts       []Attempt
}
