// Package render wraps the asynchronous video-rendering service: submit a
// job, poll its status until a terminal state, download the artifact.
package render

import (
	"errors"
)

// State is the lifecycle state of a remote render job.
type State string

const (
	// StatePending means the job is queued but not started
	StatePending State = "pending"
	// StateProcessing means the job is being rendered
	StateProcessing State = "processing"
	// StateRunning is an alternate in-progress state some jobs report
	StateRunning State = "running"
	// StateDone is the terminal success state
	StateDone State = "done"
	// StateError is the terminal failure state
	StateError State = "error"
	// StateNotFoundYet means the job is not yet visible to the status
	// endpoint. Freshly submitted jobs can take a poll cycle or two to
	// appear; this is transient, not a failure.
	StateNotFoundYet State = "not_found_yet"
	// StateUnknown covers unrecognized status strings, treated as transient
	StateUnknown State = "unknown"
)

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// JobStatus is a snapshot of a render job, including result metadata once the
// job is done.
type JobStatus struct {
	Project  string
	State    State
	Message  string
	URL      string
	Duration float64
	Width    int
	Height   int
	Size     int64
}

var (
	// ErrNoProjectID means the submission response carried no job identifier
	ErrNoProjectID = errors.New("no project ID in render API response")
	// ErrRenderFailed means the job reached the error state
	ErrRenderFailed = errors.New("render job failed")
	// ErrRenderTimeout means the job did not reach a terminal state in time
	ErrRenderTimeout = errors.New("render job timed out")
	// ErrNoDownloadURL means the terminal status carried no artifact URL
	ErrNoDownloadURL = errors.New("no download URL in render job status")
)
