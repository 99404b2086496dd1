package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/draft"
	"github.com/autopotter/autopotter/internal/utils"
)

// movieEnvelope is the wire shape of status responses. The endpoint answers
// either with a single movie object or with a movies list to scan.
type movieEnvelope struct {
	Movie  *movieStatus  `json:"movie,omitempty"`
	Movies []movieStatus `json:"movies,omitempty"`
	movieStatus
}

type movieStatus struct {
	Project  string  `json:"project,omitempty"`
	Status   string  `json:"status,omitempty"`
	Success  bool    `json:"success,omitempty"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
	URL      string  `json:"url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Size     int64   `json:"size,omitempty"`
}

// submitResponse is the wire shape of POST /movies answers.
type submitResponse struct {
	Success bool   `json:"success"`
	Project string `json:"project"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the json2video-style render API. It holds no job state:
// callers keep the project ID.
type Client struct {
	apiKey       string
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewClient creates a render client from configuration.
func NewClient(cfg config.RenderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("render API key is not set")
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
		pollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		httpClient:   &http.Client{},
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
}

// Submit posts a render job configuration and returns the remote project ID.
func (c *Client) Submit(ctx context.Context, cfg draft.RenderJobConfig) (string, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/movies", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("render submission failed: %w", err)
	}
	defer closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("render submission returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result submitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if result.Project == "" {
		utils.LogError("Render API returned no project ID, raw response: %s", string(respBody))
		if result.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoProjectID, result.Error)
		}
		if result.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrNoProjectID, result.Message)
		}
		return "", ErrNoProjectID
	}

	utils.LogInfo("Render job submitted, project ID: %s", result.Project)
	return result.Project, nil
}

// Status fetches the current status of a render job. A job not present in the
// response maps to StateNotFoundYet: newly submitted projects are not always
// immediately visible.
func (c *Client) Status(ctx context.Context, projectID string) (JobStatus, error) {
	endpoint := fmt.Sprintf("%s/movies?%s", c.baseURL, url.Values{"project": {projectID}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("failed to create status request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	defer closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return JobStatus{}, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return JobStatus{}, fmt.Errorf("status request returned %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope movieEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return JobStatus{}, fmt.Errorf("failed to parse status response: %w", err)
	}

	movie := envelope.pick(projectID)
	if movie == nil {
		utils.LogVerbose("Project %s not visible to status endpoint yet", projectID)
		return JobStatus{Project: projectID, State: StateNotFoundYet}, nil
	}
	return movie.toJobStatus(projectID), nil
}

// pick selects the status record for projectID from whichever envelope shape
// the endpoint used.
func (e *movieEnvelope) pick(projectID string) *movieStatus {
	if e.Movie != nil {
		return e.Movie
	}
	if len(e.Movies) > 0 {
		for i := range e.Movies {
			if e.Movies[i].Project == projectID {
				return &e.Movies[i]
			}
		}
		return nil
	}
	if e.Status != "" || e.Project != "" {
		return &e.movieStatus
	}
	return nil
}

func (m *movieStatus) toJobStatus(projectID string) JobStatus {
	status := JobStatus{
		Project:  projectID,
		Message:  m.Message,
		URL:      m.URL,
		Duration: m.Duration,
		Width:    m.Width,
		Height:   m.Height,
		Size:     m.Size,
	}
	if m.Error != "" && status.Message == "" {
		status.Message = m.Error
	}
	switch m.Status {
	case "done":
		status.State = StateDone
	case "error":
		status.State = StateError
	case "pending":
		status.State = StatePending
	case "processing":
		status.State = StateProcessing
	case "running":
		status.State = StateRunning
	default:
		if m.Success {
			status.State = StateDone
		} else {
			status.State = StateUnknown
		}
	}
	return status
}

// AwaitCompletion polls the job until it reaches a terminal state. An error
// status fails immediately without further polls; pending, processing and
// not-found-yet states are retried at the configured interval until the
// timeout budget elapses, yielding ErrRenderTimeout. The context is checked
// on every iteration so a cancellation interrupts the wait.
func (c *Client) AwaitCompletion(ctx context.Context, projectID string) (JobStatus, error) {
	utils.LogInfo("Waiting for render job %s to complete (timeout %s)", projectID, c.timeout)
	start := time.Now()

	for time.Since(start) < c.timeout {
		status, err := c.Status(ctx, projectID)
		if err != nil {
			return JobStatus{}, fmt.Errorf("render status check failed: %w", err)
		}

		switch status.State {
		case StateDone:
			utils.LogSuccess("Render job %s completed (%.1fs, %dx%d)",
				projectID, status.Duration, status.Width, status.Height)
			return status, nil
		case StateError:
			if status.Message != "" {
				return status, fmt.Errorf("%w: %s", ErrRenderFailed, status.Message)
			}
			return status, ErrRenderFailed
		default:
			utils.LogVerbose("Render job %s is %s, next poll in %s", projectID, status.State, c.pollInterval)
		}

		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return JobStatus{}, err
		}
	}

	return JobStatus{}, fmt.Errorf("%w after %s", ErrRenderTimeout, c.timeout)
}

// Download fetches the rendered artifact of a completed job into destPath and
// returns the path written.
func (c *Client) Download(ctx context.Context, projectID, destPath string) (string, error) {
	status, err := c.Status(ctx, projectID)
	if err != nil {
		return "", err
	}
	if status.State != StateDone {
		return "", fmt.Errorf("render job %s not ready for download (state %s)", projectID, status.State)
	}
	if status.URL == "" {
		return "", ErrNoDownloadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, status.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("artifact download failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artifact download returned status %d", resp.StatusCode)
	}

	if err := utils.EnsureDir(destPath); err != nil {
		return "", err
	}
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			utils.LogWarning("Failed to close %s: %v", destPath, err)
		}
	}()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		if removeErr := utils.RemoveFileIfExists(destPath); removeErr != nil {
			utils.LogWarning("Failed to remove partial artifact %s: %v", destPath, removeErr)
		}
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	utils.LogSuccess("Artifact downloaded to %s (%s)", destPath, utils.HumanSize(written))
	return destPath, nil
}

// TestConnection verifies the API key by listing movies.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/movies", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("render API key authentication failed")
	case http.StatusForbidden:
		return fmt.Errorf("render API access forbidden - check API key permissions")
	default:
		return fmt.Errorf("unexpected response from render API: %d", resp.StatusCode)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		utils.LogWarning("Failed to close response body: %v", err)
	}
}
