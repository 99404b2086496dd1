package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/utils"
)

// Client talks to the Meta Graph API for one Instagram user.
type Client struct {
	userID        string
	accessToken   string
	graphBaseURL  string
	uploadBaseURL string
	maxPolls      int
	pollInterval  time.Duration
	httpClient    *http.Client
}

// graphResponse covers the small JSON answers the Graph API sends back.
type graphResponse struct {
	ID         string `json:"id"`
	URI        string `json:"uri,omitempty"`
	Status     string `json:"status,omitempty"`
	StatusCode string `json:"status_code,omitempty"`
	Success    bool   `json:"success,omitempty"`
	Error      *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// NewClient creates a publish client. Missing credentials fail fast here,
// before any candidate is rendered.
func NewClient(ig config.InstagramConfig, pub config.PublishConfig) (*Client, error) {
	if ig.UserID == "" {
		return nil, fmt.Errorf("instagram user ID is not set")
	}
	if ig.AccessToken == "" {
		return nil, fmt.Errorf("instagram access token is not set")
	}
	return &Client{
		userID:        ig.UserID,
		accessToken:   ig.AccessToken,
		graphBaseURL:  "https://graph.facebook.com/" + ig.APIVersion,
		uploadBaseURL: "https://rupload.facebook.com/ig-api-upload/" + ig.APIVersion,
		maxPolls:      pub.MaxPolls,
		pollInterval:  time.Duration(pub.PollSeconds) * time.Second,
		httpClient:    &http.Client{},
	}, nil
}

// CreateContainer provisions a REELS media container for the given caption
// and source. A URL source is referenced directly; a local source creates a
// resumable container that expects a subsequent UploadVideo call.
func (c *Client) CreateContainer(ctx context.Context, caption string, source MediaSource) (string, error) {
	payload := url.Values{
		"media_type":   {"REELS"},
		"caption":      {caption},
		"access_token": {c.accessToken},
	}
	switch {
	case source.URL != "":
		payload.Set("video_url", source.URL)
	case source.LocalPath != "":
		payload.Set("upload_type", "resumable")
	default:
		return "", fmt.Errorf("media source has neither URL nor local path")
	}
	if source.ThumbOffsetMS > 0 {
		payload.Set("thumb_offset", strconv.Itoa(source.ThumbOffsetMS))
	}

	endpoint := fmt.Sprintf("%s/%s/media", c.graphBaseURL, c.userID)
	resp, err := c.postForm(ctx, endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("container creation failed: %w", err)
	}
	if resp.ID == "" {
		return "", ErrNoContainerID
	}

	utils.LogInfo("Media container created: %s", resp.ID)
	return resp.ID, nil
}

// UploadVideo streams a local file to the resumable upload endpoint.
func (c *Client) UploadVideo(ctx context.Context, containerID, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			utils.LogWarning("Failed to close video file: %v", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat video file: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s", c.uploadBaseURL, containerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.accessToken)
	req.Header.Set("offset", "0")
	req.Header.Set("file_size", strconv.FormatInt(info.Size(), 10))
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("video upload failed: %w", err)
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("video upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var result graphResponse
	if err := json.Unmarshal(body, &result); err == nil && result.Error != nil {
		return fmt.Errorf("video upload rejected: %s", result.Error.Message)
	}

	utils.LogSuccess("Uploaded %s (%s) to container %s", localPath, utils.HumanSize(info.Size()), containerID)
	return nil
}

// Status fetches the container's processing state.
func (c *Client) Status(ctx context.Context, containerID string) (ContainerStatus, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.graphBaseURL, containerID, url.Values{
		"fields":       {"status_code,status"},
		"access_token": {c.accessToken},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create status request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("container status request failed: %w", err)
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read status response: %w", err)
	}

	var result graphResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse status response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("container status error: %s", result.Error.Message)
	}
	if result.StatusCode == "" {
		return StatusInProgress, nil
	}
	return ContainerStatus(strings.ToUpper(result.StatusCode)), nil
}

// AwaitReady polls the container until FINISHED or an absorbing failure
// state, with a fixed budget of maxPolls attempts spaced pollInterval apart.
// Exhausting the budget yields StatusTimeout with ErrReadyTimeout, which is
// the same failure class as ERROR/EXPIRED but distinguishable in the status.
// The publish side has a hard platform processing window, hence the fixed
// budget instead of an open-ended deadline.
func (c *Client) AwaitReady(ctx context.Context, containerID string) (ContainerStatus, error) {
	utils.LogInfo("Waiting for container %s to become ready (up to %d polls)", containerID, c.maxPolls)

	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		status, err := c.Status(ctx, containerID)
		if err != nil {
			return "", fmt.Errorf("readiness poll %d failed: %w", attempt, err)
		}

		switch status {
		case StatusFinished:
			utils.LogSuccess("Container %s is ready", containerID)
			return status, nil
		case StatusError, StatusExpired:
			return status, fmt.Errorf("%w: container %s reached %s", ErrContainerFailed, containerID, status)
		default:
			utils.LogVerbose("Container %s is %s (poll %d/%d)", containerID, status, attempt, c.maxPolls)
		}

		if attempt < c.maxPolls {
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return "", err
			}
		}
	}

	return StatusTimeout, fmt.Errorf("%w: container %s after %d polls", ErrReadyTimeout, containerID, c.maxPolls)
}

// Publish finalizes a FINISHED container and returns the published media ID.
// Finalization is irreversible; calling it on a non-ready container is
// rejected by the remote API and surfaces as ErrPublishFailed.
func (c *Client) Publish(ctx context.Context, containerID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish", c.graphBaseURL, c.userID)
	resp, err := c.postForm(ctx, endpoint, url.Values{
		"creation_id":  {containerID},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPublishFailed, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: no media ID in response", ErrPublishFailed)
	}

	utils.LogSuccess("Published media %s", resp.ID)
	return resp.ID, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, payload url.Values) (*graphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result graphResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %s", resp.StatusCode, string(body))
	}
	if result.Error != nil {
		return nil, fmt.Errorf("graph API error: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, string(body))
	}
	return &result, nil
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
