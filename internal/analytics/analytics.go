package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/utils"
)

// DefaultMediaLimit caps how many recent posts a collection pulls.
const DefaultMediaLimit = 10

// AccountInfo is the business account snapshot.
type AccountInfo struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name,omitempty"`
	Biography      string `json:"biography,omitempty"`
	Website        string `json:"website,omitempty"`
	FollowersCount int64  `json:"followers_count"`
	FollowsCount   int64  `json:"follows_count"`
	MediaCount     int64  `json:"media_count"`
}

// Caption tolerates the Graph API returning a caption either as a plain
// string or as an object with a text field.
type Caption string

func (c *Caption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Caption(s)
		return nil
	}
	var wrapped struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*c = Caption(wrapped.Text)
	return nil
}

// MediaItem is one recent post with its engagement counts.
type MediaItem struct {
	ID            string  `json:"id"`
	MediaType     string  `json:"media_type"`
	MediaURL      string  `json:"media_url,omitempty"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	Permalink     string  `json:"permalink,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
	Caption       Caption `json:"caption,omitempty"`
	LikeCount     int64   `json:"like_count"`
	CommentsCount int64   `json:"comments_count"`
}

// Report is the analytics document exported to JSON and optionally folded
// into the draft prompt context.
type Report struct {
	CollectedAt string      `json:"collected_at"`
	Account     AccountInfo `json:"account"`
	RecentMedia []MediaItem `json:"recent_media"`
}

type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Client collects account and media analytics from the Instagram Graph API.
type Client struct {
	userID       string
	accessToken  string
	graphBaseURL string
	mediaLimit   int
	httpClient   *http.Client
}

// NewClient creates an analytics collector from the Instagram configuration.
func NewClient(ig config.InstagramConfig) (*Client, error) {
	if ig.UserID == "" {
		return nil, fmt.Errorf("instagram user ID is not configured")
	}
	if ig.AccessToken == "" {
		return nil, fmt.Errorf("instagram access token is not configured")
	}

	return &Client{
		userID:       ig.UserID,
		accessToken:  ig.AccessToken,
		graphBaseURL: "https://graph.facebook.com/" + ig.APIVersion,
		mediaLimit:   DefaultMediaLimit,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// AccountInfo fetches the business account profile and follower counts.
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	body, err := c.get(ctx, c.userID, url.Values{
		"fields": {"id,username,name,biography,website,followers_count,follows_count,media_count"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account info: %w", err)
	}

	var info AccountInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse account info: %w", err)
	}
	return &info, nil
}

// RecentMedia fetches the most recent posts with their engagement counts.
// A limit of zero falls back to the client default.
func (c *Client) RecentMedia(ctx context.Context, limit int) ([]MediaItem, error) {
	if limit <= 0 {
		limit = c.mediaLimit
	}

	body, err := c.get(ctx, c.userID+"/media", url.Values{
		"fields": {"id,media_type,media_url,thumbnail_url,permalink,timestamp,caption,like_count,comments_count"},
		"limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent media: %w", err)
	}

	var listing struct {
		Data []MediaItem `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse media listing: %w", err)
	}

	utils.LogVerbose("Retrieved %d recent media items", len(listing.Data))
	return listing.Data, nil
}

// Collect assembles the full analytics report.
func (c *Client) Collect(ctx context.Context) (*Report, error) {
	utils.LogInfo("Collecting Instagram analytics...")

	account, err := c.AccountInfo(ctx)
	if err != nil {
		return nil, err
	}

	media, err := c.RecentMedia(ctx, 0)
	if err != nil {
		return nil, err
	}

	utils.LogSuccess("Analytics collected for @%s: %d recent posts", account.Username, len(media))
	return &Report{
		CollectedAt: time.Now().Format(time.RFC3339),
		Account:     *account,
		RecentMedia: media,
	}, nil
}

// SaveReport writes the analytics document to a JSON file.
func (c *Client) SaveReport(report *Report, outputPath string) error {
	if err := utils.WriteJSONFile(outputPath, report); err != nil {
		return fmt.Errorf("failed to save analytics: %w", err)
	}
	utils.LogInfo("Analytics saved to %s", outputPath)
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("access_token", c.accessToken)
	endpoint := fmt.Sprintf("%s/%s?%s", c.graphBaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogWarning("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr graphError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("graph API error (code %d): %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
