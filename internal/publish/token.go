package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/utils"

	"golang.org/x/oauth2"
)

// exchangeResponse is the long-lived token exchange answer.
type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// TokenRefresher exchanges a long-lived Graph API token for a fresh one and
// persists the rotation back to the config file.
type TokenRefresher struct {
	graphBaseURL string
	httpClient   *http.Client
	now          func() time.Time
}

// NewTokenRefresher creates a refresher for the given Graph API version.
func NewTokenRefresher(apiVersion string) *TokenRefresher {
	return &TokenRefresher{
		graphBaseURL: "https://graph.facebook.com/" + apiVersion,
		httpClient:   &http.Client{},
		now:          time.Now,
	}
}

// EnsureFresh refreshes the configured access token when its stored
// expiration falls inside the refresh window, saving the rotated token and
// new expiration to configPath. A token nowhere near expiry is left alone.
func (r *TokenRefresher) EnsureFresh(ctx context.Context, cfg *config.Config, configPath string) error {
	if !cfg.TokenExpired(r.now()) {
		utils.LogVerbose("Access token valid until %s, no refresh needed", cfg.Instagram.TokenExpiration)
		return nil
	}

	utils.LogInfo("Refreshing Instagram access token...")
	token, err := r.Exchange(ctx, cfg.Instagram.AppID, cfg.Instagram.AppSecret, cfg.Instagram.AccessToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	cfg.Instagram.AccessToken = token.AccessToken
	cfg.Instagram.TokenExpiration = token.Expiry.Format(config.TokenTimeLayout)

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	utils.LogSuccess("Access token refreshed, expires %s", cfg.Instagram.TokenExpiration)
	return nil
}

// Exchange performs the fb_exchange_token grant and returns the new
// long-lived token with its computed expiry.
func (r *TokenRefresher) Exchange(ctx context.Context, appID, appSecret, currentToken string) (*oauth2.Token, error) {
	endpoint := fmt.Sprintf("%s/oauth/access_token?%s", r.graphBaseURL, url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {appID},
		"client_secret":     {appSecret},
		"fb_exchange_token": {currentToken},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange request failed: %w", err)
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}

	var result exchangeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse exchange response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("token exchange rejected: %s", result.Error.Message)
	}
	if result.AccessToken == "" || result.ExpiresIn == 0 {
		return nil, fmt.Errorf("token exchange returned no usable token: %s", string(body))
	}

	return &oauth2.Token{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		Expiry:      r.now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}
