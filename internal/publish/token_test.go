package publish

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autopotter/autopotter/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, expiration string) (*config.Config, string) {
	t.Helper()
	cfg := &config.Config{
		Instagram: config.InstagramConfig{
			AppID:             "app",
			AppSecret:         "secret",
			UserID:            "user",
			AccessToken:       "old-token",
			TokenExpiration:   expiration,
			DaysBeforeRefresh: 7,
			APIVersion:        "v22.0",
		},
		GCS:    config.GCSConfig{Bucket: "b"},
		OpenAI: config.OpenAIConfig{APIKey: "k"},
		Render: config.RenderConfig{APIKey: "k"},
	}
	path := filepath.Join(t.TempDir(), "autopotter.yaml")
	require.NoError(t, cfg.Save(path))
	return cfg, path
}

func TestEnsureFreshSkipsValidToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg, path := testConfig(t, "2026-06-01 00:00:00")

	refresher := NewTokenRefresher("v22.0")
	refresher.graphBaseURL = server.URL
	refresher.now = func() time.Time { return now }

	require.NoError(t, refresher.EnsureFresh(context.Background(), cfg, path))
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, "old-token", cfg.Instagram.AccessToken)
}

func TestEnsureFreshExchangesExpiringToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "app", q.Get("client_id"))
		assert.Equal(t, "old-token", q.Get("fb_exchange_token"))
		fmt.Fprint(w, `{"access_token": "new-token", "token_type": "bearer", "expires_in": 5184000}`)
	}))
	defer server.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg, path := testConfig(t, "2026-03-03 00:00:00") // inside the 7-day window

	refresher := NewTokenRefresher("v22.0")
	refresher.graphBaseURL = server.URL
	refresher.now = func() time.Time { return now }

	require.NoError(t, refresher.EnsureFresh(context.Background(), cfg, path))
	assert.Equal(t, "new-token", cfg.Instagram.AccessToken)
	assert.Equal(t, now.Add(5184000*time.Second).Format(config.TokenTimeLayout),
		cfg.Instagram.TokenExpiration)

	// The rotation must survive the process, the app secret must not
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "new-token")
	assert.NotContains(t, string(data), "secret")
}

func TestExchangeRejectsErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": {"message": "Invalid OAuth access token"}}`)
	}))
	defer server.Close()

	refresher := NewTokenRefresher("v22.0")
	refresher.graphBaseURL = server.URL

	_, err := refresher.Exchange(context.Background(), "app", "secret", "bad")
	assert.ErrorContains(t, err, "Invalid OAuth access token")
}
