package publish

import (
	"context"
	"fmt"
	"io"
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

func testPublishClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(config.InstagramConfig{
		UserID:      "17841400000000000",
		AccessToken: "test-token",
		APIVersion:  "v22.0",
	}, config.PublishConfig{MaxPolls: 3, PollSeconds: 15})
	require.NoError(t, err)
	client.graphBaseURL = serverURL
	client.uploadBaseURL = serverURL + "/upload"
	client.pollInterval = 5 * time.Millisecond
	return client
}

func TestNewClientFailsFastOnMissingCredentials(t *testing.T) {
	_, err := NewClient(config.InstagramConfig{AccessToken: "t"}, config.PublishConfig{})
	assert.ErrorContains(t, err, "user ID")

	_, err = NewClient(config.InstagramConfig{UserID: "u"}, config.PublishConfig{})
	assert.ErrorContains(t, err, "access token")
}

func TestCreateContainerFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/17841400000000000/media", r.URL.Path)
		assert.Equal(t, "REELS", r.PostForm.Get("media_type"))
		assert.Equal(t, "https://cdn.example.com/v.mp4", r.PostForm.Get("video_url"))
		assert.Equal(t, "my caption", r.PostForm.Get("caption"))
		assert.Equal(t, "4500", r.PostForm.Get("thumb_offset"))
		assert.Empty(t, r.PostForm.Get("upload_type"))
		fmt.Fprint(w, `{"id": "container-1"}`)
	}))
	defer server.Close()

	id, err := testPublishClient(t, server.URL).CreateContainer(context.Background(),
		"my caption", MediaSource{URL: "https://cdn.example.com/v.mp4", ThumbOffsetMS: 4500})
	require.NoError(t, err)
	assert.Equal(t, "container-1", id)
}

func TestCreateContainerForLocalUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "resumable", r.PostForm.Get("upload_type"))
		fmt.Fprint(w, `{"id": "container-2", "uri": "https://rupload.example.com/x"}`)
	}))
	defer server.Close()

	id, err := testPublishClient(t, server.URL).CreateContainer(context.Background(),
		"cap", MediaSource{LocalPath: "/tmp/v.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "container-2", id)
}

func TestCreateContainerFailsWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	_, err := testPublishClient(t, server.URL).CreateContainer(context.Background(),
		"cap", MediaSource{URL: "u"})
	assert.ErrorIs(t, err, ErrNoContainerID)
}

func TestCreateContainerRejectsEmptySource(t *testing.T) {
	_, err := testPublishClient(t, "http://unused").CreateContainer(context.Background(), "cap", MediaSource{})
	assert.ErrorContains(t, err, "neither URL nor local path")
}

func TestUploadVideoSendsBytesAndHeaders(t *testing.T) {
	payload := []byte("video payload")
	path := filepath.Join(t.TempDir(), "v.mp4")
	require.NoError(t, os.WriteFile(path, payload, 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/container-1", r.URL.Path)
		assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "0", r.Header.Get("offset"))
		assert.Equal(t, fmt.Sprint(len(payload)), r.Header.Get("file_size"))
		received, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, received)
		fmt.Fprint(w, `{"success": true}`)
	}))
	defer server.Close()

	err := testPublishClient(t, server.URL).UploadVideo(context.Background(), "container-1", path)
	assert.NoError(t, err)
}

func TestAwaitReadyReturnsOnFinished(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			fmt.Fprint(w, `{"id": "c", "status_code": "IN_PROGRESS"}`)
			return
		}
		fmt.Fprint(w, `{"id": "c", "status_code": "FINISHED"}`)
	}))
	defer server.Close()

	status, err := testPublishClient(t, server.URL).AwaitReady(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAwaitReadyStopsOnAbsorbingFailure(t *testing.T) {
	for _, terminal := range []string{"ERROR", "EXPIRED"} {
		t.Run(terminal, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprintf(w, `{"id": "c", "status_code": "%s"}`, terminal)
			}))
			defer server.Close()

			status, err := testPublishClient(t, server.URL).AwaitReady(context.Background(), "c")
			assert.ErrorIs(t, err, ErrContainerFailed)
			assert.Equal(t, ContainerStatus(terminal), status)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestAwaitReadyExhaustsFixedBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"id": "c", "status_code": "IN_PROGRESS"}`)
	}))
	defer server.Close()

	status, err := testPublishClient(t, server.URL).AwaitReady(context.Background(), "c")
	assert.ErrorIs(t, err, ErrReadyTimeout)
	assert.Equal(t, StatusTimeout, status)
	// Exactly maxPolls attempts, distinguishable from ERROR/EXPIRED
	assert.Equal(t, int32(3), calls.Load())
	assert.NotEqual(t, StatusError, status)
	assert.NotEqual(t, StatusExpired, status)
}

func TestPublishReturnsMediaID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/17841400000000000/media_publish", r.URL.Path)
		assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
		fmt.Fprint(w, `{"id": "media-99"}`)
	}))
	defer server.Close()

	mediaID, err := testPublishClient(t, server.URL).Publish(context.Background(), "container-1")
	require.NoError(t, err)
	assert.Equal(t, "media-99", mediaID)
}

func TestPublishRejectedByRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Media not ready", "code": 9007}}`)
	}))
	defer server.Close()

	_, err := testPublishClient(t, server.URL).Publish(context.Background(), "container-1")
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.ErrorContains(t, err, "Media not ready")
}
