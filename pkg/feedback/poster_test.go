package feedback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

func TestNewPosterDisabled(t *testing.T) {
	assert.Nil(t, NewPoster(config.FeedbackConfig{Enabled: false, PostURL: "http://x"}))
	assert.Nil(t, NewPoster(config.FeedbackConfig{Enabled: true}))
}

func TestPostSendsPayload(t *testing.T) {
	var gotBody []byte
	var gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	poster := NewPoster(config.FeedbackConfig{
		Enabled:     true,
		PostURL:     server.URL,
		PostHeaders: map[string]string{"Authorization": "Bearer token"},
	})
	require.NotNil(t, poster)

	payload := &models.FeedbackPayload{
		User:      map[string]interface{}{"email": "ada@example.com"},
		Feedback:  models.FeedbackThumbsDown,
		Interface: "slack",
		InterfaceData: map[string]interface{}{
			"channel":   "C1",
			"thread_ts": "123.456",
		},
		Reason: "wrong answer",
	}

	require.NoError(t, poster.Post(context.Background(), payload))

	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "thumbs_down", decoded["feedback"])
	assert.Equal(t, "slack", decoded["interface"])
	assert.Equal(t, "wrong answer", decoded["feedback_reason"])
}

func TestPostServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	poster := NewPoster(config.FeedbackConfig{Enabled: true, PostURL: server.URL})
	require.NotNil(t, poster)

	err := poster.Post(context.Background(), &models.FeedbackPayload{
		Feedback:  models.FeedbackThumbsUp,
		Interface: "slack",
	})
	assert.Error(t, err)
}
