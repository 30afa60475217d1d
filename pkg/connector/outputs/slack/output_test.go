package slackoutput

import (
	"context"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/streaming"
)

type fakeAPI struct {
	posts   int
	updates int
	uploads int
	lastTS  string
}

func (f *fakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.posts++
	f.lastTS = "100.001"
	return channelID, f.lastTS, nil
}

func (f *fakeAPI) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	f.updates++
	return channelID, timestamp, "", nil
}

func (f *fakeAPI) UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	f.uploads++
	return &slack.FileSummary{ID: "F1"}, nil
}

func newTestOutput(t *testing.T) (*Output, *fakeAPI) {
	t.Helper()

	out := New()
	cfg := config.NewBaseConfig("slack-test", "slack")
	cfg.Reliability.CircuitBreaker = false
	cfg.Reliability.HealthCheck = false
	require.NoError(t, out.BaseConnector.Initialize(context.Background(), cfg))

	api := &fakeAPI{}
	out.api = api
	out.cfg = config.SlackConfig{CorrectMarkdown: true}
	out.perf = cfg.Performance
	out.streams = streaming.NewTable(50*time.Millisecond, time.Minute)

	return out, api
}

func chunk(id, text string, first, last, complete bool) *models.OutboundMessage {
	return &models.OutboundMessage{
		Info: models.MessageInfo{Channel: "C1", ThreadTS: "1.000"},
		Content: models.MessageContent{
			Text:             text,
			UUID:             id,
			Streaming:        true,
			FirstChunk:       first,
			LastChunk:        last,
			ResponseComplete: complete,
		},
	}
}

func TestSendRequiresChannel(t *testing.T) {
	out, _ := newTestOutput(t)

	err := out.Send(context.Background(), &models.OutboundMessage{})
	assert.Error(t, err)
}

func TestStreamingPostsThenUpdates(t *testing.T) {
	out, api := newTestOutput(t)
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "Hello", true, false, false)))
	assert.Equal(t, 1, api.posts)
	assert.Equal(t, 0, api.updates)

	// growth gate: same length is dropped
	require.NoError(t, out.Send(ctx, chunk("u1", "Hello", false, false, false)))
	assert.Equal(t, 0, api.updates)

	// longer text after the interval gets an edit
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, out.Send(ctx, chunk("u1", "Hello world", false, false, false)))
	assert.Equal(t, 1, api.updates)
	assert.Equal(t, 1, api.posts)
}

func TestStreamingThrottle(t *testing.T) {
	out, api := newTestOutput(t)
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "a", true, false, false)))

	// grown but inside the throttle window, not first/last
	require.NoError(t, out.Send(ctx, chunk("u1", "ab", false, false, false)))
	assert.Equal(t, 0, api.updates)

	// last chunk bypasses the throttle
	require.NoError(t, out.Send(ctx, chunk("u1", "abc", false, true, false)))
	assert.Equal(t, 1, api.updates)
}

func TestResponseCompleteClearsState(t *testing.T) {
	out, api := newTestOutput(t)
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "partial", true, false, false)))
	assert.Equal(t, 1, out.streams.Len())

	require.NoError(t, out.Send(ctx, chunk("u1", "", false, false, true)))
	assert.Equal(t, 0, out.streams.Len())
	assert.Equal(t, 1, api.updates, "completion edits the streamed message")
}

func TestAckMessageAdopted(t *testing.T) {
	out, api := newTestOutput(t)

	msg := chunk("u1", "Hello", true, false, false)
	msg.Info.AckMessageTS = "99.000"

	require.NoError(t, out.Send(context.Background(), msg))
	assert.Equal(t, 0, api.posts, "first chunk should edit the ack message")
	assert.Equal(t, 1, api.updates)
}

func TestNonStreamingMessage(t *testing.T) {
	out, api := newTestOutput(t)

	msg := &models.OutboundMessage{
		Info:    models.MessageInfo{Channel: "C1"},
		Content: models.MessageContent{Text: "plain message"},
	}
	require.NoError(t, out.Send(context.Background(), msg))
	assert.Equal(t, 1, api.posts)
}

func TestSendForm(t *testing.T) {
	out, api := newTestOutput(t)

	msg := &models.OutboundMessage{
		Info: models.MessageInfo{Channel: "C1", ThreadTS: "1.000"},
		Content: models.MessageContent{
			TaskID: "task-1",
			UserForm: map[string]interface{}{
				"schema": map[string]interface{}{
					"title": "Form",
					"properties": map[string]interface{}{
						"name": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
	require.NoError(t, out.Send(context.Background(), msg))
	assert.Equal(t, 1, api.posts)
}

func TestSendWithFiles(t *testing.T) {
	out, api := newTestOutput(t)

	msg := &models.OutboundMessage{
		Info: models.MessageInfo{Channel: "C1"},
		Content: models.MessageContent{
			Text: "here is the report",
			Files: []models.FileAttachment{
				{Name: "report.txt", Content: "aGVsbG8="},
			},
		},
	}
	require.NoError(t, out.Send(context.Background(), msg))
	assert.Equal(t, 1, api.uploads)
}

func TestCapabilities(t *testing.T) {
	out := New()
	assert.True(t, out.SupportsStreaming())
	assert.True(t, out.SupportsFiles())
	assert.False(t, out.SupportsFeedback())
}
