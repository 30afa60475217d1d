package slackinput

import (
	"context"
	"testing"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
)

func newTestInput(t *testing.T) *Input {
	t.Helper()
	in := New()
	in.botUserID = "UBOT"
	in.cfg = config.SlackConfig{
		MaxFileSizeMB:      20,
		MaxTotalFileSizeMB: 20,
	}
	return in
}

func TestShouldHandleGating(t *testing.T) {
	in := newTestInput(t)
	in.rememberThread("111.222")

	tests := []struct {
		name     string
		msg      *slackevents.MessageEvent
		expected bool
	}{
		{
			name:     "direct message",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "im", Text: "hi"},
			expected: true,
		},
		{
			name:     "channel message without mention",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "channel", Text: "hi"},
			expected: false,
		},
		{
			name:     "channel message with mention",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "channel", Text: "<@UBOT> hi"},
			expected: true,
		},
		{
			name:     "reply in known thread",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "channel", Text: "more", ThreadTimeStamp: "111.222"},
			expected: true,
		},
		{
			name:     "reply in unknown thread",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "channel", Text: "more", ThreadTimeStamp: "999.888"},
			expected: false,
		},
		{
			name:     "bot message ignored",
			msg:      &slackevents.MessageEvent{User: "U1", BotID: "B1", ChannelType: "im", Text: "hi"},
			expected: false,
		},
		{
			name:     "own message ignored",
			msg:      &slackevents.MessageEvent{User: "UBOT", ChannelType: "im", Text: "hi"},
			expected: false,
		},
		{
			name:     "subtype ignored",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "im", SubType: "message_changed", Text: "hi"},
			expected: false,
		},
		{
			name:     "file_share subtype handled",
			msg:      &slackevents.MessageEvent{User: "U1", ChannelType: "im", SubType: "file_share", Text: "hi"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, in.shouldHandle(tt.msg))
		})
	}
}

func TestShouldHandleListenToChannels(t *testing.T) {
	in := newTestInput(t)
	in.cfg.ListenToChannels = true

	msg := &slackevents.MessageEvent{User: "U1", ChannelType: "channel", Text: "no mention"}
	assert.True(t, in.shouldHandle(msg))
}

func TestStripMention(t *testing.T) {
	in := newTestInput(t)

	assert.Equal(t, "deploy the service", in.stripMention("<@UBOT> deploy the service"))
	assert.Equal(t, "no mention here", in.stripMention("no mention here"))
}

type fakeSlackAPI struct {
	history []slack.Message
	replies []slack.Message
}

func (f *fakeSlackAPI) GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error) {
	return nil, nil
}

func (f *fakeSlackAPI) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error) {
	return nil, false, false, nil
}

func (f *fakeSlackAPI) GetUserInfoContext(ctx context.Context, user string) (*slack.User, error) {
	return nil, nil
}

func (f *fakeSlackAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "UBOT"}, nil
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	return channelID, "100.001", nil
}

func (f *fakeSlackAPI) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	return channelID, timestamp, "", nil
}

func (f *fakeSlackAPI) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	return &slack.GetConversationHistoryResponse{Messages: f.history}, nil
}

func (f *fakeSlackAPI) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	return f.replies, false, "", nil
}

func messageWithBlock(ts, blockID string) slack.Message {
	msg := slack.Message{}
	msg.Timestamp = ts
	msg.Blocks = slack.Blocks{BlockSet: []slack.Block{slack.NewActionBlock(blockID)}}
	return msg
}

func TestFindPreviousMessage(t *testing.T) {
	in := newTestInput(t)
	in.api = &fakeSlackAPI{
		replies: []slack.Message{
			messageWithBlock("1.001", "other_block"),
			messageWithBlock("1.002", "thumbs_up_down"),
		},
		history: []slack.Message{
			messageWithBlock("2.001", "thumbs_up_down"),
		},
	}

	// thread lookup uses replies
	ts := in.findPreviousMessage(context.Background(), "1.000", "C1", "thumbs_up_down")
	assert.Equal(t, "1.002", ts)

	// no thread uses channel history
	ts = in.findPreviousMessage(context.Background(), "", "C1", "thumbs_up_down")
	assert.Equal(t, "2.001", ts)

	// missing block
	ts = in.findPreviousMessage(context.Background(), "1.000", "C1", "missing")
	assert.Empty(t, ts)
}

func TestFilesFromPayload(t *testing.T) {
	payload := []byte(`{
		"type": "event_callback",
		"event": {
			"type": "message",
			"subtype": "file_share",
			"user": "U1",
			"channel": "C1",
			"text": "here you go",
			"files": [
				{"id": "F1", "name": "report.txt", "size": 42, "mimetype": "text/plain", "url_private_download": "https://files.slack.com/report.txt"},
				{"id": "F2", "name": "data.csv", "size": 7, "mimetype": "text/csv"}
			]
		}
	}`)

	files := filesFromPayload(payload)
	require.Len(t, files, 2)
	assert.Equal(t, "report.txt", files[0].Name)
	assert.Equal(t, 42, files[0].Size)
	assert.Equal(t, "https://files.slack.com/report.txt", files[0].URLPrivateDownload)
	assert.Equal(t, "data.csv", files[1].Name)

	assert.Nil(t, filesFromPayload(nil))
	assert.Nil(t, filesFromPayload([]byte(`{"event":{}}`)))
	assert.Nil(t, filesFromPayload([]byte(`not json`)))
}

func TestRememberThread(t *testing.T) {
	in := newTestInput(t)

	assert.False(t, in.isKnownThread("5.000"))
	in.rememberThread("5.000")
	assert.True(t, in.isKnownThread("5.000"))
}

func TestCapabilities(t *testing.T) {
	in := New()
	require.True(t, in.SupportsForms())
	require.True(t, in.SupportsThreads())
}
