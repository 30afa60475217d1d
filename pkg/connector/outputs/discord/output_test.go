package discordoutput

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/streaming"
)

type fakeMessenger struct {
	sends    int
	edits    int
	lastSend *discordgo.MessageSend
	lastEdit *discordgo.MessageEdit
}

func (f *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sends++
	f.lastSend = data
	return &discordgo.Message{ID: "M1", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits++
	f.lastEdit = m
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

type fakeResponder struct {
	responses []*discordgo.InteractionResponse
}

func (f *fakeResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func newTestOutput(t *testing.T) (*Output, *fakeMessenger) {
	t.Helper()

	out := New()
	cfg := config.NewBaseConfig("discord-test", "discord")
	cfg.Reliability.CircuitBreaker = false
	cfg.Reliability.HealthCheck = false
	require.NoError(t, out.BaseConnector.Initialize(context.Background(), cfg))

	messenger := &fakeMessenger{}
	out.messenger = messenger
	out.responder = &fakeResponder{}
	out.cfg = config.DiscordConfig{CorrectMarkdown: true}
	out.feedbackEnabled = true
	out.streams = streaming.NewTable(50*time.Millisecond, time.Minute)

	return out, messenger
}

func chunk(id, text string, first, last, complete bool) *models.OutboundMessage {
	return &models.OutboundMessage{
		Info: models.MessageInfo{Channel: "T1"},
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

func TestStreamingSendsThenEdits(t *testing.T) {
	out, messenger := newTestOutput(t)
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "Hello", true, false, false)))
	assert.Equal(t, 1, messenger.sends)
	assert.Equal(t, 0, messenger.edits)

	// growth gate: same length is dropped
	require.NoError(t, out.Send(ctx, chunk("u1", "Hello", false, false, false)))
	assert.Equal(t, 0, messenger.edits)

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, out.Send(ctx, chunk("u1", "Hello world", false, false, false)))
	assert.Equal(t, 1, messenger.edits)
	assert.Equal(t, 1, messenger.sends)
	assert.Equal(t, "M1", messenger.lastEdit.ID)
}

func TestCompleteAttachesButtonsAndClearsState(t *testing.T) {
	out, messenger := newTestOutput(t)
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "partial", true, false, false)))
	assert.Equal(t, 1, out.streams.Len())

	require.NoError(t, out.Send(ctx, chunk("u1", "", false, false, true)))
	assert.Equal(t, 0, out.streams.Len())
	require.Equal(t, 1, messenger.edits)
	require.NotNil(t, messenger.lastEdit.Components)
	assert.Len(t, *messenger.lastEdit.Components, 1, "completion attaches the feedback row")
	assert.Contains(t, *messenger.lastEdit.Content, "Response complete")
}

func TestCompleteWithoutFeedbackHasNoButtons(t *testing.T) {
	out, messenger := newTestOutput(t)
	out.feedbackEnabled = false
	ctx := context.Background()

	require.NoError(t, out.Send(ctx, chunk("u1", "partial", true, false, false)))
	require.NoError(t, out.Send(ctx, chunk("u1", "", false, false, true)))
	assert.Nil(t, messenger.lastEdit.Components)
}

func TestNonStreamingMessage(t *testing.T) {
	out, messenger := newTestOutput(t)

	msg := &models.OutboundMessage{
		Info:    models.MessageInfo{Channel: "T1"},
		Content: models.MessageContent{Text: "plain message"},
	}
	require.NoError(t, out.Send(context.Background(), msg))
	assert.Equal(t, 1, messenger.sends)
	assert.Equal(t, "plain message", messenger.lastSend.Content)
}

func TestSendWithFiles(t *testing.T) {
	out, messenger := newTestOutput(t)

	msg := &models.OutboundMessage{
		Info: models.MessageInfo{Channel: "T1"},
		Content: models.MessageContent{
			Text: "here is the report",
			Files: []models.FileAttachment{
				{Name: "report.txt", Content: "aGVsbG8=", MimeType: "text/plain"},
			},
		},
	}
	require.NoError(t, out.Send(context.Background(), msg))
	require.Equal(t, 2, messenger.sends, "text and file upload are separate messages")
	require.Len(t, messenger.lastSend.Files, 1)
	assert.Equal(t, "report.txt", messenger.lastSend.Files[0].Name)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, zeroWidthSpace, clamp(""))
	assert.Equal(t, "short", clamp("short"))

	long := strings.Repeat("x", 2500)
	assert.Len(t, clamp(long), maxMessageLength)
}

func TestFeedbackComponents(t *testing.T) {
	components := feedbackComponents()
	require.Len(t, components, 1)

	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)

	up, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, thumbsUpID, up.CustomID)

	down, ok := row.Components[1].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, thumbsDownID, down.CustomID)
}

func TestThumbsDownOpensModal(t *testing.T) {
	out, _ := newTestOutput(t)
	responder := out.responder.(*fakeResponder)

	out.handleInteraction(context.Background(), &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			ChannelID: "T1",
			Message:   &discordgo.Message{ID: "M1"},
			Data:      discordgo.MessageComponentInteractionData{CustomID: thumbsDownID},
		},
	})

	require.Len(t, responder.responses, 1)
	resp := responder.responses[0]
	assert.Equal(t, discordgo.InteractionResponseModal, resp.Type)
	assert.Equal(t, reasonModalPrefix+"M1", resp.Data.CustomID)
}

func TestThumbsUpRespondsAndRemovesButtons(t *testing.T) {
	out, messenger := newTestOutput(t)
	responder := out.responder.(*fakeResponder)

	out.handleInteraction(context.Background(), &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			ChannelID: "T1",
			Message:   &discordgo.Message{ID: "M1"},
			User:      &discordgo.User{ID: "U1", Username: "alice"},
			Data:      discordgo.MessageComponentInteractionData{CustomID: thumbsUpID},
		},
	})

	require.Len(t, responder.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, responder.responses[0].Type)
	require.Equal(t, 1, messenger.edits)
	assert.Empty(t, *messenger.lastEdit.Components)
}

func TestReasonFromModal(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: reasonInputID, Value: "too vague"},
			},
		},
	}
	assert.Equal(t, "too vague", reasonFromModal(components))

	assert.Equal(t, "", reasonFromModal([]discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{CustomID: "other", Value: "x"},
		}},
	}))
}

func TestCapabilities(t *testing.T) {
	out := New()
	assert.True(t, out.SupportsStreaming())
	assert.True(t, out.SupportsFiles())
	assert.False(t, out.SupportsFeedback())
}
