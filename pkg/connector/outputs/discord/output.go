// Package discordoutput implements the Discord output connector. Streamed
// chunks sharing a content UUID edit a single message in place, clamped
// to Discord's 2000 character limit; completed responses get thumbs
// up/down buttons, with a modal collecting the reason for a thumbs down.
package discordoutput

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/base"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/feedback"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/markdown"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/streaming"
)

// PlatformName is the registry name of this connector.
const PlatformName = "discord"

// maxMessageLength is Discord's hard message size limit.
const maxMessageLength = 2000

// zeroWidthSpace keeps an edit valid when the text is still empty.
const zeroWidthSpace = "​"

// Messenger is the subset of the Discord session the output sends
// through. *discordgo.Session satisfies it; tests substitute a fake.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Output is the Discord output connector.
type Output struct {
	*base.BaseConnector

	cfg             config.DiscordConfig
	feedbackEnabled bool

	session   *discordgo.Session
	messenger Messenger
	responder responder
	poster    *feedback.Poster

	streams *streaming.Table

	cancelHandler func()
}

// New creates an uninitialized Discord output connector.
func New() *Output {
	return &Output{
		BaseConnector: base.NewBaseConnector(PlatformName, core.ConnectorTypeOutput, "1.0.0"),
	}
}

// Initialize opens the gateway session and registers the feedback
// interaction handlers.
func (out *Output) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := out.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	out.cfg = cfg.Discord
	out.feedbackEnabled = cfg.Feedback.Enabled
	if out.cfg.BotToken == "" {
		return errors.New(errors.ErrorTypeConfig, "discord bot_token is required")
	}

	session, err := discordgo.New("Bot " + out.cfg.BotToken)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create discord session")
	}

	out.session = session
	out.messenger = session
	out.responder = session
	out.poster = feedback.NewPoster(cfg.Feedback)
	out.streams = streaming.NewTable(cfg.Performance.StreamingUpdateInterval, cfg.Performance.StreamingStateTTL)

	out.cancelHandler = session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		out.handleInteraction(ctx, i)
	})

	if err := session.Open(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to open discord gateway")
	}

	return nil
}

// Close shuts the gateway session down.
func (out *Output) Close(ctx context.Context) error {
	if out.cancelHandler != nil {
		out.cancelHandler()
	}
	if out.session != nil {
		if err := out.session.Close(); err != nil {
			out.GetLogger().Warn("error closing discord session", zap.Error(err))
		}
	}
	return out.BaseConnector.Close(ctx)
}

// Send delivers one outbound message.
func (out *Output) Send(ctx context.Context, msg *models.OutboundMessage) error {
	if msg.Info.Channel == "" {
		return errors.New(errors.ErrorTypeValidation, "no channel specified in message")
	}

	content := msg.Content

	text := content.Text
	statusUpdate := content.StatusUpdate
	if content.ResponseComplete {
		statusUpdate = true
		text = ":checkered_flag: Response complete"
	} else if statusUpdate {
		text = ":thinking_face: " + text
	}

	if out.cfg.CorrectMarkdown && !statusUpdate {
		text = markdown.FixDiscord(text)
	}
	text = clamp(text)

	if err := out.RateLimit(ctx); err != nil {
		return err
	}

	var err error
	if content.Streaming && content.UUID != "" {
		err = out.sendStreaming(ctx, msg, text)
	} else {
		_, err = out.send(msg.Info.Channel, text, nil)
	}
	if err != nil {
		metrics.MessagesSent.WithLabelValues(PlatformName, "error").Inc()
		return err
	}

	if len(content.Files) > 0 {
		out.sendFiles(msg)
	}

	metrics.MessagesSent.WithLabelValues(PlatformName, "ok").Inc()
	out.GetMetricsCollector().Increment("messages_sent", 1)
	return nil
}

func (out *Output) sendStreaming(ctx context.Context, msg *models.OutboundMessage, text string) error {
	content := msg.Content

	state, created := out.streams.Get(content.UUID)
	if created {
		metrics.StreamingSessions.WithLabelValues(PlatformName).Inc()
	}

	if !state.ShouldSend(len(text), content.FirstChunk, content.LastChunk, content.ResponseComplete) {
		return nil
	}

	var components []discordgo.MessageComponent
	if content.ResponseComplete && out.feedbackEnabled {
		components = feedbackComponents()
	}

	var err error
	if state.MessageRef == "" {
		var id string
		id, err = out.send(msg.Info.Channel, text, components)
		if err == nil {
			state.MessageRef = id
		}
	} else {
		err = out.edit(msg.Info.Channel, state.MessageRef, text, components)
	}
	if err != nil {
		return err
	}

	state.MarkSent(len(text))

	if content.ResponseComplete {
		out.streams.Delete(content.UUID)
		metrics.StreamingSessions.WithLabelValues(PlatformName).Dec()
	}
	return nil
}

func (out *Output) send(channel, text string, components []discordgo.MessageComponent) (string, error) {
	timer := metrics.NewTimer(PlatformName, "message.send")
	message, err := out.messenger.ChannelMessageSendComplex(channel, &discordgo.MessageSend{
		Content:    text,
		Components: components,
	})
	timer.Stop()

	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "message send failed")
	}
	return message.ID, nil
}

func (out *Output) edit(channel, messageID, text string, components []discordgo.MessageComponent) error {
	edit := &discordgo.MessageEdit{
		ID:      messageID,
		Channel: channel,
		Content: &text,
	}
	if components != nil {
		edit.Components = &components
	}

	timer := metrics.NewTimer(PlatformName, "message.edit")
	_, err := out.messenger.ChannelMessageEditComplex(edit)
	timer.Stop()

	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "message edit failed")
	}
	return nil
}

// sendFiles uploads base64-encoded attachments as a follow-up message.
// Errors are logged, not returned.
func (out *Output) sendFiles(msg *models.OutboundMessage) {
	files := make([]*discordgo.File, 0, len(msg.Content.Files))
	for _, file := range msg.Content.Files {
		data, err := base64.StdEncoding.DecodeString(file.Content)
		if err != nil {
			out.GetLogger().Error("invalid attachment content",
				zap.String("name", file.Name), zap.Error(err))
			continue
		}
		files = append(files, &discordgo.File{
			Name:        file.Name,
			ContentType: file.MimeType,
			Reader:      bytes.NewReader(data),
		})
	}
	if len(files) == 0 {
		return
	}

	timer := metrics.NewTimer(PlatformName, "message.send")
	_, err := out.messenger.ChannelMessageSendComplex(msg.Info.Channel, &discordgo.MessageSend{
		Files: files,
	})
	timer.Stop()

	if err != nil {
		out.GetLogger().Error("file upload failed", zap.Error(err))
	}
}

// Flush is a no-op; sends are not buffered.
func (out *Output) Flush(ctx context.Context) error { return nil }

// SupportsStreaming reports that streamed edits are supported.
func (out *Output) SupportsStreaming() bool { return true }

// SupportsFeedback reports whether feedback controls are attached.
func (out *Output) SupportsFeedback() bool { return out.feedbackEnabled }

// SupportsFiles reports that file uploads are supported.
func (out *Output) SupportsFiles() bool { return true }

// clamp enforces the message length limit and substitutes a zero width
// space for empty text so edits stay valid.
func clamp(text string) string {
	if text == "" {
		return zeroWidthSpace
	}
	runes := []rune(text)
	if len(runes) > maxMessageLength {
		return string(runes[:maxMessageLength])
	}
	return text
}
