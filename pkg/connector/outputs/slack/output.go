// Package slackoutput implements the Slack output connector. Streamed
// response chunks sharing a content UUID coalesce into a single message
// that is edited in place; completed responses get feedback buttons and
// forms render as Block Kit.
package slackoutput

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/blockkit"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/base"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/markdown"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/streaming"
)

// PlatformName is the registry name of this connector.
const PlatformName = "slack"

// API is the subset of the Slack Web API the output uses.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Output is the Slack output connector.
type Output struct {
	*base.BaseConnector

	cfg             config.SlackConfig
	perf            config.PerformanceConfig
	feedbackEnabled bool

	api API

	streams *streaming.Table
}

// New creates an uninitialized Slack output connector.
func New() *Output {
	return &Output{
		BaseConnector: base.NewBaseConnector(PlatformName, core.ConnectorTypeOutput, "1.0.0"),
	}
}

// Initialize builds the API client and streaming state table.
func (out *Output) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := out.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	out.cfg = cfg.Slack
	out.perf = cfg.Performance
	out.feedbackEnabled = cfg.Feedback.Enabled

	if out.cfg.BotToken == "" {
		return errors.New(errors.ErrorTypeConfig, "slack bot_token is required")
	}

	out.api = slack.New(out.cfg.BotToken, slack.OptionAppLevelToken(out.cfg.AppToken))
	out.streams = streaming.NewTable(out.perf.StreamingUpdateInterval, out.perf.StreamingStateTTL)

	return nil
}

// Send delivers one outbound message: a streamed chunk, a status update,
// a form, or a plain message.
func (out *Output) Send(ctx context.Context, msg *models.OutboundMessage) error {
	if msg.Info.Channel == "" {
		return errors.New(errors.ErrorTypeValidation, "no channel specified in message")
	}

	content := msg.Content

	if content.UserForm != nil {
		return out.sendForm(ctx, msg)
	}

	text := content.Text
	statusUpdate := content.StatusUpdate
	if content.ResponseComplete {
		statusUpdate = true
		text = ":checkered_flag: Response complete"
	} else if statusUpdate {
		text = ":thinking_face: " + text
	}

	if out.cfg.CorrectMarkdown && !statusUpdate {
		text = markdown.FixSlack(text)
	}

	if err := out.RateLimit(ctx); err != nil {
		return err
	}

	var err error
	if content.Streaming && content.UUID != "" {
		err = out.sendStreaming(ctx, msg, text)
	} else {
		err = out.postMessage(ctx, msg, text, nil)
	}
	if err != nil {
		metrics.MessagesSent.WithLabelValues(PlatformName, "error").Inc()
		return err
	}

	if len(content.Files) > 0 {
		out.uploadFiles(ctx, msg)
	}

	metrics.MessagesSent.WithLabelValues(PlatformName, "ok").Inc()
	out.GetMetricsCollector().Increment("messages_sent", 1)
	return nil
}

// sendStreaming posts or edits the per-UUID streamed message. A chunk is
// sent only when the accumulated text grew, and edits are throttled to
// the configured interval except for first/last chunks and completion.
func (out *Output) sendStreaming(ctx context.Context, msg *models.OutboundMessage, text string) error {
	content := msg.Content

	state, created := out.streams.Get(content.UUID)
	if created {
		metrics.StreamingSessions.WithLabelValues(PlatformName).Inc()
		// a prior acknowledgement message becomes the streamed message
		if msg.Info.AckMessageTS != "" {
			state.MessageRef = msg.Info.AckMessageTS
		}
	}

	if !state.ShouldSend(len(text), content.FirstChunk, content.LastChunk, content.ResponseComplete) {
		return nil
	}

	var feedbackBlock slack.Block
	if content.ResponseComplete && out.feedbackEnabled {
		feedbackBlock = out.feedbackButtons(msg)
	}

	var err error
	if state.MessageRef == "" {
		var ts string
		ts, err = out.post(ctx, msg.Info.Channel, msg.Info.ThreadTS, text, feedbackBlock)
		if err == nil {
			state.MessageRef = ts
		}
	} else {
		err = out.update(ctx, msg.Info.Channel, state.MessageRef, text, feedbackBlock)
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

func (out *Output) postMessage(ctx context.Context, msg *models.OutboundMessage, text string, block slack.Block) error {
	_, err := out.post(ctx, msg.Info.Channel, msg.Info.ThreadTS, text, block)
	return err
}

func (out *Output) post(ctx context.Context, channel, threadTS, text string, block slack.Block) (string, error) {
	options := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		options = append(options, slack.MsgOptionTS(threadTS))
	}
	if block != nil {
		options = append(options,
			slack.MsgOptionBlocks(slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil), block))
	}

	timer := metrics.NewTimer(PlatformName, "chat.postMessage")
	_, ts, err := out.api.PostMessageContext(ctx, channel, options...)
	timer.Stop()

	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "chat.postMessage failed")
	}
	return ts, nil
}

func (out *Output) update(ctx context.Context, channel, ts, text string, block slack.Block) error {
	options := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if block != nil {
		options = append(options,
			slack.MsgOptionBlocks(slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil), block))
	}

	timer := metrics.NewTimer(PlatformName, "chat.update")
	_, _, _, err := out.api.UpdateMessageContext(ctx, channel, ts, options...)
	timer.Stop()

	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "chat.update failed")
	}
	return nil
}

// feedbackButtons builds the thumbs block for a completed response. The
// block id is unique per response and rides inside the feedback data so
// the handler can locate this message later.
func (out *Output) feedbackButtons(msg *models.OutboundMessage) slack.Block {
	blockID := "feedback_" + uuid.NewString()[:8]

	feedbackData := map[string]interface{}{"block_id": blockID}
	for k, v := range msg.FeedbackData {
		feedbackData[k] = v
	}

	state := blockkit.FeedbackState{
		Channel:      msg.Info.Channel,
		ThreadTS:     msg.Info.ThreadTS,
		FeedbackData: feedbackData,
	}
	return blockkit.FeedbackButtonsBlock(state, blockID)
}

// sendForm renders an RJSF form as Block Kit.
func (out *Output) sendForm(ctx context.Context, msg *models.OutboundMessage) error {
	form := &blockkit.Form{}
	if schema, ok := msg.Content.UserForm["schema"].(map[string]interface{}); ok {
		form.Schema = schema
	}
	if formData, ok := msg.Content.UserForm["formData"].(map[string]interface{}); ok {
		form.FormData = formData
	}
	if uiSchema, ok := msg.Content.UserForm["uiSchema"].(map[string]interface{}); ok {
		form.UISchema = uiSchema
	}

	blocks := blockkit.Convert(form, msg.Content.TaskID)

	options := []slack.MsgOption{
		slack.MsgOptionText("Please fill in the form", false),
		slack.MsgOptionBlocks(blocks...),
	}
	if msg.Info.ThreadTS != "" {
		options = append(options, slack.MsgOptionTS(msg.Info.ThreadTS))
	}

	timer := metrics.NewTimer(PlatformName, "chat.postMessage")
	_, _, err := out.api.PostMessageContext(ctx, msg.Info.Channel, options...)
	timer.Stop()

	if err != nil {
		metrics.MessagesSent.WithLabelValues(PlatformName, "error").Inc()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to post form")
	}

	metrics.MessagesSent.WithLabelValues(PlatformName, "ok").Inc()
	return nil
}

// uploadFiles attaches base64-encoded files to the thread. Upload errors
// are logged, not returned; the text already went out.
func (out *Output) uploadFiles(ctx context.Context, msg *models.OutboundMessage) {
	for _, file := range msg.Content.Files {
		data, err := base64.StdEncoding.DecodeString(file.Content)
		if err != nil {
			out.GetLogger().Error("invalid attachment content",
				zap.String("name", file.Name), zap.Error(err))
			continue
		}

		timer := metrics.NewTimer(PlatformName, "files.upload")
		_, err = out.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
			Filename:        file.Name,
			FileSize:        len(data),
			Reader:          bytes.NewReader(data),
			Channel:         msg.Info.Channel,
			ThreadTimestamp: msg.Info.ThreadTS,
		})
		timer.Stop()

		if err != nil {
			out.GetLogger().Error("file upload failed",
				zap.String("name", file.Name), zap.Error(err))
		}
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
