// Package slackinput implements the Slack input connector. It connects
// over Socket Mode, normalizes message events and form submissions into
// pipeline events, and handles the interactive callbacks (feedback
// buttons, feedback reason input, form submit) that arrive on the same
// socket.
package slackinput

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/clients"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/base"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/directory"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/feedback"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// PlatformName is the registry name of this connector.
const PlatformName = "slack"

// API is the subset of the Slack Web API the connector uses. *slack.Client
// satisfies it; tests substitute a fake.
type API interface {
	directory.SlackAPI
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
}

// shared API clients keyed by bot token, for share_connection mode
var (
	sharedClients   = map[string]*slack.Client{}
	sharedClientsMu sync.Mutex
)

func clientFor(cfg config.SlackConfig) *slack.Client {
	if !cfg.ShareConnection {
		return slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	}

	sharedClientsMu.Lock()
	defer sharedClientsMu.Unlock()

	if client, ok := sharedClients[cfg.BotToken]; ok {
		return client
	}
	client := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	sharedClients[cfg.BotToken] = client
	return client
}

// Input is the Slack Socket Mode input connector.
type Input struct {
	*base.BaseConnector

	cfg         config.SlackConfig
	feedbackCfg config.FeedbackConfig

	api        API
	socket     *socketmode.Client
	dir        *directory.Directory
	downloader *clients.HTTPClient
	poster     *feedback.Poster

	botUserID string

	events chan *models.Event
	errs   chan error

	// threads the bot participates in; replies there are addressed to us
	knownThreads map[string]time.Time
	threadsMu    sync.Mutex
}

// New creates an uninitialized Slack input connector.
func New() *Input {
	return &Input{
		BaseConnector: base.NewBaseConnector(PlatformName, core.ConnectorTypeInput, "1.0.0"),
		knownThreads:  make(map[string]time.Time),
	}
}

// Initialize validates credentials and builds the API and Socket Mode
// clients.
func (in *Input) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := in.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	in.cfg = cfg.Slack
	in.feedbackCfg = cfg.Feedback

	if in.cfg.BotToken == "" || in.cfg.AppToken == "" {
		return errors.New(errors.ErrorTypeConfig, "slack bot_token and app_token are required")
	}

	client := clientFor(in.cfg)
	in.api = client
	in.socket = socketmode.New(client)
	in.dir = directory.New(client)
	in.poster = feedback.NewPoster(cfg.Feedback)
	in.downloader = clients.NewHTTPClient(clients.HTTPClientConfig{
		Timeout:       cfg.Timeouts.Request,
		RetryAttempts: cfg.Reliability.RetryAttempts,
		RetryDelay:    cfg.Reliability.RetryDelay,
		MaxBodyBytes:  in.cfg.MaxFileBytes(),
	}, in.GetLogger())

	return nil
}

// Open starts the Socket Mode loop and returns the event stream.
func (in *Input) Open(ctx context.Context) (*core.EventStream, error) {
	auth, err := in.api.AuthTestContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "slack auth test failed")
	}
	in.botUserID = auth.UserID

	in.events = make(chan *models.Event, in.GetConfig().Performance.BufferSize)
	in.errs = make(chan error, 16)

	go func() {
		if err := in.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			in.errs <- errors.Wrap(err, errors.ErrorTypeConnection, "socket mode terminated")
			in.UpdateHealth(false, map[string]interface{}{"error": err.Error()})
		}
	}()

	go in.run(ctx)

	in.GetLogger().Info("slack input open", zap.String("bot_user", in.botUserID))
	return &core.EventStream{Events: in.events, Errors: in.errs}, nil
}

func (in *Input) run(ctx context.Context) {
	defer close(in.events)
	defer close(in.errs)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-in.socket.Events:
			if !ok {
				return
			}
			in.dispatch(ctx, evt)
		}
	}
}

func (in *Input) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		in.UpdateHealth(true, nil)
	case socketmode.EventTypeConnectionError:
		in.UpdateHealth(false, nil)
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		var payload []byte
		if evt.Request != nil {
			payload = evt.Request.Payload
			in.socket.Ack(*evt.Request)
		}
		in.handleEventsAPI(ctx, apiEvent, payload)
	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		if evt.Request != nil {
			in.socket.Ack(*evt.Request)
		}
		in.handleInteraction(ctx, &callback)
	}
}

func (in *Input) handleEventsAPI(ctx context.Context, apiEvent slackevents.EventsAPIEvent, payload []byte) {
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}

	switch inner := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		in.handleMessage(ctx, inner, filesFromPayload(payload))
	case *slackevents.AppMentionEvent:
		// mentions also arrive as message events; just learn the thread
		if inner.ThreadTimeStamp != "" {
			in.rememberThread(inner.ThreadTimeStamp)
		}
	}
}

func (in *Input) handleMessage(ctx context.Context, msg *slackevents.MessageEvent, files []slackevents.File) {
	if !in.shouldHandle(msg) {
		return
	}

	event := models.NewEvent(PlatformName, models.EventTypeMessage)
	event.Text = in.stripMention(msg.Text)
	event.UserID = msg.User
	event.Channel = msg.Channel
	event.ChannelType = msg.ChannelType
	event.ChannelName = in.dir.ChannelName(ctx, msg.Channel)
	event.UserEmail = in.userEmail(ctx, msg.User)
	event.UserName = in.dir.UserName(ctx, msg.User)

	// replies always go to a thread; a top-level message starts one
	threadTS := msg.ThreadTimeStamp
	if threadTS == "" {
		threadTS = msg.TimeStamp
	}
	event.ThreadTS = threadTS
	event.ReplyToThread = threadTS
	in.rememberThread(threadTS)

	event.SetMetadata("session_id", msg.Channel+"_"+threadTS)
	event.SetMetadata("client_msg_id", msg.ClientMsgID)
	event.SetMetadata("ts", msg.TimeStamp)

	event.Files = in.downloadAttachments(ctx, files)

	metrics.EventsReceived.WithLabelValues(PlatformName, string(event.Type)).Inc()
	in.GetMetricsCollector().Increment("events_received", 1)

	select {
	case in.events <- event:
	case <-ctx.Done():
	}
}

// shouldHandle applies the addressing rules: ignore bots and message
// subtypes, accept DMs, threads the bot participates in, explicit
// mentions, and everything else only in listen-to-channels mode.
func (in *Input) shouldHandle(msg *slackevents.MessageEvent) bool {
	if msg.BotID != "" || msg.User == "" || msg.User == in.botUserID {
		return false
	}
	if msg.SubType != "" && msg.SubType != "file_share" {
		return false
	}

	if msg.ChannelType == "im" {
		return true
	}
	if msg.ThreadTimeStamp != "" && in.isKnownThread(msg.ThreadTimeStamp) {
		return true
	}
	if in.mentionsBot(msg.Text) {
		return true
	}
	return in.cfg.ListenToChannels
}

func (in *Input) mentionsBot(text string) bool {
	return in.botUserID != "" && strings.Contains(text, "<@"+in.botUserID+">")
}

func (in *Input) stripMention(text string) string {
	if in.botUserID == "" {
		return text
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "<@"+in.botUserID+">", ""))
}

func (in *Input) rememberThread(threadTS string) {
	in.threadsMu.Lock()
	defer in.threadsMu.Unlock()

	in.knownThreads[threadTS] = time.Now()

	// prune threads idle for a day
	if len(in.knownThreads) > 1000 {
		cutoff := time.Now().Add(-24 * time.Hour)
		for ts, seen := range in.knownThreads {
			if seen.Before(cutoff) {
				delete(in.knownThreads, ts)
			}
		}
	}
}

func (in *Input) isKnownThread(threadTS string) bool {
	in.threadsMu.Lock()
	defer in.threadsMu.Unlock()
	_, ok := in.knownThreads[threadTS]
	return ok
}

// filesFromPayload recovers shared files from the raw events API envelope.
// The typed message event drops the "files" array, so it is re-read from
// the payload the socket delivered.
func filesFromPayload(payload []byte) []slackevents.File {
	if len(payload) == 0 {
		return nil
	}

	var envelope struct {
		Event struct {
			Files []slackevents.File `json:"files"`
		} `json:"event"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}
	return envelope.Event.Files
}

// downloadAttachments fetches event files within the configured size caps
// and returns them base64 encoded. Oversized files are skipped; the
// download stops once the running total crosses the total cap.
func (in *Input) downloadAttachments(ctx context.Context, files []slackevents.File) []models.FileAttachment {
	var out []models.FileAttachment
	var total int64

	for _, file := range files {
		size := int64(file.Size)
		total += size

		if size > in.cfg.MaxFileBytes() {
			in.GetLogger().Warn("attachment too large, skipping",
				zap.String("name", file.Name), zap.Int64("size", size))
			metrics.FilesSkipped.WithLabelValues(PlatformName, "file_too_large").Inc()
			continue
		}
		if total > in.cfg.MaxTotalFileBytes() {
			in.GetLogger().Warn("total attachment size exceeded, stopping downloads")
			metrics.FilesSkipped.WithLabelValues(PlatformName, "total_too_large").Inc()
			break
		}

		data, err := in.downloader.Get(ctx, file.URLPrivateDownload, map[string]string{
			"Authorization": "Bearer " + in.cfg.BotToken,
		})
		if err != nil {
			in.GetLogger().Error("attachment download failed",
				zap.String("name", file.Name), zap.Error(err))
			continue
		}

		metrics.FileBytesDownloaded.WithLabelValues(PlatformName).Add(float64(len(data)))
		out = append(out, models.FileAttachment{
			Name:     file.Name,
			Content:  base64.StdEncoding.EncodeToString(data),
			MimeType: file.Mimetype,
			FileType: file.Filetype,
			Size:     size,
		})
	}

	return out
}

func (in *Input) userEmail(ctx context.Context, userID string) string {
	if email := in.dir.UserEmail(ctx, userID); email != "" {
		return email
	}
	return userID
}

// Acknowledge posts the configured acknowledgement message into the
// event's thread and records its timestamp on the event.
func (in *Input) Acknowledge(ctx context.Context, event *models.Event) error {
	if in.cfg.AcknowledgementMessage == "" {
		return nil
	}

	timer := metrics.NewTimer(PlatformName, "chat.postMessage")
	_, ts, err := in.api.PostMessageContext(ctx, event.Channel,
		slack.MsgOptionText(in.cfg.AcknowledgementMessage, false),
		slack.MsgOptionTS(event.ThreadTS))
	timer.Stop()

	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to post acknowledgement")
	}

	event.SetMetadata("ack_msg_ts", ts)
	return nil
}

// SupportsForms reports that Slack renders interactive forms.
func (in *Input) SupportsForms() bool { return true }

// SupportsThreads reports that Slack supports threaded conversations.
func (in *Input) SupportsThreads() bool { return true }
