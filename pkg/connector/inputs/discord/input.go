// Package discordinput implements the Discord input connector. The bot
// listens on the gateway, accepts DMs, mentions, and replies from thread
// starters, moves channel conversations into auto-created threads, and
// normalizes messages (with size-capped attachment downloads) into
// pipeline events.
package discordinput

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/clients"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/base"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// PlatformName is the registry name of this connector.
const PlatformName = "discord"

// closeThreadPhrase ends a support thread when a user says it.
const closeThreadPhrase = "I am satisfied with my care"

// Input is the Discord gateway input connector.
type Input struct {
	*base.BaseConnector

	cfg config.DiscordConfig

	session    *discordgo.Session
	downloader *clients.HTTPClient

	events chan *models.Event
	errs   chan error

	cancelHandler func()
}

// New creates an uninitialized Discord input connector.
func New() *Input {
	return &Input{
		BaseConnector: base.NewBaseConnector(PlatformName, core.ConnectorTypeInput, "1.0.0"),
	}
}

// Initialize validates credentials and builds the gateway session.
func (in *Input) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := in.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	in.cfg = cfg.Discord
	if in.cfg.BotToken == "" {
		return errors.New(errors.ErrorTypeConfig, "discord bot_token is required")
	}

	session, err := discordgo.New("Bot " + in.cfg.BotToken)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	in.session = session
	in.downloader = clients.NewHTTPClient(clients.HTTPClientConfig{
		Timeout:       cfg.Timeouts.Request,
		RetryAttempts: cfg.Reliability.RetryAttempts,
		RetryDelay:    cfg.Reliability.RetryDelay,
		MaxBodyBytes:  in.cfg.MaxFileBytes(),
	}, in.GetLogger())

	return nil
}

// Open connects to the gateway and returns the event stream.
func (in *Input) Open(ctx context.Context) (*core.EventStream, error) {
	in.events = make(chan *models.Event, in.GetConfig().Performance.BufferSize)
	in.errs = make(chan error, 16)

	in.cancelHandler = in.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		in.handleMessage(ctx, m)
	})

	if err := in.session.Open(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open discord gateway")
	}

	go func() {
		<-ctx.Done()
		if in.cancelHandler != nil {
			in.cancelHandler()
		}
		if err := in.session.Close(); err != nil {
			in.GetLogger().Warn("error closing discord session", zap.Error(err))
		}
		close(in.events)
		close(in.errs)
	}()

	in.UpdateHealth(true, nil)
	in.GetLogger().Info("discord input open")
	return &core.EventStream{Events: in.events, Errors: in.errs}, nil
}

func (in *Input) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if in.session.State.User == nil || m.Author == nil || m.Author.Bot {
		return
	}

	channel, err := in.channel(m.ChannelID)
	if err != nil {
		in.GetLogger().Warn("channel lookup failed",
			zap.String("channel", m.ChannelID), zap.Error(err))
		return
	}

	isDM := channel.Type == discordgo.ChannelTypeDM
	isThread := channel.IsThread()

	switch {
	case isThread:
		if isCloseRequest(m.Content) {
			if _, err := in.session.ChannelDelete(channel.ID); err != nil {
				in.GetLogger().Warn("failed to delete thread", zap.Error(err))
			}
			return
		}
		// only the thread starter may continue a thread
		if !in.isThreadStarter(channel, m.Author.ID) {
			return
		}
	case !isDM:
		if !in.mentionsBot(m) && !in.cfg.ListenToChannels {
			return
		}
	}

	event, err := in.buildEvent(ctx, m, channel, isDM, isThread)
	if err != nil {
		in.GetLogger().Error("failed to build event", zap.Error(err))
		return
	}

	metrics.EventsReceived.WithLabelValues(PlatformName, string(event.Type)).Inc()
	in.GetMetricsCollector().Increment("events_received", 1)

	select {
	case in.events <- event:
	case <-ctx.Done():
	}
}

func (in *Input) buildEvent(ctx context.Context, m *discordgo.MessageCreate, channel *discordgo.Channel, isDM, isThread bool) (*models.Event, error) {
	// conversations live in threads: a channel message starts one
	threadID := channel.ID
	if !isThread && !isDM {
		thread, err := in.session.MessageThreadStartComplex(m.ChannelID, m.ID, &discordgo.ThreadStart{
			Name:                truncateTitle(m.ContentWithMentionsReplaced(), in.cfg.ThreadTitleLength),
			AutoArchiveDuration: 60,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create thread")
		}
		threadID = thread.ID
	}

	event := models.NewEvent(PlatformName, models.EventTypeMessage)
	event.Text = m.ContentWithMentionsReplaced()
	event.UserID = m.Author.ID
	event.UserName = m.Author.Username
	event.Channel = threadID
	event.ChannelType = channelTypeName(channel.Type)
	event.ReplyToThread = threadID
	event.ThreadTS = threadID
	event.Timestamp = m.Timestamp

	if channel.Name != "" {
		event.ChannelName = channel.Name
	} else {
		event.ChannelName = m.Author.Username
	}

	if guild, err := in.session.State.Guild(m.GuildID); err == nil && guild != nil {
		event.TeamDomain = guild.Name
	} else {
		event.TeamDomain = m.Author.Username
	}

	event.SetMetadata("session_id", threadID)
	event.SetMetadata("client_msg_id", m.ID)
	event.SetMetadata("ts", strconv.FormatInt(m.Timestamp.Unix(), 10))

	event.Files = in.downloadAttachments(ctx, m.Attachments)

	return event, nil
}

func (in *Input) channel(id string) (*discordgo.Channel, error) {
	if channel, err := in.session.State.Channel(id); err == nil {
		return channel, nil
	}
	return in.session.Channel(id)
}

func (in *Input) mentionsBot(m *discordgo.MessageCreate) bool {
	self := in.session.State.User
	for _, user := range m.Mentions {
		if user.ID == self.ID {
			return true
		}
	}
	return false
}

// isCloseRequest reports whether a message asks to close the thread. The
// phrase counts anywhere in the message, not just on its own.
func isCloseRequest(content string) bool {
	return strings.Contains(content, closeThreadPhrase)
}

// isThreadStarter reports whether the user started the thread. The
// starter message shares its id with the thread itself.
func (in *Input) isThreadStarter(thread *discordgo.Channel, userID string) bool {
	starter, err := in.session.ChannelMessage(thread.ParentID, thread.ID)
	if err != nil || starter == nil || starter.Author == nil {
		return false
	}
	return starter.Author.ID == userID
}

// downloadAttachments fetches attachments within the size caps and
// returns them base64 encoded.
func (in *Input) downloadAttachments(ctx context.Context, attachments []*discordgo.MessageAttachment) []models.FileAttachment {
	var out []models.FileAttachment
	var total int64

	for _, attachment := range attachments {
		size := int64(attachment.Size)
		total += size

		if size > in.cfg.MaxFileBytes() {
			in.GetLogger().Warn("attachment too large, skipping",
				zap.String("name", attachment.Filename), zap.Int64("size", size))
			metrics.FilesSkipped.WithLabelValues(PlatformName, "file_too_large").Inc()
			continue
		}
		if total > in.cfg.MaxTotalFileBytes() {
			in.GetLogger().Warn("total attachment size exceeded, stopping downloads")
			metrics.FilesSkipped.WithLabelValues(PlatformName, "total_too_large").Inc()
			break
		}

		data, err := in.downloader.Get(ctx, attachment.URL, nil)
		if err != nil {
			in.GetLogger().Error("attachment download failed",
				zap.String("name", attachment.Filename), zap.Error(err))
			continue
		}

		metrics.FileBytesDownloaded.WithLabelValues(PlatformName).Add(float64(len(data)))
		out = append(out, models.FileAttachment{
			Name:     attachment.Filename,
			Content:  base64.StdEncoding.EncodeToString(data),
			MimeType: attachment.ContentType,
			FileType: attachment.ContentType,
			Size:     size,
		})
	}

	return out
}

// Acknowledge starts a typing indicator in the event's channel.
func (in *Input) Acknowledge(ctx context.Context, event *models.Event) error {
	if err := in.session.ChannelTyping(event.Channel); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to send typing indicator")
	}
	return nil
}

// SupportsForms reports that Discord has no form rendering.
func (in *Input) SupportsForms() bool { return false }

// SupportsThreads reports that Discord supports threads.
func (in *Input) SupportsThreads() bool { return true }

// truncateTitle shortens message content into a thread title.
func truncateTitle(text string, max int) string {
	if max <= 0 {
		max = 20
	}
	runes := []rune(text)
	if len(runes) <= max {
		if text == "" {
			return "conversation"
		}
		return text
	}
	return string(runes[:max])
}

func channelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeDM:
		return "dm"
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return "thread"
	default:
		return fmt.Sprintf("type_%d", int(t))
	}
}
