// Package directory resolves Slack channel and user details with caching.
// Channel names, DM channel ids, and user emails are stable enough to
// cache for the life of the process; lookups that fail fall back to the
// raw id so message handling never blocks on directory data.
package directory

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/logger"
)

// SlackAPI is the subset of the Slack client the directory needs.
type SlackAPI interface {
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// Directory caches channel and user lookups against the Slack API.
type Directory struct {
	api    SlackAPI
	logger *zap.Logger

	mu           sync.RWMutex
	channelNames map[string]string
	dmChannels   map[string]string
	userEmails   map[string]string
	userNames    map[string]string
}

// New creates a directory backed by the given Slack API client.
func New(api SlackAPI) *Directory {
	return &Directory{
		api:          api,
		logger:       logger.Get().With(zap.String("component", "slack_directory")),
		channelNames: make(map[string]string),
		dmChannels:   make(map[string]string),
		userEmails:   make(map[string]string),
		userNames:    make(map[string]string),
	}
}

// ChannelName resolves a channel id to its name, returning the id itself
// when the lookup fails.
func (d *Directory) ChannelName(ctx context.Context, channelID string) string {
	d.mu.RLock()
	name, ok := d.channelNames[channelID]
	d.mu.RUnlock()
	if ok {
		return name
	}

	channel, err := d.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil || channel == nil || channel.Name == "" {
		if err != nil {
			d.logger.Warn("channel name lookup failed",
				zap.String("channel", channelID), zap.Error(err))
		}
		return channelID
	}

	d.mu.Lock()
	d.channelNames[channelID] = channel.Name
	d.mu.Unlock()

	return channel.Name
}

// DMChannel opens (or returns the cached) direct message channel with a
// user. Returns an empty string when the conversation cannot be opened.
func (d *Directory) DMChannel(ctx context.Context, userID string) string {
	d.mu.RLock()
	channelID, ok := d.dmChannels[userID]
	d.mu.RUnlock()
	if ok {
		return channelID
	}

	channel, _, _, err := d.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil || channel == nil {
		d.logger.Warn("failed to open DM conversation",
			zap.String("user", userID), zap.Error(err))
		return ""
	}

	d.mu.Lock()
	d.dmChannels[userID] = channel.ID
	d.mu.Unlock()

	return channel.ID
}

// UserEmail resolves a user id to their profile email, empty when unknown.
func (d *Directory) UserEmail(ctx context.Context, userID string) string {
	d.mu.RLock()
	email, ok := d.userEmails[userID]
	d.mu.RUnlock()
	if ok {
		return email
	}

	user, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil || user == nil {
		d.logger.Warn("user email lookup failed",
			zap.String("user", userID), zap.Error(err))
		return ""
	}

	d.mu.Lock()
	d.userEmails[userID] = user.Profile.Email
	d.userNames[userID] = user.RealName
	d.mu.Unlock()

	return user.Profile.Email
}

// UserName resolves a user id to their real name, falling back to the id.
func (d *Directory) UserName(ctx context.Context, userID string) string {
	d.mu.RLock()
	name, ok := d.userNames[userID]
	d.mu.RUnlock()
	if ok && name != "" {
		return name
	}

	user, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil || user == nil {
		return userID
	}

	d.mu.Lock()
	d.userNames[userID] = user.RealName
	d.userEmails[userID] = user.Profile.Email
	d.mu.Unlock()

	if user.RealName == "" {
		return userID
	}
	return user.RealName
}
