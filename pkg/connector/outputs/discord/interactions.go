package discordoutput

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

const (
	thumbsUpID   = "thumbs_up"
	thumbsDownID = "thumbs_down"

	// reasonModalPrefix carries the message id of the rated response
	// through the modal round trip.
	reasonModalPrefix = "feedback_modal:"
	reasonInputID     = "feedback_reason"
)

// responder is the slice of the session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// feedbackComponents builds the thumbs up/down button row attached to a
// completed response.
func feedbackComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "👍",
					Style:    discordgo.SuccessButton,
					CustomID: thumbsUpID,
				},
				discordgo.Button{
					Label:    "👎",
					Style:    discordgo.DangerButton,
					CustomID: thumbsDownID,
				},
			},
		},
	}
}

func (out *Output) handleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		out.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		out.handleModalSubmit(ctx, i)
	}
}

func (out *Output) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.MessageComponentData().CustomID {
	case thumbsUpID:
		out.handleThumbsUp(ctx, i)
	case thumbsDownID:
		out.handleThumbsDown(i)
	}
}

func (out *Output) handleThumbsUp(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)

	if err := out.respondEphemeral(i, "Thanks for the thumbs up!"); err != nil {
		out.GetLogger().Warn("interaction response failed", zap.Error(err))
	}
	if i.Message != nil {
		out.removeButtons(i.ChannelID, i.Message.ID)
	}

	out.postFeedback(ctx, user, i.ChannelID, models.FeedbackThumbsUp, "")
}

// handleThumbsDown opens a modal asking for the reason. The feedback is
// posted when the modal is submitted.
func (out *Output) handleThumbsDown(i *discordgo.InteractionCreate) {
	messageID := ""
	if i.Message != nil {
		messageID = i.Message.ID
	}

	err := out.responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: reasonModalPrefix + messageID,
			Title:    "Feedback",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  reasonInputID,
							Label:     "How can we improve this response?",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 300,
						},
					},
				},
			},
		},
	})
	if err != nil {
		out.GetLogger().Warn("failed to open feedback modal", zap.Error(err))
	}
}

func (out *Output) handleModalSubmit(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	if !strings.HasPrefix(data.CustomID, reasonModalPrefix) {
		return
	}

	user := interactionUser(i)
	reason := reasonFromModal(data.Components)

	if err := out.respondEphemeral(i, "Thanks for the feedback!"); err != nil {
		out.GetLogger().Warn("interaction response failed", zap.Error(err))
	}

	if messageID := strings.TrimPrefix(data.CustomID, reasonModalPrefix); messageID != "" {
		out.removeButtons(i.ChannelID, messageID)
	}

	out.postFeedback(ctx, user, i.ChannelID, models.FeedbackThumbsDown, reason)
}

func (out *Output) respondEphemeral(i *discordgo.InteractionCreate, text string) error {
	return out.responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// removeButtons strips the feedback buttons so a rating is only given
// once per response.
func (out *Output) removeButtons(channelID, messageID string) {
	empty := []discordgo.MessageComponent{}
	_, err := out.messenger.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Components: &empty,
	})
	if err != nil {
		out.GetLogger().Warn("failed to remove feedback buttons", zap.Error(err))
	}
}

func (out *Output) postFeedback(ctx context.Context, user *discordgo.User, channelID string, kind models.FeedbackKind, reason string) {
	if out.poster == nil {
		out.GetLogger().Error("feedback received but no feedback endpoint is configured")
		return
	}

	payload := &models.FeedbackPayload{
		Feedback:  kind,
		Interface: PlatformName,
		InterfaceData: map[string]interface{}{
			"channel": channelID,
		},
		Reason: reason,
		User:   map[string]interface{}{},
	}
	if user != nil {
		payload.User["id"] = user.ID
		payload.User["name"] = user.Username
	}

	if err := out.poster.Post(ctx, payload); err != nil {
		out.GetLogger().Error("failed to post feedback", zap.Error(err))
	}
}

// interactionUser resolves the acting user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// reasonFromModal digs the typed reason out of the modal components.
// discordgo unmarshals rows and inputs as pointers; both forms are
// accepted.
func reasonFromModal(components []discordgo.MessageComponent) string {
	for _, component := range components {
		switch c := component.(type) {
		case *discordgo.ActionsRow:
			if reason := reasonFromModal(c.Components); reason != "" {
				return reason
			}
		case discordgo.ActionsRow:
			if reason := reasonFromModal(c.Components); reason != "" {
				return reason
			}
		case *discordgo.TextInput:
			if c.CustomID == reasonInputID {
				return c.Value
			}
		case discordgo.TextInput:
			if c.CustomID == reasonInputID {
				return c.Value
			}
		}
	}
	return ""
}
