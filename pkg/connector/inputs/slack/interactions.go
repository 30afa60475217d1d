package slackinput

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/blockkit"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// handleInteraction routes interactive callbacks arriving on the socket:
// feedback buttons, the feedback reason input, and form submissions.
func (in *Input) handleInteraction(ctx context.Context, cb *slack.InteractionCallback) {
	if cb.Type != slack.InteractionTypeBlockActions || len(cb.ActionCallback.BlockActions) == 0 {
		return
	}

	action := cb.ActionCallback.BlockActions[0]

	switch action.ActionID {
	case blockkit.SubmitAction:
		in.handleFormSubmission(ctx, cb, action)
	case blockkit.ThumbsUpAction:
		in.handleThumbs(ctx, cb, action, models.FeedbackThumbsUp)
	case blockkit.ThumbsDownAction:
		in.handleThumbs(ctx, cb, action, models.FeedbackThumbsDown)
	case blockkit.FeedbackReasonAction:
		in.handleFeedbackReason(ctx, cb, action)
	}
}

// handleFormSubmission turns a submitted form into a pipeline event and
// confirms receipt to the user.
func (in *Input) handleFormSubmission(ctx context.Context, cb *slack.InteractionCallback, action *slack.BlockAction) {
	submit := blockkit.ParseSubmitValue(action.Value)
	if submit.TaskID == "" {
		in.GetLogger().Error("form submission without task id",
			zap.String("user", cb.User.ID))
		return
	}

	formData := blockkit.ExtractFormData(cb.BlockActionState)
	formJSON, _ := json.Marshal(formData)

	event := models.NewEvent(PlatformName, models.EventTypeFormSubmission)
	event.Text = string(formJSON)
	event.FormData = formData
	event.TaskID = submit.TaskID
	event.UserID = cb.User.ID
	event.UserEmail = in.userEmail(ctx, cb.User.ID)
	event.Channel = cb.Channel.ID
	if cb.Channel.IsIM {
		event.ChannelType = "im"
	} else {
		event.ChannelType = "channel"
	}
	event.ThreadTS = cb.Message.ThreadTimestamp
	event.ReplyToThread = cb.Message.ThreadTimestamp
	event.SetMetadata("ts", cb.Message.Timestamp)
	event.SetMetadata("session_id", cb.Channel.ID+"_"+cb.Message.ThreadTimestamp)

	metrics.EventsReceived.WithLabelValues(PlatformName, string(event.Type)).Inc()

	select {
	case in.events <- event:
	case <-ctx.Done():
		return
	}

	if _, _, err := in.api.PostMessageContext(ctx, cb.Channel.ID,
		slack.MsgOptionText("Form submitted successfully!", false),
		slack.MsgOptionTS(cb.Message.ThreadTimestamp)); err != nil {
		in.GetLogger().Error("failed to confirm form submission", zap.Error(err))
	}
}

// handleThumbs reacts to a feedback button press. Thumbs up thanks the
// user and posts the feedback; thumbs down swaps the buttons for a reason
// prompt first.
func (in *Input) handleThumbs(ctx context.Context, cb *slack.InteractionCallback, action *slack.BlockAction, kind models.FeedbackKind) {
	if in.poster == nil {
		in.GetLogger().Error("feedback received but feedback posting is not configured")
		return
	}

	state := blockkit.DecodeFeedbackState(action.Value)
	feedbackData := state.FeedbackData

	blockID := blockkit.DefaultFeedbackBlockID
	if id, ok := feedbackData["block_id"].(string); ok && id != "" {
		blockID = id
	}
	// the reason block's id becomes the whole state blob; carrying the old
	// block id inside it would blow Slack's block_id length limit
	delete(feedbackData, "block_id")

	prevTS := in.findPreviousMessage(ctx, state.ThreadTS, state.Channel, blockID)

	if prevTS == "" {
		in.postBlock(ctx, state.Channel, state.ThreadTS, blockkit.ThanksBlock(cb.User.ID, string(kind)))
	} else if kind == models.FeedbackThumbsUp {
		in.updateBlock(ctx, state.Channel, prevTS, blockkit.ThanksBlock(cb.User.ID, string(kind)))
	} else {
		state.Feedback = string(kind)
		in.updateBlock(ctx, state.Channel, prevTS, blockkit.ReasonBlock(state))
	}

	// thumbs down waits for the reason before posting
	if kind == models.FeedbackThumbsUp || prevTS == "" {
		in.postFeedback(ctx, cb, kind, "", feedbackData)
	}
}

// handleFeedbackReason finishes a thumbs-down flow: the block id carries
// the state, the input value carries the reason.
func (in *Input) handleFeedbackReason(ctx context.Context, cb *slack.InteractionCallback, action *slack.BlockAction) {
	state := blockkit.DecodeFeedbackState(action.BlockID)

	var reason string
	if cb.BlockActionState != nil {
		if actions, ok := cb.BlockActionState.Values[action.BlockID]; ok {
			reason = actions[blockkit.FeedbackReasonAction].Value
		}
	}

	prevTS := in.findPreviousMessage(ctx, state.ThreadTS, state.Channel, action.BlockID)
	thanks := blockkit.ThanksBlock(cb.User.ID, state.Feedback)

	if prevTS == "" {
		in.postBlock(ctx, state.Channel, state.ThreadTS, thanks)
	} else {
		in.updateBlock(ctx, state.Channel, prevTS, thanks)
	}

	kind := models.FeedbackKind(state.Feedback)
	if kind == "" {
		kind = models.FeedbackThumbsDown
	}
	in.postFeedback(ctx, cb, kind, reason, state.FeedbackData)
}

// findPreviousMessage scans recent conversation (or thread) history for
// the message containing a block with the given id.
func (in *Input) findPreviousMessage(ctx context.Context, threadTS, channel, blockID string) string {
	var messages []slack.Message

	if threadTS == "" {
		resp, err := in.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Limit:     100,
			Inclusive: true,
		})
		if err != nil {
			in.GetLogger().Warn("conversation history lookup failed", zap.Error(err))
			return ""
		}
		messages = resp.Messages
	} else {
		replies, _, _, err := in.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channel,
			Timestamp: threadTS,
			Limit:     100,
		})
		if err != nil {
			in.GetLogger().Warn("thread replies lookup failed", zap.Error(err))
			return ""
		}
		messages = replies
	}

	found := ""
	for _, message := range messages {
		for _, block := range message.Blocks.BlockSet {
			if block.ID() == blockID {
				found = message.Timestamp
				break
			}
		}
	}
	return found
}

func (in *Input) postBlock(ctx context.Context, channel, threadTS string, block slack.Block) {
	timer := metrics.NewTimer(PlatformName, "chat.postMessage")
	_, _, err := in.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText("Thanks!", false),
		slack.MsgOptionTS(threadTS),
		slack.MsgOptionBlocks(block))
	timer.Stop()
	if err != nil {
		in.GetLogger().Error("failed to post feedback response", zap.Error(err))
	}
}

func (in *Input) updateBlock(ctx context.Context, channel, ts string, block slack.Block) {
	timer := metrics.NewTimer(PlatformName, "chat.update")
	_, _, _, err := in.api.UpdateMessageContext(ctx, channel, ts,
		slack.MsgOptionText("Thanks!", false),
		slack.MsgOptionBlocks(block))
	timer.Stop()
	if err != nil {
		in.GetLogger().Error("failed to update feedback message", zap.Error(err))
	}
}

func (in *Input) postFeedback(ctx context.Context, cb *slack.InteractionCallback, kind models.FeedbackKind, reason string, data map[string]interface{}) {
	payload := &models.FeedbackPayload{
		User: map[string]interface{}{
			"id":    cb.User.ID,
			"name":  cb.User.Name,
			"email": in.userEmail(ctx, cb.User.ID),
		},
		Feedback:  kind,
		Interface: PlatformName,
		InterfaceData: map[string]interface{}{
			"channel": cb.Channel.ID,
		},
		Data:   data,
		Reason: reason,
	}

	if err := in.poster.Post(ctx, payload); err != nil {
		in.GetLogger().Error("failed to post feedback", zap.Error(err))
	}
}
