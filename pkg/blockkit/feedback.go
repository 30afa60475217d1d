package blockkit

import (
	json "github.com/goccy/go-json"
	"github.com/slack-go/slack"
)

// Action ids for the feedback controls.
const (
	ThumbsUpAction       = "thumbs_up_action"
	ThumbsDownAction     = "thumbs_down_action"
	FeedbackReasonAction = "feedback_text_reason"

	// DefaultFeedbackBlockID marks the thumbs block when the feedback data
	// carries no block id of its own.
	DefaultFeedbackBlockID = "thumbs_up_down"
)

// FeedbackState is the state blob carried in feedback button values and,
// for the reason prompt, in the block id itself. Slack gives interactive
// handlers no other place to keep per-message state.
type FeedbackState struct {
	Channel      string                 `json:"channel,omitempty"`
	ThreadTS     string                 `json:"thread_ts,omitempty"`
	Feedback     string                 `json:"feedback,omitempty"`
	FeedbackData map[string]interface{} `json:"feedback_data,omitempty"`
}

// Encode serializes the state for a button value or block id.
func (s FeedbackState) Encode() string {
	data, _ := json.Marshal(s)
	return string(data)
}

// DecodeFeedbackState parses a state blob, returning the zero value for
// malformed input.
func DecodeFeedbackState(raw string) FeedbackState {
	var s FeedbackState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return FeedbackState{}
	}
	return s
}

// FeedbackButtonsBlock renders the thumbs up/down buttons attached to a
// completed response. Both buttons carry the full state in their value.
func FeedbackButtonsBlock(state FeedbackState, blockID string) slack.Block {
	if blockID == "" {
		blockID = DefaultFeedbackBlockID
	}
	value := state.Encode()

	up := slack.NewButtonBlockElement(ThumbsUpAction, value,
		slack.NewTextBlockObject(slack.PlainTextType, ":thumbsup:", true, false))
	down := slack.NewButtonBlockElement(ThumbsDownAction, value,
		slack.NewTextBlockObject(slack.PlainTextType, ":thumbsdown:", true, false))

	return slack.NewActionBlock(blockID, up, down)
}

// ThanksBlock replaces the feedback controls once the user has responded.
func ThanksBlock(userID, feedback string) slack.Block {
	message := "Thanks for the feedback"
	if feedback == "thumbs_up" {
		message = "Thanks for the thumbs up"
	}
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, message+", <@"+userID+">!", false, false),
		nil, nil)
}

// ReasonBlock prompts for a free-text reason after a thumbs down. The
// state rides in the block id so the submit handler can recover it.
func ReasonBlock(state FeedbackState) slack.Block {
	element := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "How can we improve the response?", false, false),
		FeedbackReasonAction)
	element.DispatchActionConfig = &slack.DispatchActionConfig{
		TriggerActionsOn: []string{"on_enter_pressed"},
	}

	block := slack.NewInputBlock(state.Encode(),
		slack.NewTextBlockObject(slack.PlainTextType, " ", false, false), nil, element)
	block.DispatchAction = true
	return block
}
