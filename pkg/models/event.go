// Package models provides the normalized data model exchanged between chat
// platform connectors and the pipeline. Inputs produce Events; outputs
// consume OutboundMessages. The shapes are platform-neutral so a Slack
// input can feed a Kafka output and a Discord output can render events
// produced elsewhere.
package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies inbound chat events.
type EventType string

const (
	// EventTypeMessage is a plain user message
	EventTypeMessage EventType = "message"
	// EventTypeFormSubmission is a submitted user form
	EventTypeFormSubmission EventType = "post_user_form"
)

// Event is a normalized inbound chat event.
type Event struct {
	// ID uniquely identifies the event
	ID string `json:"id"`
	// Type classifies the event
	Type EventType `json:"type"`
	// Platform names the originating chat platform ("slack", "discord")
	Platform string `json:"platform"`

	// Text is the cleaned message text
	Text string `json:"text"`
	// Files holds downloaded attachments
	Files []FileAttachment `json:"files,omitempty"`

	// UserID identifies the author on the platform
	UserID string `json:"user_id"`
	// UserName is the author display name
	UserName string `json:"user_name,omitempty"`
	// UserEmail is the author email when resolvable, else the user id
	UserEmail string `json:"user_email,omitempty"`

	// Channel is the channel (or thread) the reply should target
	Channel string `json:"channel"`
	// ChannelName is the human-readable channel name
	ChannelName string `json:"channel_name,omitempty"`
	// ChannelType is the platform channel type (im, channel, thread, ...)
	ChannelType string `json:"channel_type,omitempty"`
	// ThreadTS is the thread anchor timestamp/id
	ThreadTS string `json:"thread_ts,omitempty"`
	// ReplyToThread is the thread id replies must go to
	ReplyToThread string `json:"reply_to_thread,omitempty"`
	// TeamDomain is the workspace/guild name
	TeamDomain string `json:"team_domain,omitempty"`

	// Timestamp is the platform event timestamp
	Timestamp time.Time `json:"timestamp"`

	// FormData carries submitted form fields for form submission events
	FormData map[string]interface{} `json:"form_data,omitempty"`
	// TaskID links a form submission back to the task that rendered it
	TaskID string `json:"task_id,omitempty"`

	// Metadata carries platform-specific extras (session id, client msg id)
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent creates an event with a generated id and the current time.
func NewEvent(platform string, eventType EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Platform:  platform,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// SessionID returns the session identifier for the event, falling back to
// the reply thread and then the channel.
func (e *Event) SessionID() string {
	if v, ok := e.Metadata["session_id"].(string); ok && v != "" {
		return v
	}
	if e.ReplyToThread != "" {
		return e.ReplyToThread
	}
	return e.Channel
}

// SetMetadata sets a metadata key.
func (e *Event) SetMetadata(key string, value interface{}) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
}

// FileAttachment is a downloaded file carried inline with an event.
// Content is base64-encoded so events stay JSON-serializable on the bus.
type FileAttachment struct {
	// Name is the original filename
	Name string `json:"name"`
	// Content is the base64-encoded file body
	Content string `json:"content"`
	// MimeType is the reported content type
	MimeType string `json:"mime_type,omitempty"`
	// FileType is the platform file type hint
	FileType string `json:"filetype,omitempty"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// MessageInfo addresses an outbound message.
type MessageInfo struct {
	// Channel is the target channel or thread
	Channel string `json:"channel"`
	// SessionID groups messages belonging to one conversation
	SessionID string `json:"session_id"`
	// ThreadTS anchors the reply in a thread
	ThreadTS string `json:"thread_ts,omitempty"`
	// AckMessageTS is the timestamp of a prior acknowledgement message
	AckMessageTS string `json:"ack_msg_ts,omitempty"`
	// UserID is the user the message responds to
	UserID string `json:"user_id,omitempty"`
}

// MessageContent is the payload of an outbound message.
type MessageContent struct {
	// Text is the message text (possibly a partial stream chunk)
	Text string `json:"text"`
	// UUID identifies a streamed response across chunks
	UUID string `json:"uuid,omitempty"`
	// Files to upload alongside the text
	Files []FileAttachment `json:"files,omitempty"`
	// Streaming marks the message as part of a streamed response
	Streaming bool `json:"streaming,omitempty"`
	// FirstChunk marks the first chunk of a streamed response
	FirstChunk bool `json:"first_chunk,omitempty"`
	// LastChunk marks the final chunk of a streamed response
	LastChunk bool `json:"last_chunk,omitempty"`
	// StatusUpdate marks the text as a transient status line
	StatusUpdate bool `json:"status_update,omitempty"`
	// ResponseComplete marks the end of the whole response
	ResponseComplete bool `json:"response_complete,omitempty"`
	// UserForm is an RJSF form to render for the user
	UserForm map[string]interface{} `json:"user_form,omitempty"`
	// TaskID links a rendered form to its originating task
	TaskID string `json:"task_id,omitempty"`
}

// OutboundMessage is a normalized message for an output connector.
type OutboundMessage struct {
	Info MessageInfo `json:"message_info"`
	// Content is the message payload
	Content MessageContent `json:"content"`
	// FeedbackData is opaque state echoed back with user feedback
	FeedbackData map[string]interface{} `json:"feedback_data,omitempty"`
}

// FeedbackKind distinguishes positive and negative feedback.
type FeedbackKind string

const (
	// FeedbackThumbsUp is positive feedback
	FeedbackThumbsUp FeedbackKind = "thumbs_up"
	// FeedbackThumbsDown is negative feedback
	FeedbackThumbsDown FeedbackKind = "thumbs_down"
)

// FeedbackPayload is the body POSTed to the feedback endpoint.
type FeedbackPayload struct {
	User          map[string]interface{} `json:"user"`
	Feedback      FeedbackKind           `json:"feedback"`
	Interface     string                 `json:"interface"`
	InterfaceData map[string]interface{} `json:"interface_data,omitempty"`
	Data          interface{}            `json:"data,omitempty"`
	Reason        string                 `json:"feedback_reason,omitempty"`
}
