// Package core defines the connector interfaces for the chat connector
// runtime. Inputs turn platform events into normalized Events; outputs
// deliver normalized OutboundMessages to a platform or bus.
package core

import (
	"context"
	"time"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	// ConnectorTypeInput marks event-producing connectors
	ConnectorTypeInput ConnectorType = "input"
	// ConnectorTypeOutput marks message-delivering connectors
	ConnectorTypeOutput ConnectorType = "output"
)

// EventStream represents a stream of inbound chat events.
type EventStream struct {
	Events <-chan *models.Event
	Errors <-chan error
}

// Connector is the base interface for all connectors
type Connector interface {
	// Metadata
	Name() string
	Type() ConnectorType
	Version() string

	// Lifecycle
	Initialize(ctx context.Context, config *config.BaseConfig) error
	Close(ctx context.Context) error

	// Health and monitoring
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// Input is the interface that all input connectors must implement.
// Open starts the platform event loop; the returned stream is closed when
// the connector shuts down.
type Input interface {
	Connector

	// Open starts receiving platform events
	Open(ctx context.Context) (*EventStream, error)

	// Acknowledge signals receipt of an event to the user (ack message,
	// typing indicator). Implementations may no-op.
	Acknowledge(ctx context.Context, event *models.Event) error

	// Capabilities
	SupportsForms() bool
	SupportsThreads() bool
}

// Output is the interface that all output connectors must implement.
type Output interface {
	Connector

	// Send delivers one outbound message. Streaming chunks for the same
	// response share a content UUID; implementations coalesce them.
	Send(ctx context.Context, msg *models.OutboundMessage) error

	// Flush forces any buffered sends out
	Flush(ctx context.Context) error

	// Capabilities
	SupportsStreaming() bool
	SupportsFeedback() bool
	SupportsFiles() bool
}

// HealthStatus represents the health status of a connector
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
	Error     error                  `json:"error,omitempty"`
}

// FeedbackSink receives user feedback collected by output connectors.
type FeedbackSink interface {
	Post(ctx context.Context, payload *models.FeedbackPayload) error
}

// ConnectorMetadata provides metadata about a connector
type ConnectorMetadata struct {
	Name         string        `json:"name"`
	Type         ConnectorType `json:"type"`
	Version      string        `json:"version"`
	Description  string        `json:"description"`
	Capabilities []string      `json:"capabilities"`
}
