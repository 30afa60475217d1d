// Package config provides the unified configuration system for the chat
// connector runtime. It defines a single BaseConfig structure that all
// connectors use, ensuring consistent configuration across the system.
//
// The configuration is organized into logical sections:
//   - Slack / Discord / Kafka: platform credentials and behavior
//   - Feedback: user feedback collection endpoint
//   - Performance: buffering, workers, streaming throttles
//   - Timeouts: connection and request timeouts
//   - Reliability: retry logic, rate limiting, health checks
//   - Observability: metrics, tracing, logging
//   - Advanced: compression and optional features
package config

import (
	"fmt"
	"runtime"
	"time"
)

// BaseConfig is the single unified configuration structure that all
// connectors use. Connector factories receive it and extract their own
// sections.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name"`
	// Type specifies the connector type (e.g., "slack", "discord", "kafka")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Slack holds Slack platform settings
	Slack SlackConfig `yaml:"slack" json:"slack"`

	// Discord holds Discord platform settings
	Discord DiscordConfig `yaml:"discord" json:"discord"`

	// Kafka holds event-bus output settings
	Kafka KafkaConfig `yaml:"kafka" json:"kafka"`

	// Feedback holds user feedback collection settings
	Feedback FeedbackConfig `yaml:"feedback" json:"feedback"`

	// Performance settings control throughput and resource usage
	Performance PerformanceConfig `yaml:"performance" json:"performance"`

	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Reliability settings for error handling and resilience
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Advanced features and optimizations
	Advanced AdvancedConfig `yaml:"advanced" json:"advanced"`
}

// SlackConfig contains Slack-specific settings. The bot token authenticates
// Web API calls; the app token authenticates the Socket Mode connection.
type SlackConfig struct {
	// BotToken is the xoxb- token for the Slack Web API
	BotToken string `yaml:"bot_token" json:"bot_token"`
	// AppToken is the xapp- token for Socket Mode
	AppToken string `yaml:"app_token" json:"app_token"`
	// MaxFileSizeMB caps the size of a single downloaded attachment
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	// MaxTotalFileSizeMB caps the total attachment bytes per event
	MaxTotalFileSizeMB int `yaml:"max_total_file_size_mb" json:"max_total_file_size_mb"`
	// ShareConnection reuses one API client across components with the same token
	ShareConnection bool `yaml:"share_connection" json:"share_connection"`
	// AcknowledgementMessage is posted when a user message is received
	AcknowledgementMessage string `yaml:"acknowledgement_message" json:"acknowledgement_message"`
	// ListenToChannels processes channel messages without an explicit mention
	ListenToChannels bool `yaml:"listen_to_channels" json:"listen_to_channels"`
	// CorrectMarkdown rewrites generated markdown to Slack mrkdwn
	CorrectMarkdown bool `yaml:"correct_markdown" json:"correct_markdown"`
}

// DiscordConfig contains Discord-specific settings.
type DiscordConfig struct {
	// BotToken is the Discord bot token
	BotToken string `yaml:"bot_token" json:"bot_token"`
	// MaxFileSizeMB caps the size of a single downloaded attachment
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	// MaxTotalFileSizeMB caps the total attachment bytes per event
	MaxTotalFileSizeMB int `yaml:"max_total_file_size_mb" json:"max_total_file_size_mb"`
	// ListenToChannels processes channel messages without an explicit mention
	ListenToChannels bool `yaml:"listen_to_channels" json:"listen_to_channels"`
	// CommandPrefix is the prefix for bot commands
	CommandPrefix string `yaml:"command_prefix" json:"command_prefix"`
	// CorrectMarkdown rewrites generated markdown to Discord markdown
	CorrectMarkdown bool `yaml:"correct_markdown" json:"correct_markdown"`
	// ThreadTitleLength truncates auto-created thread titles
	ThreadTitleLength int `yaml:"thread_title_length" json:"thread_title_length"`
}

// KafkaConfig contains event-bus output settings.
type KafkaConfig struct {
	// Brokers lists bootstrap broker addresses
	Brokers []string `yaml:"brokers" json:"brokers"`
	// Topic is the destination topic for normalized chat events
	Topic string `yaml:"topic" json:"topic"`
	// ClientID identifies the producer to the cluster
	ClientID string `yaml:"client_id" json:"client_id"`
	// RequiredAcks selects producer ack mode: "none", "local", or "all"
	RequiredAcks string `yaml:"required_acks" json:"required_acks"`
}

// FeedbackConfig controls thumbs up/down feedback collection.
type FeedbackConfig struct {
	// Enabled turns feedback controls on
	Enabled bool `yaml:"enabled" json:"enabled"`
	// PostURL receives feedback payloads via HTTP POST
	PostURL string `yaml:"post_url" json:"post_url"`
	// PostHeaders are sent with each feedback POST
	PostHeaders map[string]string `yaml:"post_headers" json:"post_headers"`
}

// PerformanceConfig contains performance-related settings.
type PerformanceConfig struct {
	// BufferSize sets the size of internal event buffers
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// Workers defines the number of concurrent pipeline workers
	Workers int `yaml:"workers" json:"workers"`
	// MaxConcurrency limits total concurrent API operations
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
	// StreamingUpdateInterval throttles streamed message edits
	StreamingUpdateInterval time.Duration `yaml:"streaming_update_interval" json:"streaming_update_interval"`
	// StreamingStateTTL ages out idle streaming message state
	StreamingStateTTL time.Duration `yaml:"streaming_state_ttl" json:"streaming_state_ttl"`
}

// TimeoutConfig contains timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for individual API operations
	Request time.Duration `yaml:"request" json:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Shutdown is the grace period for draining on close
	Shutdown time.Duration `yaml:"shutdown" json:"shutdown"`
}

// ReliabilityConfig contains reliability and error handling settings.
type ReliabilityConfig struct {
	// RetryAttempts sets maximum retry attempts for failed operations
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// CircuitBreaker enables circuit breaker protection on API calls
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// RateLimitPerSec limits API operations per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// HealthCheck enables periodic health checks
	HealthCheck bool `yaml:"health_check" json:"health_check"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// AdvancedConfig contains optional advanced features.
type AdvancedConfig struct {
	// EnableCompression compresses large event payloads on the bus
	EnableCompression bool `yaml:"enable_compression" json:"enable_compression"`
	// CompressionLevel sets compression ratio vs speed (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
	// CompressionThreshold skips compression below this payload size in bytes
	CompressionThreshold int `yaml:"compression_threshold" json:"compression_threshold"`
	// SendHistoryOnJoin emits channel history when the bot joins
	SendHistoryOnJoin bool `yaml:"send_history_on_join" json:"send_history_on_join"`
	// Debug enables detailed debug output
	Debug bool `yaml:"debug" json:"debug"`
}

// NewBaseConfig creates a BaseConfig with production defaults. Connector
// configs loaded from YAML should start from this and override.
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Slack: SlackConfig{
			MaxFileSizeMB:      20,
			MaxTotalFileSizeMB: 20,
			ShareConnection:    true,
			CorrectMarkdown:    true,
		},
		Discord: DiscordConfig{
			MaxFileSizeMB:      20,
			MaxTotalFileSizeMB: 20,
			CommandPrefix:      "!",
			CorrectMarkdown:    true,
			ThreadTitleLength:  20,
		},
		Kafka: KafkaConfig{
			ClientID:     "chat-connector",
			RequiredAcks: "local",
		},
		Performance: PerformanceConfig{
			BufferSize:              1000,
			Workers:                 runtime.NumCPU(),
			MaxConcurrency:          10,
			StreamingUpdateInterval: 1200 * time.Millisecond,
			StreamingStateTTL:       time.Minute,
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Shutdown:   15 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   60 * time.Second,
			CircuitBreaker:  true,
			RateLimitPerSec: 0,
			HealthCheck:     true,
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			LogLevel:          "info",
			TracingSampleRate: 0.1,
		},
		Advanced: AdvancedConfig{
			EnableCompression:    false,
			CompressionLevel:     6,
			CompressionThreshold: 1024,
		},
	}
}

// Validate validates the configuration for correctness.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Type == "" {
		return fmt.Errorf("type is required")
	}
	if bc.Performance.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if bc.Performance.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if bc.Reliability.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts cannot be negative")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	if bc.Slack.MaxFileSizeMB < 0 || bc.Slack.MaxTotalFileSizeMB < 0 {
		return fmt.Errorf("slack file size limits cannot be negative")
	}
	if bc.Discord.MaxFileSizeMB < 0 || bc.Discord.MaxTotalFileSizeMB < 0 {
		return fmt.Errorf("discord file size limits cannot be negative")
	}
	if bc.Feedback.Enabled && bc.Feedback.PostURL == "" {
		return fmt.Errorf("feedback post_url is required when feedback is enabled")
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (p *PerformanceConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.Workers
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// MaxFileBytes returns the per-file cap in bytes
func (s *SlackConfig) MaxFileBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// MaxTotalFileBytes returns the total cap in bytes
func (s *SlackConfig) MaxTotalFileBytes() int64 {
	return int64(s.MaxTotalFileSizeMB) * 1024 * 1024
}

// MaxFileBytes returns the per-file cap in bytes
func (d *DiscordConfig) MaxFileBytes() int64 {
	return int64(d.MaxFileSizeMB) * 1024 * 1024
}

// MaxTotalFileBytes returns the total cap in bytes
func (d *DiscordConfig) MaxTotalFileBytes() int64 {
	return int64(d.MaxTotalFileSizeMB) * 1024 * 1024
}

// IsCompressionEnabled returns true if payload compression should be used
func (a *AdvancedConfig) IsCompressionEnabled() bool {
	return a.EnableCompression && a.CompressionLevel > 0
}
