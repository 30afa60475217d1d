// Package metrics provides performance tracking and observability for the
// connector runtime using Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsReceived counts inbound chat events by platform and type
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connector_events_received_total",
			Help: "Total inbound chat events",
		},
		[]string{"platform", "event_type"},
	)

	// MessagesSent counts outbound messages by platform and result
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connector_messages_sent_total",
			Help: "Total outbound messages",
		},
		[]string{"platform", "status"},
	)

	// APILatency tracks chat API call latency by platform and operation
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_connector_api_latency_seconds",
			Help:    "Chat platform API call latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"platform", "operation"},
	)

	// FileBytesDownloaded counts attachment bytes downloaded by platform
	FileBytesDownloaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connector_file_bytes_downloaded_total",
			Help: "Total attachment bytes downloaded",
		},
		[]string{"platform"},
	)

	// FilesSkipped counts attachments skipped due to size caps
	FilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connector_files_skipped_total",
			Help: "Attachments skipped due to size limits",
		},
		[]string{"platform", "reason"},
	)

	// QueueDepth tracks internal queue depth by component
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_connector_queue_depth",
			Help: "Internal queue depth",
		},
		[]string{"component"},
	)

	// StreamingSessions tracks active streaming message sessions by platform
	StreamingSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_connector_streaming_sessions",
			Help: "Active streaming message sessions",
		},
		[]string{"platform"},
	)

	// FeedbackPosts counts feedback submissions by platform and kind
	FeedbackPosts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connector_feedback_posts_total",
			Help: "Feedback submissions forwarded to the feedback endpoint",
		},
		[]string{"platform", "kind", "status"},
	)
)

// Collector provides a per-component metrics collection interface. It wraps
// the shared Prometheus collectors and keeps a component-local key/value
// snapshot for the Metrics() surface connectors expose.
type Collector struct {
	name      string
	values    map[string]interface{}
	startTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates a new metrics collector for a component.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		values:    make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// Record stores a component-local metric value.
func (c *Collector) Record(name string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// Increment adds delta to a component-local counter.
func (c *Collector) Increment(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, _ := c.values[name].(int64)
	c.values[name] = current + delta
}

// GetAll returns all current component-local metric values.
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]interface{}, len(c.values)+1)
	out["component"] = c.name
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Timer measures the duration of an operation.
type Timer struct {
	start     time.Time
	platform  string
	operation string
}

// NewTimer starts a timer for a platform API operation.
func NewTimer(platform, operation string) *Timer {
	return &Timer{
		start:     time.Now(),
		platform:  platform,
		operation: operation,
	}
}

// Stop records the elapsed time into the APILatency histogram and
// returns the duration.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	APILatency.WithLabelValues(t.platform, t.operation).Observe(d.Seconds())
	return d
}
