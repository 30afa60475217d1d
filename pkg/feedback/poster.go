// Package feedback posts user feedback (thumbs up/down plus an optional
// reason) to a configured REST endpoint.
package feedback

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/clients"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/logger"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// Poster sends feedback payloads to the configured endpoint.
type Poster struct {
	url     string
	headers map[string]string
	client  *clients.HTTPClient
	logger  *zap.Logger
}

// compile-time interface check
var _ core.FeedbackSink = (*Poster)(nil)

// NewPoster creates a feedback poster from config. Returns nil when
// feedback is disabled or no URL is configured; callers treat a nil
// poster as "feedback off".
func NewPoster(cfg config.FeedbackConfig) *Poster {
	if !cfg.Enabled || cfg.PostURL == "" {
		return nil
	}

	log := logger.Get().With(zap.String("component", "feedback_poster"))

	return &Poster{
		url:     cfg.PostURL,
		headers: cfg.PostHeaders,
		client: clients.NewHTTPClient(clients.HTTPClientConfig{
			Timeout:       15 * time.Second,
			RetryAttempts: 2,
			RetryDelay:    time.Second,
		}, log),
		logger: log,
	}
}

// Post sends one feedback payload. Errors are returned for the caller to
// log; feedback failures never affect message delivery.
func (p *Poster) Post(ctx context.Context, payload *models.FeedbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode feedback payload")
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.headers {
		headers[k] = v
	}

	if _, err := p.client.Post(ctx, p.url, headers, body); err != nil {
		metrics.FeedbackPosts.WithLabelValues(payload.Interface, string(payload.Feedback), "error").Inc()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to post feedback")
	}

	metrics.FeedbackPosts.WithLabelValues(payload.Interface, string(payload.Feedback), "ok").Inc()
	p.logger.Info("feedback posted",
		zap.String("interface", payload.Interface),
		zap.String("feedback", string(payload.Feedback)))

	return nil
}
