// Package pipeline bridges one input connector to one output connector.
// Inbound events are acknowledged to the user, then routed by channel hash
// to a worker that converts them into outbound messages and delivers them,
// so one channel's events stay ordered while channels proceed in parallel.
// Delivery failures are logged and counted, never fatal.
package pipeline

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/logger"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/observability"
)

// Pipeline connects an input connector to an output connector.
type Pipeline struct {
	cfg    *config.BaseConfig
	input  core.Input
	output core.Output
	logger *zap.Logger

	queues []chan *models.Event
	wg     sync.WaitGroup

	mu        sync.Mutex
	processed int64
	failed    int64
}

// New creates a pipeline over initialized connectors.
func New(input core.Input, output core.Output, cfg *config.BaseConfig) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		input:  input,
		output: output,
		logger: logger.Get().With(
			zap.String("component", "pipeline"),
			zap.String("input", input.Name()),
			zap.String("output", output.Name()),
		),
	}
}

// Run opens the input and processes events until the context is canceled
// or the input stream ends. It blocks for the duration of the run.
func (p *Pipeline) Run(ctx context.Context) error {
	stream, err := p.input.Open(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to open input")
	}

	workers := p.cfg.Performance.GetWorkers()
	p.queues = make([]chan *models.Event, workers)
	for i := 0; i < workers; i++ {
		p.queues[i] = make(chan *models.Event, p.cfg.Performance.BufferSize)
		p.wg.Add(1)
		go p.worker(ctx, p.queues[i])
	}
	p.logger.Info("pipeline running", zap.Int("workers", workers))

	go p.drainErrors(stream.Errors)

	p.read(ctx, stream.Events)

	for _, queue := range p.queues {
		close(queue)
	}
	if err := p.waitWorkers(); err != nil {
		p.logger.Warn("shutdown grace period expired with workers still busy")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeouts.Shutdown)
	defer cancel()
	if err := p.output.Flush(flushCtx); err != nil {
		p.logger.Warn("output flush failed", zap.Error(err))
	}

	p.logger.Info("pipeline stopped",
		zap.Int64("processed", p.processed),
		zap.Int64("failed", p.failed))
	return nil
}

// read moves events from the input stream onto the worker queues,
// acknowledging each one, until cancellation or stream end. Routing by
// channel hash keeps one channel's events on one worker, in order.
func (p *Pipeline) read(ctx context.Context, events <-chan *models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			if err := p.input.Acknowledge(ctx, event); err != nil {
				p.logger.Warn("acknowledge failed",
					zap.String("event_id", event.ID), zap.Error(err))
			}

			queue := p.queues[shard(event.Channel, len(p.queues))]
			select {
			case queue <- event:
				metrics.QueueDepth.WithLabelValues("pipeline").Set(float64(len(queue)))
			case <-ctx.Done():
				return
			}
		}
	}
}

func shard(channel string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(channel))
	return int(h.Sum32() % uint32(n))
}

func (p *Pipeline) worker(ctx context.Context, queue <-chan *models.Event) {
	defer p.wg.Done()

	for event := range queue {
		metrics.QueueDepth.WithLabelValues("pipeline").Set(float64(len(queue)))
		p.process(ctx, event)
	}
}

func (p *Pipeline) process(ctx context.Context, event *models.Event) {
	ctx, span := observability.StartSpan(ctx, "pipeline.process",
		attribute.String("event.id", event.ID),
		attribute.String("event.platform", event.Platform),
		attribute.String("event.type", string(event.Type)),
	)

	err := p.output.Send(ctx, Convert(event))
	observability.EndSpan(span, err)

	p.mu.Lock()
	if err != nil {
		p.failed++
	} else {
		p.processed++
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("delivery failed",
			zap.String("event_id", event.ID),
			zap.String("channel", event.Channel),
			zap.Error(err))
	}
}

func (p *Pipeline) drainErrors(errs <-chan error) {
	for err := range errs {
		p.logger.Error("input error", zap.Error(err))
	}
}

// waitWorkers waits for in-flight events to finish, bounded by the
// shutdown grace period.
func (p *Pipeline) waitWorkers() error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(p.cfg.Timeouts.Shutdown):
		return errors.New(errors.ErrorTypeTimeout, "shutdown grace period expired")
	}
}

// Stats returns the processed and failed event counts.
func (p *Pipeline) Stats() (processed, failed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.failed
}

// Convert maps an inbound event to an outbound message addressed back at
// its origin.
func Convert(event *models.Event) *models.OutboundMessage {
	info := models.MessageInfo{
		Channel:   event.Channel,
		SessionID: event.SessionID(),
		ThreadTS:  event.ReplyToThread,
		UserID:    event.UserID,
	}
	if ts, ok := event.Metadata["ack_msg_ts"].(string); ok {
		info.AckMessageTS = ts
	}

	return &models.OutboundMessage{
		Info: info,
		Content: models.MessageContent{
			Text:  event.Text,
			Files: event.Files,
		},
	}
}
