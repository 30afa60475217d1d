// Package kafkaoutput implements the event-bus output connector. Outbound
// messages are serialized to JSON and produced to a Kafka topic, keyed by
// session id so one conversation stays ordered within a partition. Large
// payloads are optionally gzip compressed.
package kafkaoutput

import (
	"bytes"
	"context"

	"github.com/IBM/sarama"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/base"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

// PlatformName is the registry name of this connector.
const PlatformName = "kafka"

// Output produces normalized messages onto a Kafka topic.
type Output struct {
	*base.BaseConnector

	cfg      config.KafkaConfig
	advanced config.AdvancedConfig

	producer sarama.SyncProducer
}

// New creates an uninitialized Kafka output connector.
func New() *Output {
	return &Output{
		BaseConnector: base.NewBaseConnector(PlatformName, core.ConnectorTypeOutput, "1.0.0"),
	}
}

// Initialize connects the producer to the configured brokers.
func (out *Output) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	if err := out.BaseConnector.Initialize(ctx, cfg); err != nil {
		return err
	}

	out.cfg = cfg.Kafka
	out.advanced = cfg.Advanced

	if len(out.cfg.Brokers) == 0 {
		return errors.New(errors.ErrorTypeConfig, "kafka brokers are required")
	}
	if out.cfg.Topic == "" {
		return errors.New(errors.ErrorTypeConfig, "kafka topic is required")
	}

	producer, err := sarama.NewSyncProducer(out.cfg.Brokers, producerConfig(out.cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create kafka producer")
	}
	out.producer = producer

	return nil
}

func producerConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = requiredAcks(cfg.RequiredAcks)
	return sc
}

func requiredAcks(mode string) sarama.RequiredAcks {
	switch mode {
	case "none":
		return sarama.NoResponse
	case "all":
		return sarama.WaitForAll
	default:
		return sarama.WaitForLocal
	}
}

// Close shuts the producer down.
func (out *Output) Close(ctx context.Context) error {
	if out.producer != nil {
		if err := out.producer.Close(); err != nil {
			out.GetLogger().Warn("error closing kafka producer", zap.Error(err))
		}
	}
	return out.BaseConnector.Close(ctx)
}

// Send produces one message onto the topic.
func (out *Output) Send(ctx context.Context, msg *models.OutboundMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode message")
	}

	headers := []sarama.RecordHeader{
		{Key: []byte("content-type"), Value: []byte("application/json")},
	}

	if out.advanced.IsCompressionEnabled() && len(value) > out.advanced.CompressionThreshold {
		compressed, err := compress(value, out.advanced.CompressionLevel)
		if err != nil {
			out.GetLogger().Warn("compression failed, sending uncompressed", zap.Error(err))
		} else {
			value = compressed
			headers = append(headers, sarama.RecordHeader{
				Key: []byte("content-encoding"), Value: []byte("gzip"),
			})
		}
	}

	if err := out.RateLimit(ctx); err != nil {
		return err
	}

	record := &sarama.ProducerMessage{
		Topic:   out.cfg.Topic,
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}
	if msg.Info.SessionID != "" {
		record.Key = sarama.StringEncoder(msg.Info.SessionID)
	}

	timer := metrics.NewTimer(PlatformName, "produce")
	partition, offset, err := out.producer.SendMessage(record)
	timer.Stop()

	if err != nil {
		metrics.MessagesSent.WithLabelValues(PlatformName, "error").Inc()
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to produce message")
	}

	metrics.MessagesSent.WithLabelValues(PlatformName, "ok").Inc()
	out.GetMetricsCollector().Increment("messages_sent", 1)
	out.GetLogger().Debug("message produced",
		zap.String("topic", out.cfg.Topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))

	return nil
}

// Flush is a no-op; the sync producer does not buffer.
func (out *Output) Flush(ctx context.Context) error { return nil }

// SupportsStreaming reports that chunks are produced individually.
func (out *Output) SupportsStreaming() bool { return true }

// SupportsFeedback reports that the bus renders no feedback controls.
func (out *Output) SupportsFeedback() bool { return false }

// SupportsFiles reports that attachments travel inline as base64.
func (out *Output) SupportsFiles() bool { return true }

func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
