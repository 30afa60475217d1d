// Package connector provides chat platform connectors that bridge a
// message-processing pipeline to the Slack and Discord APIs.
//
// Input connectors turn platform activity (messages, mentions, form
// submissions) into normalized events; output connectors deliver responses
// back to the platform or onto a Kafka bus. Streamed responses sharing a
// content UUID coalesce into a single message that is edited in place.
//
// # Quick start
//
// Run a Slack-to-Kafka pipeline from two YAML configs:
//
//	chat-connector run --input examples/slack-input.yaml --output examples/kafka-output.yaml
//
// Or wire connectors programmatically:
//
//	import (
//	    "context"
//	    "github.com/SolaceLabs/solace-ai-connector-slack/internal/pipeline"
//	    "github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
//	    "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/registry"
//	)
//
//	cfg, _ := config.LoadConnectorConfig("slack-input.yaml")
//	input, _ := registry.CreateInput(cfg.Type)
//	output, _ := registry.CreateOutput("kafka")
//	_ = input.Initialize(context.Background(), cfg)
//	_ = output.Initialize(context.Background(), cfg)
//	p := pipeline.New(input, output, cfg)
//	_ = p.Run(context.Background())
//
// Connector packages register themselves through blank imports; see
// cmd/chat-connector for the full set.
package connector
