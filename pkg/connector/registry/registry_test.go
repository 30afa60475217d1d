package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

type stubInput struct{ name string }

func (s *stubInput) Name() string             { return s.name }
func (s *stubInput) Type() core.ConnectorType { return core.ConnectorTypeInput }
func (s *stubInput) Version() string          { return "1.0.0" }
func (s *stubInput) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	return nil
}
func (s *stubInput) Close(ctx context.Context) error                         { return nil }
func (s *stubInput) Health(ctx context.Context) error                        { return nil }
func (s *stubInput) Metrics() map[string]interface{}                         { return nil }
func (s *stubInput) Open(ctx context.Context) (*core.EventStream, error)     { return nil, nil }
func (s *stubInput) Acknowledge(ctx context.Context, e *models.Event) error  { return nil }
func (s *stubInput) SupportsForms() bool                                     { return true }
func (s *stubInput) SupportsThreads() bool                                   { return true }

type stubOutput struct{ name string }

func (s *stubOutput) Name() string             { return s.name }
func (s *stubOutput) Type() core.ConnectorType { return core.ConnectorTypeOutput }
func (s *stubOutput) Version() string          { return "1.0.0" }
func (s *stubOutput) Initialize(ctx context.Context, cfg *config.BaseConfig) error {
	return nil
}
func (s *stubOutput) Close(ctx context.Context) error                          { return nil }
func (s *stubOutput) Health(ctx context.Context) error                         { return nil }
func (s *stubOutput) Metrics() map[string]interface{}                          { return nil }
func (s *stubOutput) Send(ctx context.Context, m *models.OutboundMessage) error { return nil }
func (s *stubOutput) Flush(ctx context.Context) error                          { return nil }
func (s *stubOutput) SupportsStreaming() bool                                  { return true }
func (s *stubOutput) SupportsFeedback() bool                                   { return false }
func (s *stubOutput) SupportsFiles() bool                                      { return false }

func TestRegistryCreateInput(t *testing.T) {
	r := NewRegistry()
	r.RegisterInput("slack", func() core.Input { return &stubInput{name: "slack"} })

	input, err := r.CreateInput("slack")
	require.NoError(t, err)
	assert.Equal(t, "slack", input.Name())
	assert.Equal(t, core.ConnectorTypeInput, input.Type())
}

func TestRegistryCreateInputNotRegistered(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreateInput("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	r.RegisterInput("slack", func() core.Input { return &stubInput{name: "slack"} })

	assert.Panics(t, func() {
		r.RegisterInput("slack", func() core.Input { return &stubInput{name: "slack"} })
	})
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.RegisterOutput("slack", func() core.Output { return &stubOutput{name: "slack"} })
	r.RegisterOutput("discord", func() core.Output { return &stubOutput{name: "discord"} })
	r.RegisterOutput("kafka", func() core.Output { return &stubOutput{name: "kafka"} })

	assert.Equal(t, []string{"discord", "kafka", "slack"}, r.ListOutputs())
	assert.Empty(t, r.ListInputs())
}

func TestRegistryCreateOutput(t *testing.T) {
	r := NewRegistry()
	r.RegisterOutput("discord", func() core.Output { return &stubOutput{name: "discord"} })

	out, err := r.CreateOutput("discord")
	require.NoError(t, err)
	assert.Equal(t, "discord", out.Name())
	assert.True(t, out.SupportsStreaming())
}
