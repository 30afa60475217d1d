package pipeline

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/models"
)

type mockInput struct {
	events chan *models.Event
	errs   chan error

	mu   sync.Mutex
	acks int
}

func newMockInput() *mockInput {
	return &mockInput{
		events: make(chan *models.Event, 32),
		errs:   make(chan error, 32),
	}
}

func (m *mockInput) Name() string                                                   { return "mock-input" }
func (m *mockInput) Type() core.ConnectorType                                       { return core.ConnectorTypeInput }
func (m *mockInput) Version() string                                                { return "test" }
func (m *mockInput) Initialize(ctx context.Context, cfg *config.BaseConfig) error   { return nil }
func (m *mockInput) Close(ctx context.Context) error                                { return nil }
func (m *mockInput) Health(ctx context.Context) error                               { return nil }
func (m *mockInput) Metrics() map[string]interface{}                                { return nil }
func (m *mockInput) SupportsForms() bool                                            { return false }
func (m *mockInput) SupportsThreads() bool                                          { return false }

func (m *mockInput) Open(ctx context.Context) (*core.EventStream, error) {
	return &core.EventStream{Events: m.events, Errors: m.errs}, nil
}

func (m *mockInput) Acknowledge(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks++
	return nil
}

func (m *mockInput) ackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks
}

type mockOutput struct {
	mu     sync.Mutex
	sent   []*models.OutboundMessage
	fail   bool
	flushes int
}

func (m *mockOutput) Name() string                                                 { return "mock-output" }
func (m *mockOutput) Type() core.ConnectorType                                     { return core.ConnectorTypeOutput }
func (m *mockOutput) Version() string                                              { return "test" }
func (m *mockOutput) Initialize(ctx context.Context, cfg *config.BaseConfig) error { return nil }
func (m *mockOutput) Close(ctx context.Context) error                              { return nil }
func (m *mockOutput) Health(ctx context.Context) error                             { return nil }
func (m *mockOutput) Metrics() map[string]interface{}                              { return nil }
func (m *mockOutput) SupportsStreaming() bool                                      { return false }
func (m *mockOutput) SupportsFeedback() bool                                       { return false }
func (m *mockOutput) SupportsFiles() bool                                          { return false }

func (m *mockOutput) Send(ctx context.Context, msg *models.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New(errors.ErrorTypeConnection, "send failed")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockOutput) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *mockOutput) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testConfig() *config.BaseConfig {
	cfg := config.NewBaseConfig("pipeline-test", "slack")
	cfg.Performance.Workers = 2
	cfg.Timeouts.Shutdown = time.Second
	return cfg
}

func TestPipelineDeliversEvents(t *testing.T) {
	input := newMockInput()
	output := &mockOutput{}
	p := New(input, output, testConfig())

	for i := 0; i < 5; i++ {
		event := models.NewEvent("mock", models.EventTypeMessage)
		event.Channel = "C1"
		event.Text = "hello"
		input.events <- event
	}
	close(input.events)
	close(input.errs)

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 5, output.sentCount())
	assert.Equal(t, 5, input.ackCount())

	processed, failed := p.Stats()
	assert.Equal(t, int64(5), processed)
	assert.Equal(t, int64(0), failed)
}

func TestPipelineStopsOnCancel(t *testing.T) {
	input := newMockInput()
	output := &mockOutput{}
	p := New(input, output, testConfig())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	input.events <- models.NewEvent("mock", models.EventTypeMessage)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
}

func TestSendFailuresAreCountedNotFatal(t *testing.T) {
	input := newMockInput()
	output := &mockOutput{fail: true}
	p := New(input, output, testConfig())

	input.events <- models.NewEvent("mock", models.EventTypeMessage)
	input.events <- models.NewEvent("mock", models.EventTypeMessage)
	close(input.events)
	close(input.errs)

	require.NoError(t, p.Run(context.Background()))

	_, failed := p.Stats()
	assert.Equal(t, int64(2), failed)
}

func TestPerChannelOrderPreserved(t *testing.T) {
	input := newMockInput()
	output := &mockOutput{}
	cfg := testConfig()
	cfg.Performance.Workers = 4
	p := New(input, output, cfg)

	const n = 20
	for i := 0; i < n; i++ {
		event := models.NewEvent("mock", models.EventTypeMessage)
		event.Channel = "C1"
		event.Text = strconv.Itoa(i)
		input.events <- event
	}
	close(input.events)
	close(input.errs)

	require.NoError(t, p.Run(context.Background()))
	require.Equal(t, n, output.sentCount())

	// all C1 events land on one worker, so sends keep arrival order
	for i, msg := range output.sent {
		assert.Equal(t, strconv.Itoa(i), msg.Content.Text)
	}
}

func TestConvert(t *testing.T) {
	event := models.NewEvent("slack", models.EventTypeMessage)
	event.Text = "hi"
	event.Channel = "C1"
	event.UserID = "U1"
	event.ReplyToThread = "1.000"
	event.SetMetadata("session_id", "C1_1.000")
	event.SetMetadata("ack_msg_ts", "2.000")

	msg := Convert(event)
	assert.Equal(t, "C1", msg.Info.Channel)
	assert.Equal(t, "C1_1.000", msg.Info.SessionID)
	assert.Equal(t, "1.000", msg.Info.ThreadTS)
	assert.Equal(t, "2.000", msg.Info.AckMessageTS)
	assert.Equal(t, "U1", msg.Info.UserID)
	assert.Equal(t, "hi", msg.Content.Text)
}
