// Package base provides the foundational BaseConnector that all chat
// connectors embed. It implements common functionality including rate
// limiting, circuit breaking, health monitoring, metrics collection, and
// retry logic, so platform connectors only implement the platform parts.
//
// All connectors should embed BaseConnector:
//
//	type SlackInput struct {
//	    *base.BaseConnector
//	    // platform-specific fields
//	}
//
//	func NewSlackInput() *SlackInput {
//	    return &SlackInput{
//	        BaseConnector: base.NewBaseConnector("slack", core.ConnectorTypeInput, "1.0.0"),
//	    }
//	}
package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/clients"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/logger"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/metrics"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	// Core fields
	name          string
	connectorType core.ConnectorType
	version       string
	config        *config.BaseConfig
	logger        *zap.Logger

	// Resource management
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
	closeMutex sync.Mutex

	// Production features
	circuitBreaker   *clients.CircuitBreaker
	rateLimiter      clients.RateLimiter
	healthChecker    *HealthChecker
	metricsCollector *metrics.Collector
	retryPolicy      *RetryPolicy
}

// NewBaseConnector creates a new base connector with the specified name,
// type, and version. Called by connector implementations during
// construction.
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	return &BaseConnector{
		name:          name,
		connectorType: connectorType,
		version:       version,
		logger:        logger.Get().With(zap.String("connector", name)),
	}
}

// Initialize sets up rate limiting, circuit breaking, health monitoring,
// and metrics collection. Must be called before using the connector.
func (bc *BaseConnector) Initialize(ctx context.Context, config *config.BaseConfig) error {
	bc.config = config
	bc.ctx, bc.cancel = context.WithCancel(ctx)

	if config.Reliability.CircuitBreaker {
		bc.circuitBreaker = clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 3,
			Timeout:          30 * time.Second,
		})
	}

	if config.Reliability.RateLimitPerSec > 0 {
		bc.rateLimiter = clients.NewRateLimiter(
			config.Reliability.RateLimitPerSec,
			config.Reliability.RateLimitPerSec*2, // Allow bursts up to 2x the limit
		)
	}

	if config.Reliability.HealthCheck {
		bc.healthChecker = NewHealthChecker(bc.name, 30*time.Second)
		bc.healthChecker.Start(bc.ctx)
	}

	bc.metricsCollector = metrics.NewCollector(bc.name)

	bc.retryPolicy = NewRetryPolicy(
		config.Reliability.RetryAttempts,
		config.Reliability.RetryDelay,
		config.Reliability.RetryMultiplier,
		config.Reliability.MaxRetryDelay,
	)

	bc.logger.Info("connector initialized",
		zap.String("type", string(bc.connectorType)),
		zap.String("version", bc.version))

	return nil
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// Health performs a health check
func (bc *BaseConnector) Health(ctx context.Context) error {
	if bc.closed {
		return errors.New(errors.ErrorTypeConnection, "connector is closed")
	}

	if bc.healthChecker != nil {
		status := bc.healthChecker.GetStatus()
		if status.Status != "healthy" {
			return errors.Wrap(status.Error, errors.ErrorTypeHealth, "health check failed")
		}
	}

	return nil
}

// Metrics returns current metrics
func (bc *BaseConnector) Metrics() map[string]interface{} {
	out := bc.metricsCollector.GetAll()

	out["name"] = bc.name
	out["type"] = bc.connectorType
	out["version"] = bc.version
	out["uptime"] = time.Since(bc.metricsCollector.StartTime()).Seconds()

	if bc.circuitBreaker != nil {
		cbState := bc.circuitBreaker.GetState()
		out["circuit_breaker_state"] = cbState.State
		out["circuit_breaker_failure_rate"] = cbState.FailureRate
	}

	if bc.rateLimiter != nil {
		rlStats := bc.rateLimiter.GetStats()
		out["rate_limit"] = rlStats.Rate
		out["rate_limit_burst"] = rlStats.Burst
		out["rate_limiter_allowed"] = rlStats.AllowedRequests
		out["rate_limiter_blocked"] = rlStats.BlockedRequests
	}

	if bc.healthChecker != nil {
		status := bc.healthChecker.GetStatus()
		out["health_status"] = status.Status
		out["health_check_count"] = bc.healthChecker.CheckCount()
		out["health_failure_count"] = bc.healthChecker.FailureCount()
	}

	return out
}

// Close shuts down the connector
func (bc *BaseConnector) Close(ctx context.Context) error {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()

	if bc.closed {
		return nil
	}

	bc.logger.Info("closing connector")

	if bc.cancel != nil {
		bc.cancel()
	}

	if bc.healthChecker != nil {
		bc.healthChecker.Stop()
	}

	bc.closed = true
	bc.logger.Info("connector closed")

	return nil
}

// ExecuteWithRetry executes a function with automatic retry and exponential
// backoff for retryable errors.
func (bc *BaseConnector) ExecuteWithRetry(ctx context.Context, fn func() error) error {
	return bc.retryPolicy.Execute(ctx, fn)
}

// ExecuteWithCircuitBreaker executes a function with circuit breaker
// protection. Without a configured breaker, the function runs directly.
func (bc *BaseConnector) ExecuteWithCircuitBreaker(fn func() error) error {
	if bc.circuitBreaker == nil {
		return fn()
	}
	return bc.circuitBreaker.Execute(fn)
}

// RateLimit enforces the configured rate limit, blocking if necessary.
// Returns immediately if no rate limiter is configured.
func (bc *BaseConnector) RateLimit(ctx context.Context) error {
	if bc.rateLimiter == nil {
		return nil
	}
	return bc.rateLimiter.Wait(ctx)
}

// IsClosed reports whether Close has been called.
func (bc *BaseConnector) IsClosed() bool {
	bc.closeMutex.Lock()
	defer bc.closeMutex.Unlock()
	return bc.closed
}

// IsHealthy returns true if the connector is healthy
func (bc *BaseConnector) IsHealthy() bool {
	if bc.closed {
		return false
	}

	if bc.healthChecker != nil {
		status := bc.healthChecker.GetStatus()
		return status.Status == "healthy"
	}

	return true
}

// UpdateHealth updates the health status
func (bc *BaseConnector) UpdateHealth(healthy bool, details map[string]interface{}) {
	if bc.healthChecker != nil {
		bc.healthChecker.UpdateStatus(healthy, details)
	}
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetConfig returns the connector configuration
func (bc *BaseConnector) GetConfig() *config.BaseConfig {
	return bc.config
}

// GetContext returns the connector context
func (bc *BaseConnector) GetContext() context.Context {
	return bc.ctx
}

// GetMetricsCollector returns the metrics collector
func (bc *BaseConnector) GetMetricsCollector() *metrics.Collector {
	return bc.metricsCollector
}
