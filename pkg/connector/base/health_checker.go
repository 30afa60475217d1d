package base

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
)

// HealthChecker performs periodic health status tracking for a connector.
// Connectors push status via UpdateStatus; the checker marks the connector
// degraded when no update arrives within two check intervals.
type HealthChecker struct {
	name     string
	interval time.Duration

	status     core.HealthStatus
	lastUpdate time.Time
	statusMu   sync.RWMutex

	checkCount   int64
	failureCount int64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHealthChecker creates a health checker for the named component.
func NewHealthChecker(name string, interval time.Duration) *HealthChecker {
	return &HealthChecker{
		name:     name,
		interval: interval,
		status: core.HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Details:   map[string]interface{}{},
		},
		lastUpdate: time.Now(),
		stopCh:     make(chan struct{}),
	}
}

// Start begins periodic staleness checks.
func (hc *HealthChecker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(hc.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hc.check()
			case <-hc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates periodic checks.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		close(hc.stopCh)
	})
}

// UpdateStatus records a health observation from the connector.
func (hc *HealthChecker) UpdateStatus(healthy bool, details map[string]interface{}) {
	hc.statusMu.Lock()
	defer hc.statusMu.Unlock()

	status := "healthy"
	if !healthy {
		status = "unhealthy"
		atomic.AddInt64(&hc.failureCount, 1)
	}

	hc.status = core.HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Details:   details,
	}
	hc.lastUpdate = time.Now()
}

// GetStatus returns the current health status.
func (hc *HealthChecker) GetStatus() core.HealthStatus {
	hc.statusMu.RLock()
	defer hc.statusMu.RUnlock()
	return hc.status
}

// CheckCount returns the number of staleness checks performed.
func (hc *HealthChecker) CheckCount() int64 {
	return atomic.LoadInt64(&hc.checkCount)
}

// FailureCount returns the number of unhealthy observations.
func (hc *HealthChecker) FailureCount() int64 {
	return atomic.LoadInt64(&hc.failureCount)
}

// check degrades the status when updates have gone stale.
func (hc *HealthChecker) check() {
	atomic.AddInt64(&hc.checkCount, 1)

	hc.statusMu.Lock()
	defer hc.statusMu.Unlock()

	if hc.status.Status == "healthy" && time.Since(hc.lastUpdate) > 2*hc.interval {
		hc.status.Status = "degraded"
		hc.status.Timestamp = time.Now()
	}
}
