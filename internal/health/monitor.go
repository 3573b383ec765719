// Package health probes the backing store and classifies its availability.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/types"
)

// Default monitor configuration values.
const (
	DefaultInterval     = 30 * time.Second
	DefaultProbeTimeout = 2 * time.Second
)

// Classification thresholds. The error count decays on success instead
// of resetting, so one good probe after a failure streak does not flip
// the state back to healthy.
const (
	downErrorCount     = 5    // errorCount above this means down
	degradedErrorCount = 2    // errorCount above this means degraded
	slowResponseMs     = 3000 // successful probe slower than this means slow
)

// ProbeFunc runs the cheapest possible query against the store
type ProbeFunc func(ctx context.Context) error

// Monitor periodically probes the backing store and classifies it.
// The probe runs independently of data-fetch paths with its own short
// timeout: its purpose is liveness, not payload delivery.
type Monitor struct {
	probe        ProbeFunc
	interval     time.Duration
	probeTimeout time.Duration

	mu          sync.RWMutex
	status      models.HealthStatus
	lastProbeOK bool

	// now is swappable for tests
	now func() time.Time
}

// Config configures a health monitor
type Config struct {
	// Probe is the liveness check. Required.
	Probe ProbeFunc

	// Interval between periodic checks. Default: 30s.
	Interval time.Duration

	// ProbeTimeout bounds a single probe. Default: 2s. Kept shorter
	// than the data-fetch timeout.
	ProbeTimeout time.Duration
}

// NewMonitor creates a monitor with the given configuration
func NewMonitor(cfg *Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return &Monitor{
		probe:        cfg.Probe,
		interval:     interval,
		probeTimeout: probeTimeout,
		now:          time.Now,
	}
}

// Run checks once at startup and then on the fixed interval until the
// context is cancelled. Intended to run on its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs a single probe and updates the status. Returns true when
// the probe succeeded.
func (m *Monitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	start := m.now()
	err := m.probe(probeCtx)
	elapsed := m.now().Sub(start)

	m.mu.Lock()
	m.status.LastChecked = m.now()
	m.status.ResponseTimeMs = elapsed.Milliseconds()
	if err != nil {
		m.status.ErrorCount++
		m.lastProbeOK = false
	} else {
		// Decay by at most one, never below zero.
		if m.status.ErrorCount > 0 {
			m.status.ErrorCount--
		}
		m.lastProbeOK = true
	}
	errorCount := m.status.ErrorCount
	m.mu.Unlock()

	if err != nil {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"errorCount":     errorCount,
			"responseTimeMs": elapsed.Milliseconds(),
		}).Warn("Store health probe failed")
	}

	return err == nil
}

// RecordFailure feeds a real data-fetch failure into the error count.
// Cache hits never reach this; only actual network attempts affect health.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	m.status.ErrorCount++
	m.mu.Unlock()
}

// RecordSuccess decays the error count after a successful real fetch
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	if m.status.ErrorCount > 0 {
		m.status.ErrorCount--
	}
	m.mu.Unlock()
}

// State classifies the store from the current status
func (m *Monitor) State() types.HealthState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.status.ErrorCount > downErrorCount:
		return types.HealthDown
	case m.status.ErrorCount > degradedErrorCount:
		return types.HealthDegraded
	case m.lastProbeOK && m.status.ResponseTimeMs > slowResponseMs:
		return types.HealthSlow
	default:
		return types.HealthHealthy
	}
}

// Status returns a copy of the current health status
func (m *Monitor) Status() models.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetClock overrides the time source. Test hook.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
