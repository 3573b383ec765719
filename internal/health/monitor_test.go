package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-hub/internal/types"
)

// flakyProbe fails while failing is true
type flakyProbe struct {
	failing bool
}

func (p *flakyProbe) probe(ctx context.Context) error {
	if p.failing {
		return errors.New("connection refused")
	}
	return nil
}

func newTestMonitor(probe ProbeFunc) *Monitor {
	return NewMonitor(&Config{
		Probe:        probe,
		Interval:     time.Hour, // periodic checks driven manually in tests
		ProbeTimeout: time.Second,
	})
}

func TestMonitor_StateThresholds(t *testing.T) {
	cases := []struct {
		errorCount int
		want       types.HealthState
	}{
		{0, types.HealthHealthy},
		{1, types.HealthHealthy},
		{2, types.HealthHealthy},
		{3, types.HealthDegraded},
		{5, types.HealthDegraded},
		{6, types.HealthDown},
		{10, types.HealthDown},
	}

	for _, tc := range cases {
		m := newTestMonitor(func(ctx context.Context) error { return nil })
		for i := 0; i < tc.errorCount; i++ {
			m.RecordFailure()
		}
		assert.Equalf(t, tc.want, m.State(), "errorCount=%d", tc.errorCount)
	}
}

func TestMonitor_CheckCountsFailures(t *testing.T) {
	probe := &flakyProbe{failing: true}
	m := newTestMonitor(probe.probe)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, m.Check(ctx))
	}

	status := m.Status()
	assert.Equal(t, 3, status.ErrorCount)
	assert.Equal(t, types.HealthDegraded, m.State())
	assert.False(t, status.LastChecked.IsZero())
}

func TestMonitor_SuccessDecaysErrorCountByOne(t *testing.T) {
	probe := &flakyProbe{failing: true}
	m := newTestMonitor(probe.probe)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		m.Check(ctx)
	}
	require.Equal(t, types.HealthDown, m.State())

	// One success does not jump back to healthy
	probe.failing = false
	assert.True(t, m.Check(ctx))
	assert.Equal(t, 5, m.Status().ErrorCount)
	assert.Equal(t, types.HealthDegraded, m.State())

	// Recovery takes a run of clean probes
	for i := 0; i < 5; i++ {
		m.Check(ctx)
	}
	assert.Equal(t, 0, m.Status().ErrorCount)
	assert.Equal(t, types.HealthHealthy, m.State())
}

func TestMonitor_ErrorCountFloorsAtZero(t *testing.T) {
	m := newTestMonitor(func(ctx context.Context) error { return nil })

	m.RecordSuccess()
	m.RecordSuccess()

	assert.Equal(t, 0, m.Status().ErrorCount)
}

func TestMonitor_SlowClassification(t *testing.T) {
	now := time.Now()
	elapsed := time.Duration(0)
	m := newTestMonitor(func(ctx context.Context) error {
		elapsed = 3500 * time.Millisecond
		return nil
	})
	m.SetClock(func() time.Time {
		t := now.Add(elapsed)
		return t
	})

	require.True(t, m.Check(context.Background()))
	assert.Greater(t, m.Status().ResponseTimeMs, int64(3000))
	assert.Equal(t, types.HealthSlow, m.State())
}

func TestMonitor_SlowRequiresSuccessfulProbe(t *testing.T) {
	now := time.Now()
	elapsed := time.Duration(0)
	m := newTestMonitor(func(ctx context.Context) error {
		elapsed = 4 * time.Second
		return errors.New("timeout")
	})
	m.SetClock(func() time.Time { return now.Add(elapsed) })

	m.Check(context.Background())

	// One slow failure is a single error, not a slow classification
	assert.Equal(t, types.HealthHealthy, m.State())
	assert.Equal(t, 1, m.Status().ErrorCount)
}

func TestMonitor_RunStopsOnContextCancel(t *testing.T) {
	m := NewMonitor(&Config{
		Probe:    func(ctx context.Context) error { return nil },
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
