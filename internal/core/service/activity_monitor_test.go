package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/porchlite/porchlite/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingShell struct {
	mu         sync.Mutex
	reloads    []string
	refreshes  int
	refetches  int
	refreshErr error
}

func (r *recordingShell) ForceReload(_ context.Context, reason string) {
	r.mu.Lock()
	r.reloads = append(r.reloads, reason)
	r.mu.Unlock()
}

func (r *recordingShell) RefreshSession(context.Context) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	if r.refreshErr != nil {
		return nil, r.refreshErr
	}
	return newSession("u1"), nil
}

func (r *recordingShell) Refetch(context.Context) error {
	r.mu.Lock()
	r.refetches++
	r.mu.Unlock()
	return nil
}

func newTestMonitor(shell *recordingShell) (*ActivityMonitor, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewActivityMonitor(DefaultMonitorConfig(), shell, shell, shell, zerolog.Nop())
	m.now = clock.Now
	m.lastActivity = clock.Now()
	return m, clock
}

func TestActivityMonitor_HiddenTwentyMinutesReloadsOnce(t *testing.T) {
	shell := &recordingShell{}
	m, clock := newTestMonitor(shell)
	ctx := context.Background()

	m.VisibilityChanged(ctx, false)
	for i := 0; i < 20; i++ {
		clock.Advance(time.Minute)
		assert.False(t, m.Check(ctx), "no reload while hidden")
	}

	m.VisibilityChanged(ctx, true)
	clock.Advance(time.Minute)
	m.Check(ctx)
	clock.Advance(time.Minute)
	m.Check(ctx)

	assert.Equal(t, []string{ReloadIdleOnFocus}, shell.reloads)
	assert.Zero(t, shell.refreshes)
}

func TestActivityMonitor_ModerateIdleRefreshesSession(t *testing.T) {
	shell := &recordingShell{}
	m, clock := newTestMonitor(shell)
	ctx := context.Background()

	m.VisibilityChanged(ctx, false)
	clock.Advance(7 * time.Minute)
	m.VisibilityChanged(ctx, true)

	assert.Equal(t, 1, shell.refreshes)
	assert.Empty(t, shell.reloads)
}

func TestActivityMonitor_FailedRefreshReloads(t *testing.T) {
	shell := &recordingShell{refreshErr: errBackendDown}
	m, clock := newTestMonitor(shell)
	ctx := context.Background()

	m.VisibilityChanged(ctx, false)
	clock.Advance(7 * time.Minute)
	m.VisibilityChanged(ctx, true)

	assert.Equal(t, []string{ReloadRefreshFailed}, shell.reloads)
}

func TestActivityMonitor_ShortIdleDoesNothing(t *testing.T) {
	shell := &recordingShell{}
	m, clock := newTestMonitor(shell)
	ctx := context.Background()

	m.VisibilityChanged(ctx, false)
	clock.Advance(2 * time.Minute)
	m.VisibilityChanged(ctx, true)

	assert.Zero(t, shell.refreshes)
	assert.Empty(t, shell.reloads)
}

func TestActivityMonitor_PeriodicCheckWhileVisible(t *testing.T) {
	shell := &recordingShell{}
	m, clock := newTestMonitor(shell)
	ctx := context.Background()

	clock.Advance(10 * time.Minute)
	assert.True(t, m.RecordActivity(InteractionKeyDown))
	clock.Advance(10 * time.Minute)
	assert.False(t, m.Check(ctx), "activity resets the idle clock")

	clock.Advance(6 * time.Minute)
	assert.True(t, m.Check(ctx))
	assert.Equal(t, []string{ReloadIdlePeriodic}, shell.reloads)
}

func TestActivityMonitor_IgnoresUnknownInteractions(t *testing.T) {
	shell := &recordingShell{}
	m, clock := newTestMonitor(shell)
	start := m.LastActivity()

	clock.Advance(time.Minute)
	assert.False(t, m.RecordActivity("mousemove"))
	assert.Equal(t, start, m.LastActivity())
}

func TestActivityMonitor_ReconnectRefetchesWhenVisible(t *testing.T) {
	shell := &recordingShell{}
	m, _ := newTestMonitor(shell)
	ctx := context.Background()

	m.NetworkChanged(ctx, false)
	m.NetworkChanged(ctx, true)
	assert.Equal(t, 1, shell.refetches)

	m.VisibilityChanged(ctx, false)
	m.NetworkChanged(ctx, false)
	m.NetworkChanged(ctx, true)
	assert.Equal(t, 1, shell.refetches, "no refetch while hidden")
}

func TestActivityMonitor_RunStopsWithContext(t *testing.T) {
	m := NewActivityMonitor(MonitorConfig{SoftThreshold: time.Hour, HardThreshold: time.Hour, CheckInterval: time.Millisecond}, &recordingShell{}, &recordingShell{}, &recordingShell{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
