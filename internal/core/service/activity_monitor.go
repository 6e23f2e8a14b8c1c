package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// Interaction kinds that count as user activity.
const (
	InteractionPointerDown = "pointerdown"
	InteractionKeyDown     = "keydown"
	InteractionTouchStart  = "touchstart"
	InteractionScroll      = "scroll"
)

// Forced reload reasons.
const (
	ReloadIdleOnFocus   = "idle_on_focus"
	ReloadIdlePeriodic  = "idle_periodic"
	ReloadRefreshFailed = "refresh_failed"
)

// SessionRefresher refreshes the current session.
type SessionRefresher interface {
	RefreshSession(ctx context.Context) (*domain.Session, error)
}

// Reloader rebuilds the application state from scratch.
type Reloader interface {
	ForceReload(ctx context.Context, reason string)
}

// Refetcher refreshes data for the current view without a reload.
type Refetcher interface {
	Refetch(ctx context.Context) error
}

// MonitorConfig holds the idle thresholds of an ActivityMonitor.
type MonitorConfig struct {
	SoftThreshold time.Duration
	HardThreshold time.Duration
	CheckInterval time.Duration
}

// DefaultMonitorConfig returns 5m soft, 15m hard, 60s check interval.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SoftThreshold: 5 * time.Minute,
		HardThreshold: 15 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// ActivityMonitor tracks user interaction, visibility and connectivity, and
// recovers from long idle periods by refreshing the session or reloading.
type ActivityMonitor struct {
	cfg       MonitorConfig
	session   SessionRefresher
	reloader  Reloader
	refetcher Refetcher
	log       zerolog.Logger
	now       func() time.Time

	mu           sync.Mutex
	lastActivity time.Time
	visible      bool
	online       bool
}

// NewActivityMonitor starts visible and online, with activity recorded now.
func NewActivityMonitor(cfg MonitorConfig, session SessionRefresher, reloader Reloader, refetcher Refetcher, log zerolog.Logger) *ActivityMonitor {
	m := &ActivityMonitor{
		cfg:       cfg,
		session:   session,
		reloader:  reloader,
		refetcher: refetcher,
		log:       log.With().Str("component", "activity_monitor").Logger(),
		now:       time.Now,
		visible:   true,
		online:    true,
	}
	m.lastActivity = m.now()
	return m
}

// IsInteraction reports whether kind counts as user activity.
func IsInteraction(kind string) bool {
	switch kind {
	case InteractionPointerDown, InteractionKeyDown, InteractionTouchStart, InteractionScroll:
		return true
	}
	return false
}

// RecordActivity resets the idle clock. Unknown kinds are ignored.
func (m *ActivityMonitor) RecordActivity(kind string) bool {
	if !IsInteraction(kind) {
		return false
	}
	m.mu.Lock()
	m.lastActivity = m.now()
	m.mu.Unlock()
	return true
}

// LastActivity returns the time of the last recorded interaction.
func (m *ActivityMonitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// VisibilityChanged handles the page becoming visible or hidden. On the
// transition to visible a long idle period reloads and a moderate one
// refreshes the session, reloading if that refresh fails.
func (m *ActivityMonitor) VisibilityChanged(ctx context.Context, visible bool) {
	m.mu.Lock()
	wasVisible := m.visible
	m.visible = visible
	if !visible || wasVisible {
		m.mu.Unlock()
		return
	}
	now := m.now()
	idle := now.Sub(m.lastActivity)
	reload := idle > m.cfg.HardThreshold
	refresh := !reload && idle > m.cfg.SoftThreshold
	if reload {
		m.lastActivity = now
	}
	m.mu.Unlock()

	switch {
	case reload:
		m.log.Info().Dur("idle", idle).Msg("idle beyond hard threshold on focus, reloading")
		m.reloader.ForceReload(ctx, ReloadIdleOnFocus)
	case refresh:
		m.log.Debug().Dur("idle", idle).Msg("refreshing session on focus")
		if _, err := m.session.RefreshSession(ctx); err != nil {
			m.log.Warn().Err(err).Msg("session refresh on focus failed, reloading")
			m.markReloaded()
			m.reloader.ForceReload(ctx, ReloadRefreshFailed)
		}
	}
}

// NetworkChanged refetches the current view when connectivity returns while
// the page is visible.
func (m *ActivityMonitor) NetworkChanged(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	refetch := online && !wasOnline && m.visible
	m.mu.Unlock()

	if !refetch {
		return
	}
	m.log.Debug().Msg("back online, refetching")
	if err := m.refetcher.Refetch(ctx); err != nil {
		m.log.Warn().Err(err).Msg("refetch after reconnect failed")
	}
}

// Check runs one periodic idle check. It reports whether a reload happened.
func (m *ActivityMonitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	now := m.now()
	idle := now.Sub(m.lastActivity)
	reload := m.visible && idle > m.cfg.HardThreshold
	if reload {
		m.lastActivity = now
	}
	m.mu.Unlock()

	if !reload {
		return false
	}
	m.log.Info().Dur("idle", idle).Msg("idle beyond hard threshold, reloading")
	m.reloader.ForceReload(ctx, ReloadIdlePeriodic)
	return true
}

// Run performs Check every CheckInterval until ctx is done.
func (m *ActivityMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *ActivityMonitor) markReloaded() {
	m.mu.Lock()
	m.lastActivity = m.now()
	m.mu.Unlock()
}
