package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// CoordinatorFactory builds a fresh coordinator with empty stores.
type CoordinatorFactory func() (*Coordinator, error)

// Shell owns the live coordinator. A forced reload discards it and builds a
// new one, the server-side equivalent of reloading the page.
type Shell struct {
	factory CoordinatorFactory
	obs     ports.Observer
	log     zerolog.Logger

	mu         sync.RWMutex
	ctx        context.Context
	current    *Coordinator
	generation int
}

// NewShell returns a shell that builds coordinators with factory.
func NewShell(factory CoordinatorFactory, obs ports.Observer, log zerolog.Logger) *Shell {
	if obs == nil {
		obs = ports.NopObserver{}
	}
	return &Shell{
		factory: factory,
		obs:     obs,
		log:     log.With().Str("component", "shell").Logger(),
	}
}

// Start builds and starts the first coordinator.
func (s *Shell) Start(ctx context.Context) error {
	c, err := s.factory()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ctx = ctx
	s.current = c
	s.generation = 1
	s.mu.Unlock()

	c.Start(ctx)
	return nil
}

// Current returns the live coordinator.
func (s *Shell) Current() *Coordinator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Generation counts coordinators built so far.
func (s *Shell) Generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// ForceReload replaces the live coordinator with a freshly built one. The
// session survives in the backend and is picked up again on initialize.
func (s *Shell) ForceReload(_ context.Context, reason string) {
	next, err := s.factory()
	if err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("reload failed, keeping current state")
		return
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.generation++
	ctx := s.ctx
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	next.Start(ctx)

	s.obs.ForcedReload(reason)
	s.log.Info().Str("reason", reason).Msg("state reloaded")
}

// Close shuts down the live coordinator.
func (s *Shell) Close() {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

var errNotStarted = errors.New("shell not started")

func (s *Shell) live() (*Coordinator, error) {
	c := s.Current()
	if c == nil {
		return nil, errNotStarted
	}
	return c, nil
}

func (s *Shell) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	c, err := s.live()
	if err != nil {
		return nil, err
	}
	return c.SignIn(ctx, email, password)
}

func (s *Shell) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	c, err := s.live()
	if err != nil {
		return nil, err
	}
	return c.SignUp(ctx, email, password)
}

func (s *Shell) SignOut(ctx context.Context) error {
	c, err := s.live()
	if err != nil {
		return err
	}
	return c.SignOut(ctx)
}

func (s *Shell) RefreshSession(ctx context.Context) (*domain.Session, error) {
	c, err := s.live()
	if err != nil {
		return nil, err
	}
	return c.RefreshSession(ctx)
}

func (s *Shell) SelectProperty(ctx context.Context, propertyID string) error {
	c, err := s.live()
	if err != nil {
		return err
	}
	return c.SelectProperty(ctx, propertyID)
}

func (s *Shell) ReloadProperties(ctx context.Context) error {
	c, err := s.live()
	if err != nil {
		return err
	}
	return c.ReloadProperties(ctx)
}

// Refetch is the soft refresh triggered when connectivity returns.
func (s *Shell) Refetch(ctx context.Context) error {
	c, err := s.live()
	if err != nil {
		return err
	}
	return c.Refetch(ctx)
}

func (s *Shell) InvalidatePermissions(userID string) {
	if c := s.Current(); c != nil {
		c.InvalidatePermissions(userID)
	}
}

func (s *Shell) Can(capability string) bool {
	c := s.Current()
	return c != nil && c.Can(capability)
}

func (s *Shell) Readiness() domain.Readiness {
	c := s.Current()
	if c == nil {
		return domain.ReadinessLoading
	}
	return c.Readiness()
}

func (s *Shell) Snapshot() domain.Snapshot {
	c := s.Current()
	if c == nil {
		return domain.Snapshot{Readiness: domain.ReadinessLoading}
	}
	return c.Snapshot()
}

var (
	_ ports.Coordinator = (*Coordinator)(nil)
	_ ports.Coordinator = (*Shell)(nil)
	_ Reloader          = (*Shell)(nil)
	_ Refetcher         = (*Shell)(nil)
	_ SessionRefresher  = (*Shell)(nil)
)
