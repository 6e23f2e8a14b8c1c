package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

const (
	cacheWriteTimeout = 2 * time.Second
	refreshTimeout    = 15 * time.Second
)

// SessionStore holds the current session and reconciles it with the hosted
// auth backend. It is the only writer of domain.AuthState.
type SessionStore struct {
	client ports.AuthClient
	cache  ports.SessionCache
	obs    ports.Observer
	log    zerolog.Logger
	now    func() time.Time

	// opMu serializes sign-in, sign-up, sign-out and refresh so the
	// sequence number read after a backend call belongs to that call.
	opMu sync.Mutex

	mu          sync.Mutex
	state       domain.AuthState
	epoch       uint64 // bumped by every applied auth event
	fence       uint64 // highest backend Seq reflected in state
	initStarted bool
	closed      bool
	unsubscribe func()

	subs    subscribers[domain.AuthState]
	refresh singleflight.Group
}

// NewSessionStore returns a store bound to client. cache may be nil.
func NewSessionStore(client ports.AuthClient, cache ports.SessionCache, obs ports.Observer, log zerolog.Logger) *SessionStore {
	if obs == nil {
		obs = ports.NopObserver{}
	}
	return &SessionStore{
		client: client,
		cache:  cache,
		obs:    obs,
		log:    log.With().Str("component", "session_store").Logger(),
		now:    time.Now,
	}
}

// State returns a snapshot of the current auth state.
func (s *SessionStore) State() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every published state change.
func (s *SessionStore) Subscribe(fn func(domain.AuthState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Initialize hydrates the paint-time hint, then asks the backend for the
// authoritative session. Backend failures resolve to "signed out". Only the
// first call does any work.
func (s *SessionStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	if s.initStarted {
		s.mu.Unlock()
		return nil
	}
	s.initStarted = true
	s.unsubscribe = s.client.OnAuthStateChange(s.HandleAuthEvent)
	s.mu.Unlock()

	s.hydrateFromCache(ctx)

	s.mu.Lock()
	epoch := s.epoch
	s.state.Loading = true
	snapshot := s.state
	s.mu.Unlock()
	s.publish(snapshot)

	session, err := s.client.GetSession(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("initial session check failed, continuing signed out")
		session = nil
	}
	if session != nil && session.Expired(s.now()) {
		s.log.Info().Str("user_id", session.UserID).Msg("backend returned an expired session, ignoring")
		session = nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	superseded := s.epoch != epoch
	if !superseded {
		s.state.Session = session
	}
	s.state.Loading = false
	s.state.Initialized = true
	snapshot = s.state
	s.mu.Unlock()

	if superseded {
		s.obs.StaleResultDiscarded("session")
		s.log.Debug().Msg("initial session check superseded by an auth event")
	} else {
		s.syncCache(snapshot.Session)
	}

	s.log.Info().Bool("signed_in", snapshot.Session != nil).Msg("session initialized")
	s.publish(snapshot)
	return nil
}

func (s *SessionStore) hydrateFromCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	cached, err := s.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.log.Debug().Err(err).Msg("session hint unavailable")
		}
		return
	}
	if cached == nil || cached.Expired(s.now()) {
		return
	}

	s.mu.Lock()
	if s.state.Initialized || s.state.Session != nil {
		s.mu.Unlock()
		return
	}
	s.state.Session = cached
	s.state.Loading = true
	snapshot := s.state
	s.mu.Unlock()

	s.log.Debug().Str("user_id", cached.UserID).Msg("hydrated session hint")
	s.publish(snapshot)
}

// HandleAuthEvent applies a backend push notification. Events the store has
// already reflected through its own calls are dropped as stale. Unknown
// events and refreshes for a different identity are logged and ignored.
func (s *SessionStore) HandleAuthEvent(evt domain.AuthEvent) {
	snapshot, applied, stale := s.apply(evt)
	if stale {
		s.obs.StaleResultDiscarded("auth_event")
		s.log.Debug().Str("event", string(evt.Type)).Uint64("seq", evt.Seq).Msg("stale auth event dropped")
		return
	}
	s.obs.AuthEvent(evt.Type, applied)
	if !applied {
		s.log.Warn().Str("event", string(evt.Type)).Msg("auth event ignored")
		return
	}
	s.log.Debug().Str("event", string(evt.Type)).Str("user_id", snapshot.UserID()).Msg("auth event applied")
	s.syncCache(snapshot.Session)
	s.publish(snapshot)
}

func (s *SessionStore) apply(evt domain.AuthEvent) (state domain.AuthState, applied, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state, false, false
	}
	if evt.Seq != 0 && evt.Seq <= s.fence {
		return s.state, false, true
	}

	switch evt.Type {
	case domain.EventSignedIn, domain.EventInitialSession:
		s.state.Session = evt.Session
		s.state.Loading = false
		s.state.Initialized = true
	case domain.EventSignedOut:
		s.state.Session = nil
		s.state.Loading = false
		s.state.Initialized = true
	case domain.EventTokenRefreshed, domain.EventUserUpdated:
		if evt.Session == nil || s.state.Session == nil || !s.state.Session.SameUser(evt.Session) {
			return s.state, false, false
		}
		s.state.Session = evt.Session
	default:
		return s.state, false, false
	}

	s.epoch++
	if evt.Seq > s.fence {
		s.fence = evt.Seq
	}
	return s.state, true, false
}

// SignIn delegates to the backend. Errors are returned unmodified.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.setLoading(true); err != nil {
		return nil, err
	}
	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return nil, err
	}
	s.commit(domain.AuthEvent{Type: domain.EventSignedIn, Session: session})
	return session, nil
}

// SignUp delegates to the backend. A nil session with a nil error means the
// account awaits confirmation; the current session is left untouched.
func (s *SessionStore) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.setLoading(true); err != nil {
		return nil, err
	}
	session, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return nil, err
	}
	if session == nil {
		s.setLoading(false)
		return nil, nil
	}
	s.commit(domain.AuthEvent{Type: domain.EventSignedIn, Session: session})
	return session, nil
}

// SignOut ends the current session at the backend and clears it locally.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.setLoading(true); err != nil {
		return err
	}
	current := s.State().Session
	if err := s.client.SignOut(ctx, current); err != nil {
		s.setLoading(false)
		return err
	}
	s.commit(domain.AuthEvent{Type: domain.EventSignedOut})
	return nil
}

// Refresh exchanges the refresh token for a new session. Concurrent callers
// share a single backend call.
func (s *SessionStore) Refresh(ctx context.Context) (*domain.Session, error) {
	v, err, _ := s.refresh.Do("refresh", func() (any, error) {
		// Shared by every caller, so no single caller's cancellation applies.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		s.opMu.Lock()
		defer s.opMu.Unlock()

		current := s.State().Session
		if current == nil {
			return nil, domain.ErrNoSession
		}
		session, err := s.client.RefreshSession(ctx, current)
		if err != nil {
			return nil, err
		}
		s.commit(domain.AuthEvent{Type: domain.EventTokenRefreshed, Session: session})
		return session, nil
	})
	s.obs.SessionRefreshed(err)
	if err != nil {
		s.log.Warn().Err(err).Msg("session refresh failed")
		return nil, err
	}
	return v.(*domain.Session), nil
}

// Close detaches from the backend. No state is published afterwards.
func (s *SessionStore) Close() {
	s.mu.Lock()
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.subs.clear()
}

// commit applies the outcome of a backend call made by this store, stamped
// with the backend's current Seq so the pushed copy of the same event is
// later dropped.
func (s *SessionStore) commit(evt domain.AuthEvent) {
	evt.Seq = s.client.EventSeq()
	snapshot, applied, _ := s.apply(evt)
	if !applied {
		return
	}
	s.syncCache(snapshot.Session)
	s.publish(snapshot)
}

func (s *SessionStore) setLoading(loading bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	s.state.Loading = loading
	snapshot := s.state
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

func (s *SessionStore) syncCache(session *domain.Session) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	var err error
	if session != nil {
		err = s.cache.Save(ctx, session)
	} else {
		err = s.cache.Clear(ctx)
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("session hint not updated")
	}
}

func (s *SessionStore) publish(state domain.AuthState) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.subs.publish(state)
}
