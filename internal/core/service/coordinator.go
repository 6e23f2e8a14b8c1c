package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// Coordinator wires the session and property stores together and derives
// permissions and readiness from them. It never holds its own lock while
// calling into a store.
type Coordinator struct {
	sessions   *SessionStore
	properties *PropertyStore
	resolver   *PermissionResolver
	gate       *ReadinessGate
	obs        ports.Observer
	log        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// authMu serializes reactions to identity changes.
	authMu     sync.Mutex
	lastUserID string

	// recomputeMu serializes derivation of permissions and readiness.
	recomputeMu sync.Mutex

	mu          sync.Mutex
	permKey     string
	permUser    string
	permissions domain.PermissionSet
	started     bool
	closed      bool
	unsubs      []func()

	readinessSubs subscribers[domain.Readiness]
}

// NewCoordinator composes the given stores. Call Start to begin.
func NewCoordinator(sessions *SessionStore, properties *PropertyStore, resolver *PermissionResolver, obs ports.Observer, log zerolog.Logger) *Coordinator {
	if obs == nil {
		obs = ports.NopObserver{}
	}
	return &Coordinator{
		sessions:    sessions,
		properties:  properties,
		resolver:    resolver,
		gate:        NewReadinessGate(),
		obs:         obs,
		log:         log.With().Str("component", "coordinator").Logger(),
		ctx:         context.Background(),
		cancel:      func() {},
		permissions: domain.PermissionSet{Capabilities: map[string]bool{}},
	}
}

// Start subscribes to the stores and initializes the session in the
// background. Subsequent calls are no-ops.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.unsubs = append(c.unsubs,
		c.sessions.Subscribe(func(domain.AuthState) { c.onAuthChange() }),
		c.properties.Subscribe(func(domain.PropertyState) { c.recompute() }),
	)
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.sessions.Initialize(c.ctx); err != nil && !errors.Is(err, domain.ErrStoreClosed) {
			c.log.Error().Err(err).Msg("session initialization failed")
		}
	}()
}

// onAuthChange reacts to identity changes. Properties are only loaded once
// the session has been initialized, and always for the latest user.
func (c *Coordinator) onAuthChange() {
	c.authMu.Lock()
	auth := c.sessions.State()
	if !auth.Initialized {
		c.authMu.Unlock()
		c.recompute()
		return
	}

	userID := auth.UserID()
	prev := c.lastUserID
	c.lastUserID = userID
	if prev != userID {
		if prev != "" {
			c.resolver.Forget(prev)
		}
		if userID == "" {
			c.log.Info().Str("previous_user_id", prev).Msg("signed out, clearing properties")
			c.properties.Reset(c.ctx)
		} else {
			c.log.Info().Str("user_id", userID).Msg("identity changed, loading properties")
			c.loadProperties(userID)
		}
	}
	c.authMu.Unlock()

	c.recompute()
}

func (c *Coordinator) loadProperties(userID string) {
	fetch, err := c.properties.PrepareLoad(c.ctx, userID)
	if err != nil {
		c.log.Warn().Err(err).Msg("property load not started")
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fetch(); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Debug().Err(err).Msg("background property load failed")
		}
	}()
}

// recompute derives permissions and readiness from the latest store states.
func (c *Coordinator) recompute() {
	c.recomputeMu.Lock()
	defer c.recomputeMu.Unlock()

	auth := c.sessions.State()
	props := c.properties.State()

	var current *domain.Property
	if props.UserID != "" && props.UserID == auth.UserID() {
		current = props.Current()
	}
	key := auth.UserID() + "|"
	if current != nil {
		key += current.ID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	stale := key != c.permKey
	c.mu.Unlock()

	if stale {
		perms, err := c.resolver.Resolve(c.ctx, auth.Session, current)
		c.mu.Lock()
		// A failed role lookup leaves the key unset so the next auth or
		// property change retries it.
		c.permKey = key
		if err != nil {
			c.permKey = ""
		}
		c.permUser = auth.UserID()
		c.permissions = perms
		c.mu.Unlock()
	}

	prev := c.gate.Signal()
	signal, changed := c.gate.Evaluate(auth, props)
	if !changed {
		return
	}
	c.obs.ReadinessChanged(prev, signal)
	c.log.Debug().Str("from", string(prev)).Str("to", string(signal)).Msg("readiness changed")
	c.readinessSubs.publish(signal)
}

// SignIn signs in with email and password.
func (c *Coordinator) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.sessions.SignIn(ctx, email, password)
}

// SignUp registers a new account.
func (c *Coordinator) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.sessions.SignUp(ctx, email, password)
}

// SignOut ends the session. Property state is cleared by the identity
// change it triggers.
func (c *Coordinator) SignOut(ctx context.Context) error {
	return c.sessions.SignOut(ctx)
}

// RefreshSession refreshes the access token.
func (c *Coordinator) RefreshSession(ctx context.Context) (*domain.Session, error) {
	return c.sessions.Refresh(ctx)
}

// SelectProperty changes the current property. An empty id clears it.
func (c *Coordinator) SelectProperty(ctx context.Context, propertyID string) error {
	return c.properties.SetCurrentProperty(ctx, propertyID)
}

// ReloadProperties reloads the property list for the signed-in user and
// waits for the result.
func (c *Coordinator) ReloadProperties(ctx context.Context) error {
	userID := c.sessions.State().UserID()
	if userID == "" {
		return domain.ErrNoSession
	}
	return c.properties.Load(ctx, userID)
}

// Refetch reloads the property list in the background.
func (c *Coordinator) Refetch(context.Context) error {
	userID := c.sessions.State().UserID()
	if userID == "" {
		return nil
	}
	c.loadProperties(userID)
	return nil
}

// InvalidatePermissions forgets the cached role of userID and re-derives.
func (c *Coordinator) InvalidatePermissions(userID string) {
	c.resolver.Forget(userID)
	c.mu.Lock()
	c.permKey = ""
	c.mu.Unlock()
	c.recompute()
}

// Can reports whether the current user may use capability on the current
// property. Permissions derived for a previous user never answer.
func (c *Coordinator) Can(capability string) bool {
	return c.permissionsFor(c.sessions.State().UserID()).Can(capability)
}

// Permissions returns the current permission set.
func (c *Coordinator) Permissions() domain.PermissionSet {
	return c.permissionsFor(c.sessions.State().UserID())
}

func (c *Coordinator) permissionsFor(userID string) domain.PermissionSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.permUser != userID {
		return domain.PermissionSet{Capabilities: map[string]bool{}}
	}
	return c.permissions
}

// Readiness returns the current readiness signal.
func (c *Coordinator) Readiness() domain.Readiness {
	return c.gate.Signal()
}

// Snapshot reads both stores and derives readiness from that same pair.
// Property state that still belongs to a previous user is replaced by an
// empty state for the current one, so a reader never sees another user's
// properties.
func (c *Coordinator) Snapshot() domain.Snapshot {
	auth := c.sessions.State()
	props := c.properties.State()
	if props.UserID != auth.UserID() {
		props = domain.PropertyState{
			UserID:  auth.UserID(),
			Loading: auth.Session != nil,
		}
	}
	return domain.Snapshot{
		Auth:        auth,
		Properties:  props,
		Permissions: c.permissionsFor(auth.UserID()),
		Readiness:   domain.ComputeReadiness(auth, props),
	}
}

// OnReadinessChange registers fn for every readiness transition.
func (c *Coordinator) OnReadinessChange(fn func(domain.Readiness)) (unsubscribe func()) {
	return c.readinessSubs.add(fn)
}

// Wait blocks until background work started so far has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close tears the coordinator down and waits for background work.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	c.cancel()
	c.sessions.Close()
	c.properties.Close()
	c.readinessSubs.clear()
	c.wg.Wait()
}
