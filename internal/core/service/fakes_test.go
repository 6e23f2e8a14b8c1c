package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

var errBackendDown = errors.New("backend unavailable")

func newSession(userID string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		UserID:       userID,
		Email:        userID + "@example.com",
		IssuedAt:     now,
		ExpiresAt:    now.Add(time.Hour),
		RawToken:     "access-" + userID,
		RefreshToken: "refresh-" + userID,
	}
}

// fakeAuthClient is an in-memory auth backend. Sign-in derives the user id
// from the part of the email before "@".
type fakeAuthClient struct {
	mu         sync.Mutex
	session    *domain.Session
	getErr     error
	getGate    chan struct{}
	signInErr  error
	refreshErr error
	getCalls   int
	listeners  map[int]func(domain.AuthEvent)
	next       int
	seq        uint64
}

func newFakeAuthClient(session *domain.Session) *fakeAuthClient {
	return &fakeAuthClient{session: session, listeners: make(map[int]func(domain.AuthEvent))}
}

func (f *fakeAuthClient) GetSession(ctx context.Context) (*domain.Session, error) {
	f.mu.Lock()
	f.getCalls++
	gate := f.getGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeAuthClient) SignInWithPassword(_ context.Context, email, _ string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	userID := email
	for i := range email {
		if email[i] == '@' {
			userID = email[:i]
			break
		}
	}
	f.session = newSession(userID)
	f.seq++
	return f.session, nil
}

func (f *fakeAuthClient) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return f.SignInWithPassword(ctx, email, password)
}

func (f *fakeAuthClient) SignOut(context.Context, *domain.Session) error {
	f.mu.Lock()
	f.session = nil
	f.seq++
	f.mu.Unlock()
	return nil
}

func (f *fakeAuthClient) RefreshSession(ctx context.Context, current *domain.Session) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	next := newSession(current.UserID)
	f.session = next
	f.seq++
	return next, nil
}

func (f *fakeAuthClient) EventSeq() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

func (f *fakeAuthClient) OnAuthStateChange(fn func(domain.AuthEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeAuthClient) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeAuthClient) emit(evt domain.AuthEvent) {
	f.mu.Lock()
	fns := make([]func(domain.AuthEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(evt)
	}
}

// fakePropertySource returns fixed lists per user. A gate for a user blocks
// the fetch until the gate is closed, regardless of cancellation.
type fakePropertySource struct {
	mu     sync.Mutex
	byUser map[string][]domain.Property
	err    error
	gates  map[string]chan struct{}
	calls  map[string]int
}

func newFakePropertySource() *fakePropertySource {
	return &fakePropertySource{
		byUser: make(map[string][]domain.Property),
		gates:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (f *fakePropertySource) set(userID string, props ...domain.Property) {
	f.mu.Lock()
	f.byUser[userID] = props
	f.mu.Unlock()
}

func (f *fakePropertySource) block(userID string) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[userID] = gate
	f.mu.Unlock()
	return gate
}

func (f *fakePropertySource) failWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePropertySource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakePropertySource) ListForUser(_ context.Context, userID string) ([]domain.Property, error) {
	f.mu.Lock()
	f.calls[userID]++
	gate := f.gates[userID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Property(nil), f.byUser[userID]...), nil
}

type fakeRoleSource struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
	calls int
}

func newFakeRoleSource() *fakeRoleSource {
	return &fakeRoleSource{roles: make(map[string]string)}
}

func (f *fakeRoleSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeRoleSource) RoleFor(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.roles[userID], nil
}

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (m *memStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type memSessionCache struct {
	mu      sync.Mutex
	session *domain.Session
}

func (c *memSessionCache) Load(context.Context) (*domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ports.ErrNotFound
	}
	return c.session, nil
}

func (c *memSessionCache) Save(_ context.Context, s *domain.Session) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return nil
}

func (c *memSessionCache) Clear(context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return nil
}

func (c *memSessionCache) current() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

type countingObserver struct {
	ports.NopObserver
	mu          sync.Mutex
	stale       map[string]int
	transitions []domain.Readiness
	reloads     []string
}

func newCountingObserver() *countingObserver {
	return &countingObserver{stale: make(map[string]int)}
}

func (o *countingObserver) StaleResultDiscarded(store string) {
	o.mu.Lock()
	o.stale[store]++
	o.mu.Unlock()
}

func (o *countingObserver) ReadinessChanged(_, to domain.Readiness) {
	o.mu.Lock()
	o.transitions = append(o.transitions, to)
	o.mu.Unlock()
}

func (o *countingObserver) ForcedReload(reason string) {
	o.mu.Lock()
	o.reloads = append(o.reloads, reason)
	o.mu.Unlock()
}

func (o *countingObserver) staleCount(store string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stale[store]
}

func property(id, tenant, owner string) domain.Property {
	return domain.Property{ID: id, TenantID: tenant, Name: "Property " + id, OwnerUserID: owner}
}
