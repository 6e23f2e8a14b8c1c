package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlite/porchlite/internal/core/domain"
)

func TestSessionStore_Initialize_NoSession(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := NewSessionStore(client, nil, nil, zerolog.Nop())

	require.False(t, store.State().Initialized)
	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	assert.True(t, state.Initialized)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Session)
}

func TestSessionStore_Initialize_RunsOnce(t *testing.T) {
	client := newFakeAuthClient(newSession("u1"))
	store := NewSessionStore(client, nil, nil, zerolog.Nop())

	var flips int
	var mu sync.Mutex
	initialized := false
	store.Subscribe(func(s domain.AuthState) {
		mu.Lock()
		defer mu.Unlock()
		if s.Initialized && !initialized {
			flips++
		}
		initialized = s.Initialized
	})

	require.NoError(t, store.Initialize(context.Background()))
	require.NoError(t, store.Initialize(context.Background()))

	assert.Equal(t, 1, client.getCalls)
	assert.Equal(t, 1, flips)
	assert.Equal(t, "u1", store.State().UserID())
}

func TestSessionStore_Initialize_BackendErrorMeansSignedOut(t *testing.T) {
	client := newFakeAuthClient(newSession("u1"))
	client.getErr = errBackendDown
	store := NewSessionStore(client, nil, nil, zerolog.Nop())

	require.NoError(t, store.Initialize(context.Background()))

	state := store.State()
	assert.True(t, state.Initialized)
	assert.Nil(t, state.Session)
}

func TestSessionStore_Initialize_ExpiredSessionIgnored(t *testing.T) {
	expired := newSession("u1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store := NewSessionStore(newFakeAuthClient(expired), nil, nil, zerolog.Nop())

	require.NoError(t, store.Initialize(context.Background()))
	assert.Nil(t, store.State().Session)
}

func TestSessionStore_Initialize_BackendWinsOverCache(t *testing.T) {
	cache := &memSessionCache{session: newSession("cached")}
	client := newFakeAuthClient(nil)
	client.getGate = make(chan struct{})
	store := NewSessionStore(client, cache, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Initialize(context.Background())
	}()

	require.Eventually(t, func() bool {
		s := store.State()
		return s.Session != nil && s.Loading
	}, time.Second, 5*time.Millisecond, "cached hint should be visible while the backend check runs")
	assert.False(t, store.State().Initialized)

	close(client.getGate)
	<-done

	state := store.State()
	assert.True(t, state.Initialized)
	assert.Nil(t, state.Session)
	assert.Nil(t, cache.current(), "hint should be cleared once the backend says signed out")
}

func TestSessionStore_AuthEventDuringInitSupersedesResult(t *testing.T) {
	client := newFakeAuthClient(newSession("u1"))
	client.getGate = make(chan struct{})
	obs := newCountingObserver()
	store := NewSessionStore(client, nil, obs, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Initialize(context.Background())
	}()

	require.Eventually(t, func() bool { return client.listenerCount() == 1 }, time.Second, 5*time.Millisecond)
	client.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: newSession("u2")})

	close(client.getGate)
	<-done

	assert.Equal(t, "u2", store.State().UserID())
	assert.Equal(t, 1, obs.staleCount("session"))
}

func TestSessionStore_HandleAuthEvent(t *testing.T) {
	tests := []struct {
		name    string
		current *domain.Session
		event   domain.AuthEvent
		want    string
	}{
		{"signed in replaces", newSession("u1"), domain.AuthEvent{Type: domain.EventSignedIn, Session: newSession("u2")}, "u2"},
		{"initial session replaces", nil, domain.AuthEvent{Type: domain.EventInitialSession, Session: newSession("u1")}, "u1"},
		{"signed out clears", newSession("u1"), domain.AuthEvent{Type: domain.EventSignedOut}, ""},
		{"refresh for same user", newSession("u1"), domain.AuthEvent{Type: domain.EventTokenRefreshed, Session: newSession("u1")}, "u1"},
		{"refresh for other user ignored", newSession("u1"), domain.AuthEvent{Type: domain.EventTokenRefreshed, Session: newSession("u2")}, "u1"},
		{"refresh while signed out ignored", nil, domain.AuthEvent{Type: domain.EventTokenRefreshed, Session: newSession("u1")}, ""},
		{"user updated for other user ignored", newSession("u1"), domain.AuthEvent{Type: domain.EventUserUpdated, Session: newSession("u9")}, "u1"},
		{"unknown event ignored", newSession("u1"), domain.AuthEvent{Type: "PASSWORD_RECOVERY"}, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStore(newFakeAuthClient(tt.current), nil, nil, zerolog.Nop())
			require.NoError(t, store.Initialize(context.Background()))

			store.HandleAuthEvent(tt.event)
			assert.Equal(t, tt.want, store.State().UserID())
		})
	}
}

func TestSessionStore_RefreshReplacesSessionObject(t *testing.T) {
	store := NewSessionStore(newFakeAuthClient(newSession("u1")), nil, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))
	before := store.State().Session

	after, err := store.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Same(t, after, store.State().Session)
	assert.Equal(t, "access-u1", before.RawToken, "previous snapshot must not be mutated")
}

func TestSessionStore_RefreshWithoutSession(t *testing.T) {
	store := NewSessionStore(newFakeAuthClient(nil), nil, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))

	_, err := store.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSessionStore_SignInErrorIsReturnedUnmodified(t *testing.T) {
	client := newFakeAuthClient(nil)
	client.signInErr = domain.ErrInvalidCredentials
	store := NewSessionStore(client, nil, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))

	_, err := store.SignIn(context.Background(), "u1@example.com", "wrong")

	assert.Same(t, domain.ErrInvalidCredentials, err)
	state := store.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Session)
}

func TestSessionStore_SignInAndOut(t *testing.T) {
	cache := &memSessionCache{}
	store := NewSessionStore(newFakeAuthClient(nil), cache, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))

	session, err := store.SignIn(context.Background(), "u1@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "u1", store.State().UserID())
	require.NotNil(t, cache.current())

	require.NoError(t, store.SignOut(context.Background()))
	assert.Nil(t, store.State().Session)
	assert.Nil(t, cache.current())
}

func TestSessionStore_ClosedStoreRejectsOperations(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := NewSessionStore(client, nil, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))
	require.Equal(t, 1, client.listenerCount())

	store.Close()

	assert.Equal(t, 0, client.listenerCount())
	_, err := store.SignIn(context.Background(), "u1@example.com", "pw")
	assert.True(t, errors.Is(err, domain.ErrStoreClosed))
}

func TestSessionStore_PushedCopyOfOwnChangeIsDropped(t *testing.T) {
	client := newFakeAuthClient(nil)
	obs := newCountingObserver()
	store := NewSessionStore(client, nil, obs, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))

	signedIn, err := store.SignIn(context.Background(), "u1@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, store.SignOut(context.Background()))

	var published []string
	store.Subscribe(func(s domain.AuthState) { published = append(published, s.UserID()) })

	// The backend delivers both events after the calls already returned.
	client.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: signedIn, Seq: 1})
	client.emit(domain.AuthEvent{Type: domain.EventSignedOut, Seq: 2})

	assert.Nil(t, store.State().Session, "signed-out user must not come back")
	assert.Empty(t, published)
	assert.Equal(t, 2, obs.staleCount("auth_event"))

	// A newer event from the backend is still applied.
	client.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: newSession("u2"), Seq: 3})
	assert.Equal(t, "u2", store.State().UserID())
}

func TestSessionStore_RefreshIgnoresCallerCancellation(t *testing.T) {
	store := NewSessionStore(newFakeAuthClient(newSession("u1")), nil, nil, zerolog.Nop())
	require.NoError(t, store.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := store.Refresh(ctx)
	require.NoError(t, err)
	assert.Same(t, session, store.State().Session)
}
