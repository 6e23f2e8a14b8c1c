package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
	"github.com/porchlite/porchlite/internal/infrastructure/queue"
)

const minPasswordLength = 6

// Client is the hosted auth backend. It keeps the device's current session,
// persists accounts through ports.AuthRepository, and pushes auth events in
// order through the dispatcher.
type Client struct {
	users  ports.AuthRepository
	tokens *TokenIssuer
	events *queue.Dispatcher
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.Session

	// emitMu keeps Seq order and dispatcher order identical.
	emitMu sync.Mutex
	seq    uint64
}

var _ ports.AuthClient = (*Client)(nil)

func NewClient(users ports.AuthRepository, tokens *TokenIssuer, events *queue.Dispatcher, log zerolog.Logger) *Client {
	return &Client{
		users:  users,
		tokens: tokens,
		events: events,
		log:    log.With().Str("component", "auth_backend").Logger(),
		now:    time.Now,
	}
}

// GetSession returns the current session, refreshing it first when the
// access token has expired. A failed refresh ends the session.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current == nil || !current.Expired(c.now()) {
		return current, nil
	}

	refreshed, err := c.RefreshSession(ctx, current)
	if err != nil {
		c.log.Info().Err(err).Str("user_id", current.UserID).Msg("expired session could not be refreshed")
		c.transition(ctx, nil, domain.EventSignedOut)
		return nil, nil
	}
	return refreshed, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := c.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return c.startSession(ctx, user, domain.EventSignedIn)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || len(password) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	user, err := c.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	return c.startSession(ctx, user, domain.EventSignedIn)
}

// SignOut ends the device session. Signing out without a session succeeds.
func (c *Client) SignOut(ctx context.Context, _ *domain.Session) error {
	c.transition(ctx, nil, domain.EventSignedOut)
	return nil
}

func (c *Client) RefreshSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session == nil || session.RefreshToken == "" {
		return nil, domain.ErrNoSession
	}

	userID, err := c.tokens.ParseRefresh(session.RefreshToken, c.now())
	if err != nil {
		return nil, err
	}
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return c.startSession(ctx, user, domain.EventTokenRefreshed)
}

func (c *Client) OnAuthStateChange(fn func(domain.AuthEvent)) func() {
	return c.events.Subscribe(fn)
}

func (c *Client) startSession(ctx context.Context, user *domain.User, evt domain.AuthEventType) (*domain.Session, error) {
	session, err := c.tokens.Issue(user, c.now())
	if err != nil {
		return nil, err
	}
	c.transition(ctx, session, evt)
	c.log.Debug().Str("user_id", user.ID).Str("event", string(evt)).Msg("session issued")
	return session, nil
}

// EventSeq returns the Seq of the last emitted auth event.
func (c *Client) EventSeq() uint64 {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	return c.seq
}

// transition replaces the current session and emits the matching event with
// the next sequence number.
func (c *Client) transition(ctx context.Context, session *domain.Session, evt domain.AuthEventType) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.seq++
	if c.events == nil {
		return
	}
	c.events.Publish(context.WithoutCancel(ctx), domain.AuthEvent{Type: evt, Session: session, Seq: c.seq})
}
