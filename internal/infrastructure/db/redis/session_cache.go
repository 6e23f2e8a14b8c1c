package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

const sessionHintKey = "session_hint"

// SessionCache stores the paint-time session hint. Tokens are never written;
// the hint expires together with the access token.
type SessionCache struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

var _ ports.SessionCache = (*SessionCache)(nil)

func NewSessionCache(client *redis.Client, deviceID string) *SessionCache {
	return &SessionCache{client: client, key: namespace(deviceID) + sessionHintKey, now: time.Now}
}

func (c *SessionCache) Load(ctx context.Context) (*domain.Session, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session hint: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session hint: %w", err)
	}
	return &s, nil
}

func (c *SessionCache) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return c.Clear(ctx)
	}
	ttl := time.Duration(0)
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(c.now())
		if ttl <= 0 {
			return c.Clear(ctx)
		}
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session hint: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session hint: %w", err)
	}
	return nil
}

func (c *SessionCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("clear session hint: %w", err)
	}
	return nil
}
