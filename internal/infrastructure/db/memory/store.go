package memory

import (
	"context"
	"sync"
	"time"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// Store is the in-memory fallback for selection storage and the session
// hint, used when Redis is disabled. Nothing survives a restart.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
	hint *domain.Session
	now  func() time.Time
}

var (
	_ ports.SelectionStorage = (*Store)(nil)
	_ ports.SessionCache     = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{data: make(map[string]string), now: time.Now}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Load returns the session hint with its tokens stripped.
func (s *Store) Load(context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hint == nil || s.hint.Expired(s.now()) {
		return nil, ports.ErrNotFound
	}
	hint := *s.hint
	return &hint, nil
}

func (s *Store) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.hint = nil
		return nil
	}
	hint := *session
	hint.RawToken, hint.RefreshToken = "", ""
	s.hint = &hint
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = nil
	return nil
}
