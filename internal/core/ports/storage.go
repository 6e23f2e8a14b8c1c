package ports

import (
	"context"
	"errors"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// ErrNotFound is returned by key-value storage for absent keys.
var ErrNotFound = errors.New("key not found")

// Keys used for durable selection persistence.
const (
	KeyCurrentTenant   = "current_tenant_id"
	KeyCurrentProperty = "current_property_id"
)

// SelectionStorage is durable key-value storage scoped to one device.
type SelectionStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SessionCache holds a paint-time hint of the last session. It is never the
// source of truth.
type SessionCache interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}
