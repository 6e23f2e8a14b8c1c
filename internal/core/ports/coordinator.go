package ports

import (
	"context"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// Coordinator is what the HTTP layer drives. It is satisfied by both the
// coordinator itself and the shell that swaps coordinators on reload.
type Coordinator interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) (*domain.Session, error)
	SelectProperty(ctx context.Context, propertyID string) error
	ReloadProperties(ctx context.Context) error
	InvalidatePermissions(userID string)
	Can(capability string) bool
	Readiness() domain.Readiness
	Snapshot() domain.Snapshot
}
