package ports

import (
	"context"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// AuthClient is the boundary to the hosted auth backend. Stores only talk to
// the backend through this interface.
type AuthClient interface {
	// GetSession returns the backend's authoritative current session, or nil.
	GetSession(ctx context.Context) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	// SignUp may return a nil session when the account needs confirmation.
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, session *domain.Session) error
	RefreshSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	// OnAuthStateChange registers fn for pushed auth events. Events are
	// delivered in the order they happened.
	OnAuthStateChange(fn func(domain.AuthEvent)) (unsubscribe func())
	// EventSeq returns the Seq of the last event the client emitted, or zero
	// when events are not numbered.
	EventSeq() uint64
}
