package ports

import (
	"context"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// AuthRepository defines user account persistence for the backend.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
