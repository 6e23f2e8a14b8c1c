package ports

import (
	"context"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// PropertySource lists the properties a user may access, either as owner or
// through a tenant membership.
type PropertySource interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Property, error)
}
