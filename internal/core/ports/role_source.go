package ports

import (
	"context"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// RoleSource looks up the profile role of a user. A user without a profile
// has role "".
type RoleSource interface {
	RoleFor(ctx context.Context, userID string) (string, error)
}

// RoleRepository is the admin-side view of profile roles and the
// role_permissions table.
type RoleRepository interface {
	RoleSource
	SetRole(ctx context.Context, userID, role string) error
	CapabilityTable(ctx context.Context) (domain.CapabilityTable, error)
}
