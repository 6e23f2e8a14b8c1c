package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// PermissionResolver derives a PermissionSet from the session, the current
// property and the user's profile role. Roles are cached per user until
// Forget is called.
type PermissionResolver struct {
	roles ports.RoleSource
	log   zerolog.Logger

	mu    sync.RWMutex
	table domain.CapabilityTable
	cache map[string]string
}

// NewPermissionResolver uses table, or the default table when nil.
func NewPermissionResolver(roles ports.RoleSource, table domain.CapabilityTable, log zerolog.Logger) *PermissionResolver {
	if table == nil {
		table = domain.DefaultCapabilityTable()
	}
	return &PermissionResolver{
		roles: roles,
		log:   log.With().Str("component", "permission_resolver").Logger(),
		table: table,
		cache: make(map[string]string),
	}
}

// SetTable replaces the role to capability mapping.
func (r *PermissionResolver) SetTable(table domain.CapabilityTable) {
	if table == nil {
		return
	}
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

// Resolve returns the permissions for session on property. Owning the
// property grants every capability regardless of role. When the role lookup
// fails the returned set carries no role capabilities and the error is
// returned alongside it, so callers can retry later.
func (r *PermissionResolver) Resolve(ctx context.Context, session *domain.Session, property *domain.Property) (domain.PermissionSet, error) {
	set := domain.PermissionSet{Capabilities: make(map[string]bool)}
	if session == nil {
		return set, nil
	}

	role, err := r.roleFor(ctx, session.UserID)
	set.Role = role
	set.Owner = property != nil && property.OwnerUserID != "" && property.OwnerUserID == session.UserID

	if set.Owner {
		for _, c := range domain.AllCapabilities {
			set.Capabilities[c] = true
		}
	}

	r.mu.RLock()
	for _, c := range r.table[set.Role] {
		set.Capabilities[c] = true
	}
	r.mu.RUnlock()

	return set, err
}

// Forget drops the cached role for userID.
func (r *PermissionResolver) Forget(userID string) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

func (r *PermissionResolver) roleFor(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	role, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok {
		return role, nil
	}
	if r.roles == nil {
		return "", nil
	}

	role, err := r.roles.RoleFor(ctx, userID)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("role lookup failed, granting no role capabilities")
		return "", fmt.Errorf("role lookup: %w", err)
	}

	r.mu.Lock()
	r.cache[userID] = role
	r.mu.Unlock()
	return role, nil
}
