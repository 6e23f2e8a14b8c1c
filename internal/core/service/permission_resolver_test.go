package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlite/porchlite/internal/core/domain"
)

func TestPermissionResolver_OwnerOverridesRole(t *testing.T) {
	roles := newFakeRoleSource()
	roles.roles["u1"] = domain.RoleCleaner
	r := NewPermissionResolver(roles, nil, zerolog.Nop())
	owned := property("p1", "t1", "u1")

	set, err := r.Resolve(context.Background(), newSession("u1"), &owned)
	require.NoError(t, err)

	assert.True(t, set.Owner)
	assert.Equal(t, domain.RoleCleaner, set.Role)
	for _, c := range domain.AllCapabilities {
		assert.True(t, set.Can(c), c)
	}
}

func TestPermissionResolver_RoleTable(t *testing.T) {
	roles := newFakeRoleSource()
	roles.roles["u1"] = domain.RoleCleaner
	r := NewPermissionResolver(roles, nil, zerolog.Nop())
	other := property("p1", "t1", "someone-else")

	set, err := r.Resolve(context.Background(), newSession("u1"), &other)
	require.NoError(t, err)

	assert.False(t, set.Owner)
	assert.True(t, set.Can(domain.CapViewTasks))
	assert.False(t, set.Can(domain.CapUserManagement))
	assert.False(t, set.Can("not_a_capability"))
}

func TestPermissionResolver_NoSessionGrantsNothing(t *testing.T) {
	r := NewPermissionResolver(newFakeRoleSource(), nil, zerolog.Nop())
	owned := property("p1", "t1", "u1")

	set, err := r.Resolve(context.Background(), nil, &owned)
	require.NoError(t, err)

	assert.Empty(t, set.List())
}

func TestPermissionResolver_RoleLookupFailureFailsClosed(t *testing.T) {
	roles := newFakeRoleSource()
	roles.roles["u1"] = domain.RoleAdmin
	roles.err = errBackendDown
	r := NewPermissionResolver(roles, nil, zerolog.Nop())

	set, err := r.Resolve(context.Background(), newSession("u1"), nil)
	require.ErrorIs(t, err, errBackendDown)
	assert.Empty(t, set.Role)
	assert.Empty(t, set.List())

	roles.err = nil
	set, err = r.Resolve(context.Background(), newSession("u1"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, set.Role, "failed lookups must not be cached")
}

func TestPermissionResolver_CachesUntilForget(t *testing.T) {
	roles := newFakeRoleSource()
	roles.roles["u1"] = domain.RoleStaff
	r := NewPermissionResolver(roles, nil, zerolog.Nop())

	_, _ = r.Resolve(context.Background(), newSession("u1"), nil)
	_, _ = r.Resolve(context.Background(), newSession("u1"), nil)
	assert.Equal(t, 1, roles.calls)

	roles.roles["u1"] = domain.RoleManager
	r.Forget("u1")
	set, _ := r.Resolve(context.Background(), newSession("u1"), nil)
	assert.Equal(t, 2, roles.calls)
	assert.Equal(t, domain.RoleManager, set.Role)
}

func TestPermissionResolver_CustomTable(t *testing.T) {
	roles := newFakeRoleSource()
	roles.roles["u1"] = "auditor"
	r := NewPermissionResolver(roles, nil, zerolog.Nop())
	r.SetTable(domain.CapabilityTable{"auditor": {domain.CapViewCalendar}})

	set, err := r.Resolve(context.Background(), newSession("u1"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.CapViewCalendar}, set.List())
}
