package mongo

import (
	"reflect"
	"testing"

	"github.com/porchlite/porchlite/internal/core/domain"
)

func TestBuildCapabilityTable(t *testing.T) {
	rows := []rolePermission{
		{Role: domain.RoleManager, Capability: domain.CapTaskManagement, Allowed: true},
		{Role: domain.RoleManager, Capability: domain.CapViewTasks, Allowed: true},
		{Role: domain.RoleManager, Capability: domain.CapTaskManagement, Allowed: true},
		{Role: domain.RoleCleaner, Capability: domain.CapViewTasks, Allowed: true},
		{Role: domain.RoleCleaner, Capability: domain.CapTaskManagement, Allowed: false},
		{Role: "", Capability: domain.CapViewTasks, Allowed: true},
		{Role: domain.RoleStaff, Capability: "", Allowed: true},
	}

	got := buildCapabilityTable(rows)

	want := domain.CapabilityTable{
		domain.RoleManager: {domain.CapTaskManagement, domain.CapViewTasks},
		domain.RoleCleaner: {domain.CapViewTasks},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildCapabilityTable_NoRows(t *testing.T) {
	got := buildCapabilityTable(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty table, got %v", got)
	}
}
