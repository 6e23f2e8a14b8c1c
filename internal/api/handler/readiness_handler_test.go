package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/porchlite/porchlite/internal/core/domain"
)

func TestReadinessHandler_Readiness(t *testing.T) {
	stub := &stubCoordinator{snapshot: domain.Snapshot{
		Auth:       domain.AuthState{Session: &domain.Session{UserID: "u1"}, Initialized: true},
		Properties: domain.PropertyState{UserID: "u1", CurrentPropertyID: "p1"},
		Readiness:  domain.ReadinessReady,
	}}
	handler := NewReadinessHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/readiness", "")
	if err := handler.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Readiness != domain.ReadinessReady || resp.UserID != "u1" || resp.CurrentPropertyID != "p1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestReadinessHandler_Permissions(t *testing.T) {
	stub := &stubCoordinator{snapshot: domain.Snapshot{
		Permissions: domain.PermissionSet{
			Role:         domain.RoleCleaner,
			Capabilities: map[string]bool{domain.CapViewTasks: true, domain.CapViewInventory: true},
		},
	}}
	handler := NewReadinessHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/permissions", "")
	if err := handler.Permissions(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp permissionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Role != domain.RoleCleaner || len(resp.Capabilities) != 2 || resp.Capabilities[0] != domain.CapViewInventory {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestReadinessHandler_Can(t *testing.T) {
	stub := &stubCoordinator{snapshot: domain.Snapshot{
		Permissions: domain.PermissionSet{Capabilities: map[string]bool{domain.CapViewTasks: true}},
	}}
	handler := NewReadinessHandler(stub)

	tests := []struct {
		capability string
		allowed    bool
	}{
		{domain.CapViewTasks, true},
		{domain.CapUserManagement, false},
		{"launch_rockets", false},
	}
	for _, tt := range tests {
		t.Run(tt.capability, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodGet, "/permissions/"+tt.capability, "")
			c.SetParamNames("capability")
			c.SetParamValues(tt.capability)
			if err := handler.Can(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			var resp capabilityResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Allowed != tt.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tt.allowed, resp)
			}
		})
	}
}
