package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/porchlite/porchlite/internal/core/domain"
)

type stubRoleWriter struct {
	setFn func(ctx context.Context, userID, role string) error
}

func (s *stubRoleWriter) SetRole(ctx context.Context, userID, role string) error {
	return s.setFn(ctx, userID, role)
}

func TestAdminHandler_SetRole_InvalidatesPermissions(t *testing.T) {
	app := &stubCoordinator{}
	roles := &stubRoleWriter{setFn: func(ctx context.Context, userID, role string) error {
		if userID != "u7" || role != domain.RoleManager {
			t.Fatalf("unexpected args: %s %s", userID, role)
		}
		return nil
	}}
	handler := NewAdminHandler(roles, app)

	c, rec := newJSONContext(http.MethodPut, "/admin/users/u7/role", `{"role":"manager"}`)
	c.SetParamNames("id")
	c.SetParamValues("u7")
	if err := handler.SetRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(app.invalidated) != 1 || app.invalidated[0] != "u7" {
		t.Fatalf("expected permissions of u7 to be invalidated, got %v", app.invalidated)
	}
}

func TestAdminHandler_SetRole_StoreFailure(t *testing.T) {
	boom := errors.New("boom")
	app := &stubCoordinator{}
	roles := &stubRoleWriter{setFn: func(ctx context.Context, userID, role string) error { return boom }}
	handler := NewAdminHandler(roles, app)

	c, _ := newJSONContext(http.MethodPut, "/admin/users/u7/role", `{"role":"staff"}`)
	c.SetParamNames("id")
	c.SetParamValues("u7")
	if err := handler.SetRole(c); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(app.invalidated) != 0 {
		t.Fatalf("failed write must not invalidate")
	}
}

func TestAdminHandler_SetRole_RejectsUnknownRole(t *testing.T) {
	handler := NewAdminHandler(&stubRoleWriter{setFn: func(ctx context.Context, userID, role string) error {
		t.Fatalf("should not be called")
		return nil
	}}, &stubCoordinator{})

	c, _ := newJSONContext(http.MethodPut, "/admin/users/u7/role", `{"role":"owner"}`)
	c.SetParamNames("id")
	c.SetParamValues("u7")
	if code := httpCode(t, handler.SetRole(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
