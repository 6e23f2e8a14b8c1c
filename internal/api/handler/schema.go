package handler

import (
	"time"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type selectPropertyRequest struct {
	// PropertyID empty clears the selection.
	PropertyID string `json:"property_id"`
}

type activityRequest struct {
	Kind string `json:"kind" validate:"required,oneof=pointerdown keydown touchstart scroll"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

type networkRequest struct {
	Online *bool `json:"online" validate:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff cleaner"`
}

// --- Response types ---

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AccessToken   string     `json:"access_token,omitempty"`
	RefreshToken  string     `json:"refresh_token,omitempty"`
	Loading       bool       `json:"loading"`
	Initialized   bool       `json:"initialized"`
}

type readinessResponse struct {
	Readiness         domain.Readiness `json:"readiness"`
	UserID            string           `json:"user_id,omitempty"`
	CurrentPropertyID string           `json:"current_property_id,omitempty"`
}

type permissionsResponse struct {
	Role         string   `json:"role"`
	Owner        bool     `json:"owner"`
	Capabilities []string `json:"capabilities"`
}

type capabilityResponse struct {
	Capability string `json:"capability"`
	Allowed    bool   `json:"allowed"`
}

type propertiesResponse struct {
	Properties        []domain.Property `json:"properties"`
	CurrentPropertyID string            `json:"current_property_id,omitempty"`
	CurrentTenantID   string            `json:"current_tenant_id,omitempty"`
	Loading           bool              `json:"loading"`
	Initialized       bool              `json:"initialized"`
	Error             string            `json:"error,omitempty"`
}

type activityResponse struct {
	Recorded     bool      `json:"recorded"`
	LastActivity time.Time `json:"last_activity"`
}

type currentPropertyResponse struct {
	Property    domain.Property     `json:"property"`
	Permissions permissionsResponse `json:"permissions"`
}

func toSessionResponse(s *domain.Session, withTokens bool) sessionResponse {
	if s == nil {
		return sessionResponse{}
	}
	resp := sessionResponse{Authenticated: true, UserID: s.UserID, Email: s.Email}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		resp.ExpiresAt = &exp
	}
	if withTokens {
		resp.AccessToken = s.RawToken
		resp.RefreshToken = s.RefreshToken
	}
	return resp
}

func toPermissionsResponse(p domain.PermissionSet) permissionsResponse {
	return permissionsResponse{Role: p.Role, Owner: p.Owner, Capabilities: p.List()}
}

func toPropertiesResponse(s domain.PropertyState) propertiesResponse {
	props := s.Properties
	if props == nil {
		props = []domain.Property{}
	}
	resp := propertiesResponse{
		Properties:        props,
		CurrentPropertyID: s.CurrentPropertyID,
		CurrentTenantID:   s.CurrentTenantID,
		Loading:           s.Loading,
		Initialized:       s.Initialized,
	}
	if s.Err != nil {
		resp.Error = "property list could not be refreshed"
	}
	return resp
}
