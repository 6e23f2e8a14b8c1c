package domain

import "time"

// AuthEventType names a notification pushed by the hosted auth backend.
type AuthEventType string

const (
	EventInitialSession AuthEventType = "INITIAL_SESSION"
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is a single auth state change delivered by the backend.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session // nil for SIGNED_OUT
	// Seq is the event's position in the backend's stream. Zero means the
	// source does not number its events.
	Seq uint64
}

// Session is an immutable snapshot of an authenticated user. Stores replace
// it wholesale on every auth event and never mutate it in place.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	RawToken     string    `json:"-"`
	RefreshToken string    `json:"-"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SameUser reports whether two sessions belong to the same identity.
func (s *Session) SameUser(other *Session) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return s.UserID == other.UserID
}

// AuthState is the observable state of the session store.
type AuthState struct {
	Session     *Session `json:"session"`
	Loading     bool     `json:"loading"`
	Initialized bool     `json:"initialized"`
}

// UserID returns the signed-in user id or "" when signed out.
func (a AuthState) UserID() string {
	if a.Session == nil {
		return ""
	}
	return a.Session.UserID
}
