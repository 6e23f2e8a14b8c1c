package service

import (
	"sync"

	"github.com/porchlite/porchlite/internal/core/domain"
)

type readinessKey struct {
	userID       string
	propsUserID  string
	propertyID   string
	authLoading  bool
	authInit     bool
	propsLoading bool
	propsInit    bool
}

func keyOf(auth domain.AuthState, props domain.PropertyState) readinessKey {
	return readinessKey{
		userID:       auth.UserID(),
		propsUserID:  props.UserID,
		propertyID:   props.CurrentPropertyID,
		authLoading:  auth.Loading,
		authInit:     auth.Initialized,
		propsLoading: props.Loading,
		propsInit:    props.Initialized,
	}
}

// ReadinessGate memoizes domain.ComputeReadiness on the inputs it reads.
type ReadinessGate struct {
	mu     sync.Mutex
	key    readinessKey
	signal domain.Readiness
}

// NewReadinessGate starts at ReadinessLoading.
func NewReadinessGate() *ReadinessGate {
	return &ReadinessGate{signal: domain.ReadinessLoading}
}

// Evaluate returns the readiness for the given states and whether it differs
// from the previous evaluation.
func (g *ReadinessGate) Evaluate(auth domain.AuthState, props domain.PropertyState) (domain.Readiness, bool) {
	key := keyOf(auth, props)

	g.mu.Lock()
	defer g.mu.Unlock()
	if key == g.key {
		return g.signal, false
	}
	g.key = key

	next := domain.ComputeReadiness(auth, props)
	changed := next != g.signal
	g.signal = next
	return next, changed
}

// Signal returns the last evaluated readiness.
func (g *ReadinessGate) Signal() domain.Readiness {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signal
}
