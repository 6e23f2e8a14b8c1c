package domain

// Readiness is the single derived value that decides what a shell renders.
type Readiness string

const (
	ReadinessLoading                Readiness = "loading"
	ReadinessUnauthenticated        Readiness = "unauthenticated"
	ReadinessNeedsPropertySelection Readiness = "needs_property_selection"
	ReadinessReady                  Readiness = "ready"
)

// ComputeReadiness is a pure function of the two store states.
func ComputeReadiness(auth AuthState, props PropertyState) Readiness {
	if !auth.Initialized {
		return ReadinessLoading
	}
	if auth.Session == nil {
		return ReadinessUnauthenticated
	}
	if auth.Loading {
		return ReadinessLoading
	}
	if !props.Initialized || props.Loading || props.UserID != auth.Session.UserID {
		return ReadinessLoading
	}
	if props.Current() == nil {
		return ReadinessNeedsPropertySelection
	}
	return ReadinessReady
}

// Snapshot is a consistent read of everything the shell renders from.
type Snapshot struct {
	Auth        AuthState     `json:"auth"`
	Properties  PropertyState `json:"properties"`
	Permissions PermissionSet `json:"permissions"`
	Readiness   Readiness     `json:"readiness"`
}
