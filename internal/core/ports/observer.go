package ports

import (
	"time"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// Observer receives coordinator telemetry. Implementations must not block.
type Observer interface {
	AuthEvent(evt domain.AuthEventType, handled bool)
	SessionRefreshed(err error)
	PropertiesLoaded(count int, took time.Duration, err error)
	StaleResultDiscarded(store string)
	ReadinessChanged(from, to domain.Readiness)
	ForcedReload(reason string)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) AuthEvent(domain.AuthEventType, bool)                {}
func (NopObserver) SessionRefreshed(error)                              {}
func (NopObserver) PropertiesLoaded(int, time.Duration, error)          {}
func (NopObserver) StaleResultDiscarded(string)                         {}
func (NopObserver) ReadinessChanged(domain.Readiness, domain.Readiness) {}
func (NopObserver) ForcedReload(string)                                 {}
