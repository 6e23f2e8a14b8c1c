package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/api/metrics"
	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// Observer records coordinator telemetry as Prometheus metrics and debug logs.
type Observer struct {
	log zerolog.Logger
}

var _ ports.Observer = (*Observer)(nil)

func NewObserver(log zerolog.Logger) *Observer {
	return &Observer{log: log.With().Str("component", "telemetry").Logger()}
}

func (o *Observer) AuthEvent(evt domain.AuthEventType, handled bool) {
	result := "applied"
	if !handled {
		result = "ignored"
	}
	metrics.AuthEventsTotal.WithLabelValues(string(evt), result).Inc()
}

func (o *Observer) SessionRefreshed(err error) {
	metrics.SessionRefreshesTotal.WithLabelValues(resultLabel(err)).Inc()
}

func (o *Observer) PropertiesLoaded(count int, took time.Duration, err error) {
	metrics.PropertyLoadDuration.WithLabelValues(resultLabel(err)).Observe(took.Seconds())
	if err == nil {
		metrics.PropertiesAccessible.Set(float64(count))
	}
}

func (o *Observer) StaleResultDiscarded(store string) {
	metrics.StaleResultsTotal.WithLabelValues(store).Inc()
}

func (o *Observer) ReadinessChanged(from, to domain.Readiness) {
	metrics.ReadinessTransitionsTotal.WithLabelValues(string(to)).Inc()
	o.log.Info().Str("from", string(from)).Str("to", string(to)).Msg("readiness changed")
}

func (o *Observer) ForcedReload(reason string) {
	metrics.ForcedReloadsTotal.WithLabelValues(reason).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
