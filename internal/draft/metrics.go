package draft

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts autosaves and watched changes.
type Metrics struct {
	saves  *prometheus.CounterVec
	events *prometheus.CounterVec
}

// NewMetrics registers the draft collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		saves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rastreia_draft_saves_total",
				Help: "Draft autosaves by outcome",
			},
			[]string{"outcome"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rastreia_draft_events_total",
				Help: "Draft file changes seen by the watcher",
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) saved(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.saves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) event(t EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(t.String()).Inc()
}
