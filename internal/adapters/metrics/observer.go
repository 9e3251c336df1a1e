// Package metrics exports history activity as Prometheus counters
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

const namespace = "trailbook"

// Observer implements ports.Observer with Prometheus counters
type Observer struct {
	interactions  *prometheus.CounterVec
	navigations   prometheus.Counter
	resets        prometheus.Counter
	persistErrors prometheus.Counter
}

// Ensure Observer implements ports.Observer
var _ ports.Observer = (*Observer)(nil)

// NewObserver registers the history counters on reg
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		interactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Interactions recorded, by kind",
		}, []string{"kind"}),
		navigations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Moves of the current node",
		}),
		resets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Histories discarded and restarted",
		}),
		persistErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed writes of a history export",
		}),
	}
}

// Entity ids are not used as labels; their cardinality is unbounded.

func (o *Observer) InteractionAdded(_ string, kind domain.Kind) {
	o.interactions.WithLabelValues(kind.String()).Inc()
}

func (o *Observer) Navigated(string) {
	o.navigations.Inc()
}

func (o *Observer) Reset(string) {
	o.resets.Inc()
}

func (o *Observer) PersistFailed(string) {
	o.persistErrors.Inc()
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
