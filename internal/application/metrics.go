package application

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

type Metrics struct {
	actions        *prometheus.CounterVec
	items          prometheus.Gauge
	pendingReviews prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "actions_total",
			Help:      "Dispatched actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalog",
			Name:      "items",
			Help:      "Items in the current snapshot.",
		}),
		pendingReviews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalog",
			Name:      "pending_reviews",
			Help:      "Reviews awaiting moderation.",
		}),
	}
	reg.MustRegister(m.actions, m.items, m.pendingReviews)
	return m
}

// Observe is a store subscriber.
func (m *Metrics) Observe(_ context.Context, c Change) {
	outcome := "noop"
	if c.Changed() {
		outcome = "applied"
	}
	m.actions.WithLabelValues(c.Action.Kind(), outcome).Inc()
	m.Set(c.Next)
}

func (m *Metrics) Set(s domain.Snapshot) {
	m.items.Set(float64(len(s.Items)))
	m.pendingReviews.Set(float64(len(s.ReviewsFor("", domain.ReviewPending))))
}
