package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Board holds the metrics the loader and submitter report.
// A nil *Board is valid and records nothing.
type Board struct {
	catalogLoads      CounterVec
	catalogActivities Gauge
	signups           CounterVec
}

// NewBoard registers the board metrics with reg. Metric names are prefixed with namespace when
// it is not empty.
func NewBoard(reg Registry, namespace string) (*Board, error) {
	loads, err := reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_loads_total",
		Help:      "Catalog loads by outcome.",
	}, []string{"outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating catalog loads counter: %w", err)
	}

	activities, err := reg.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_activities",
		Help:      "Number of activities in the last successfully loaded catalog.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating catalog activities gauge: %w", err)
	}

	signups, err := reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Signup and unregister submissions by action and outcome.",
	}, []string{"action", "outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating signups counter: %w", err)
	}

	return &Board{
		catalogLoads:      loads,
		catalogActivities: activities,
		signups:           signups,
	}, nil
}

// CatalogLoaded records a successful load of n activities.
func (b *Board) CatalogLoaded(n int) {
	if b == nil {
		return
	}
	b.catalogLoads.With(prometheus.Labels{"outcome": OutcomeSuccess}).Inc()
	b.catalogActivities.Set(float64(n))
}

// CatalogFailed records a failed load.
func (b *Board) CatalogFailed() {
	if b == nil {
		return
	}
	b.catalogLoads.With(prometheus.Labels{"outcome": OutcomeFailed}).Inc()
}

// Submission records the outcome of a participant action such as "signup" or "unregister".
func (b *Board) Submission(action, outcome string) {
	if b == nil {
		return
	}
	b.signups.With(prometheus.Labels{"action": action, "outcome": outcome}).Inc()
}
