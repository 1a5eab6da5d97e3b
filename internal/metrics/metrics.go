// Package metrics exposes Prometheus collectors for the draw engine.
package metrics

import (
	"fairdraw/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fairdraw"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Deposits         prometheus.Counter
	DepositWeight    prometheus.Counter
	Transitions      *prometheus.CounterVec
	FairnessFailures prometheus.Counter
	OpenRoundWeight  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposits_total",
			Help:      "Number of recorded deposits",
		}),
		DepositWeight: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposit_weight_total",
			Help:      "Sum of recorded deposit weights",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_transitions_total",
			Help:      "Rounds entering each lifecycle state",
		}, []string{"state"}),
		FairnessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fairness_failures_total",
			Help:      "Revealed seeds that did not match their commitment",
		}),
		OpenRoundWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_round_weight",
			Help:      "Total weight of the currently open round",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Deposits, m.DepositWeight, m.Transitions, m.FairnessFailures, m.OpenRoundWeight)
	}
	return m
}

func (m *Metrics) ObserveDeposit(weight, roundTotal uint64) {
	if m == nil {
		return
	}
	m.Deposits.Inc()
	m.DepositWeight.Add(float64(weight))
	m.OpenRoundWeight.Set(float64(roundTotal))
}

func (m *Metrics) ObserveTransition(state models.RoundState) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(state.String()).Inc()
	if state == models.StateOpen || state == models.StateClosed {
		m.OpenRoundWeight.Set(0)
	}
}

func (m *Metrics) ObserveFairnessFailure() {
	if m == nil {
		return
	}
	m.FairnessFailures.Inc()
}
