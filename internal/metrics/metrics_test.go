package metrics

import (
	"testing"

	"fairdraw/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransition(models.StateOpen)
	m.ObserveDeposit(5, 5)
	m.ObserveDeposit(7, 12)
	require.Equal(t, 2.0, testutil.ToFloat64(m.Deposits))
	require.Equal(t, 12.0, testutil.ToFloat64(m.DepositWeight))
	require.Equal(t, 12.0, testutil.ToFloat64(m.OpenRoundWeight))

	m.ObserveTransition(models.StateClosed)
	require.Equal(t, 0.0, testutil.ToFloat64(m.OpenRoundWeight))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("closed")))

	m.ObserveFairnessFailure()
	require.Equal(t, 1.0, testutil.ToFloat64(m.FairnessFailures))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 6, count) // transitions carries two label values
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveDeposit(1, 1)
		m.ObserveTransition(models.StateDrawn)
		m.ObserveFairnessFailure()
	})
}
