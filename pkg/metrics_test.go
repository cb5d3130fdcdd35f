package leptons

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.eventProcessed()
		m.eventFailed()
		m.candidatesSelected(GoodMuon, 2)
		m.duplicatesSuppressed(1)
		m.observeEvent(0.1)
	})
}

func TestMetricsRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.candidatesSelected(GoodMuon, 2)
	m.duplicatesSuppressed(0)
	m.duplicatesSuppressed(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.selected.WithLabelValues(GoodMuon)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.duplicates))

	count, err := testutil.GatherAndCount(registry,
		"leptons_candidates_selected_total", "leptons_duplicates_suppressed_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
