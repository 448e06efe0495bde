package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.IncrementProfilesCreated()
	m.ObserveFieldChanges([]string{"telefono", "ciudad_residencia", "telefono"})
	m.ObserveRegistration("created")
	m.ObserveRegistration("existing")
	m.ObserveRegistration("existing")
	m.ObserveProfileNotice("dropped")

	assert.Equal(t, 1.0, counterValue(t, reg, "egresados_profiles_created_total", nil))
	assert.Equal(t, 2.0, counterValue(t, reg, "egresados_profile_field_changes_total", map[string]string{"field": "telefono"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "egresados_event_registrations_total", map[string]string{"outcome": "existing"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "egresados_profile_notices_total", map[string]string{"outcome": "dropped"}))
}
