package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewSimMetrics(reg)
	require.NoError(t, err)

	m.ObserveTick(2*time.Millisecond, false)
	m.ObserveTick(3*time.Millisecond, true)
	m.ObserveCollision(2, 1, 0)
	m.ObserveUpdateFailures(1)
	m.ObserveReaped(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dtClamped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.collisionPushes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collisionSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updateFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reaped))
}

func TestSimMetrics_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewSimMetrics(reg)
	require.NoError(t, err)

	m.SetEntities("animal", 4, 1)
	m.SetPlayer(75, 40)

	expected := `
# HELP wildlands_sim_entities Количество сущностей по виду и состоянию.
# TYPE wildlands_sim_entities gauge
wildlands_sim_entities{kind="animal",status="alive"} 4
wildlands_sim_entities{kind="animal",status="dead"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "wildlands_sim_entities"))
	assert.Equal(t, 75.0, testutil.ToFloat64(m.playerHealth))
}

func TestSimMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSimMetrics(reg)
	require.NoError(t, err)

	_, err = NewSimMetrics(reg)
	assert.Error(t, err)
}

func TestSimMetrics_NilSafe(t *testing.T) {
	var m *SimMetrics
	assert.NotPanics(t, func() {
		m.ObserveTick(time.Millisecond, true)
		m.ObserveCollision(1, 1, 1)
		m.SetEntities("npc", 1, 0)
		m.SetPlayer(1, 1)
	})
}
