package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsModule(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "things_total",
		Help:      "things",
	})
	updates := 0

	indv, err := NewIndvMetrics("things",
		func(reg prometheus.Registerer) error {
			return reg.Register(counter)
		},
		func() (interface{}, error) {
			updates++
			return updates, nil
		})
	require.NoError(t, err)

	mod := NewMetricsModule("test", "test module")
	require.NoError(t, mod.AddIndvMetric(indv))
	require.Error(t, mod.AddIndvMetric(indv), "duplicated metric names are rejected")
	require.Error(t, mod.AddIndvMetric(nil))

	prom := NewPrometheusMetrics(context.Background(), "127.0.0.1", 0)
	require.NoError(t, prom.AddMetricsModule(mod))

	counter.Add(3)
	n, err := testutil.GatherAndCount(prom.Registry(), "test_things_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, float64(3), testutil.ToFloat64(counter))

	prom.Update()
	prom.Update()
	require.Equal(t, 2, updates)

	// port 0 keeps the exporter off
	prom.Start()
	prom.Close()
}

func TestNewIndvMetricsValidation(t *testing.T) {
	_, err := NewIndvMetrics("", func(prometheus.Registerer) error { return nil }, nil)
	require.Error(t, err)
	_, err = NewIndvMetrics("x", nil, nil)
	require.Error(t, err)
}

func TestMonitor(t *testing.T) {
	mon := NewMonitor()
	mon.AddStage("blocks", 3*time.Second)
	mon.AddStage("duties", time.Second)
	mon.AddStage("blocks", 2*time.Second)

	require.Equal(t, []string{"blocks", "duties"}, mon.Stages())
	require.Equal(t, 5*time.Second, mon.Stage("blocks"))
	require.Equal(t, 6*time.Second, mon.Total())

	name, d := mon.Slowest()
	require.Equal(t, "blocks", name)
	require.Equal(t, 5*time.Second, d)

	stop := mon.Track("rewards")
	stop()
	require.Contains(t, mon.Stages(), "rewards")
}
