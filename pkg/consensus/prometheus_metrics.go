package consensus

import (
	"strings"
	"sync"

	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	consensusMetricsName    = "consensus"
	consensusMetricsDetails = "header agreement checks across beacon nodes"
)

var (
	consensusChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: strings.ToLower(utils.CliName),
			Subsystem: consensusMetricsName,
			Name:      "checks_total",
			Help:      "Number of consensus checks by granularity and outcome.",
		},
		[]string{"granularity", "outcome"},
	)
)

type consensusMetrics struct {
	mu         sync.Mutex
	agreements uint64
	failures   uint64
}

func newConsensusMetrics() *consensusMetrics {
	return &consensusMetrics{}
}

func (m *consensusMetrics) agreed(g spec.Granularity) {
	consensusChecks.WithLabelValues(g.String(), "agreed").Inc()
	m.mu.Lock()
	m.agreements++
	m.mu.Unlock()
}

func (m *consensusMetrics) failed(g spec.Granularity) {
	consensusChecks.WithLabelValues(g.String(), "failed").Inc()
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

func (m *consensusMetrics) snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]uint64{
		"agreed": m.agreements,
		"failed": m.failures,
	}
}

func (m *consensusMetrics) getPrometheusMetrics() *metrics.MetricsModule {
	mod := metrics.NewMetricsModule(
		consensusMetricsName,
		consensusMetricsDetails,
	)

	indvMetrics, err := metrics.NewIndvMetrics(
		"consensus_checks",
		func(reg prometheus.Registerer) error {
			return reg.Register(consensusChecks)
		},
		func() (interface{}, error) {
			return m.snapshot(), nil
		},
	)
	if err != nil {
		log.Error(errors.Wrap(err, "unable to init consensus_checks metrics"))
		return nil
	}
	if err := mod.AddIndvMetric(indvMetrics); err != nil {
		log.Error(errors.Wrap(err, "unable to register consensus metrics module"))
		return nil
	}
	return mod
}
