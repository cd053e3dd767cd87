package clientapi

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	clientAPIMetricsName    = "clientapi"
	clientAPIMetricsDetails = "metrics about beacon node requests"
)

var (
	nodeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: strings.ToLower(utils.CliName),
			Subsystem: clientAPIMetricsName,
			Name:      "requests_total",
			Help:      "Total number of beacon node requests by endpoint and status code (0 for transport errors).",
		},
		[]string{"endpoint", "code"},
	)

	nodeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: strings.ToLower(utils.CliName),
			Subsystem: clientAPIMetricsName,
			Name:      "request_duration_seconds",
			Help:      "Duration of beacon node requests by endpoint.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120},
		},
		[]string{"endpoint"},
	)
)

type requestMetrics struct {
	mu     sync.Mutex
	totals map[string]int64
	failed int64
}

func newRequestMetrics() *requestMetrics {
	return &requestMetrics{
		totals: make(map[string]int64),
	}
}

func (m *requestMetrics) observe(endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "other"
	}
	nodeRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	nodeRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[endpoint]++
	if code == 0 || code >= 500 {
		m.failed++
	}
}

func (m *requestMetrics) snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.totals)+1)
	for endpoint, total := range m.totals {
		out[endpoint] = total
	}
	out["failed"] = m.failed
	return out
}

func (m *requestMetrics) getPrometheusMetrics() *metrics.MetricsModule {
	mod := metrics.NewMetricsModule(
		clientAPIMetricsName,
		clientAPIMetricsDetails,
	)

	initFn := func(reg prometheus.Registerer) error {
		if err := reg.Register(nodeRequests); err != nil {
			return err
		}
		return reg.Register(nodeRequestDuration)
	}

	updateFn := func() (interface{}, error) {
		return m.snapshot(), nil
	}

	indvMetrics, err := metrics.NewIndvMetrics(
		"node_requests",
		initFn,
		updateFn,
	)
	if err != nil {
		log.Error(errors.Wrap(err, "unable to init node_requests metrics"))
		return nil
	}

	if err := mod.AddIndvMetric(indvMetrics); err != nil {
		log.Error(errors.Wrap(err, "unable to register node request metrics module"))
		return nil
	}

	return mod
}
