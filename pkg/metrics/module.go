package metrics

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// IndvMetrics is a single exported metric: initFn registers its collectors,
// updateFn refreshes them and returns the current value for logging.
type IndvMetrics struct {
	name     string
	initFn   func(prometheus.Registerer) error
	updateFn func() (interface{}, error)
}

func NewIndvMetrics(
	name string,
	initFn func(prometheus.Registerer) error,
	updateFn func() (interface{}, error)) (*IndvMetrics, error) {

	if name == "" {
		return nil, errors.New("metric name can not be empty")
	}
	if initFn == nil {
		return nil, errors.Errorf("metric %s has no init function", name)
	}
	return &IndvMetrics{
		name:     name,
		initFn:   initFn,
		updateFn: updateFn,
	}, nil
}

func (m *IndvMetrics) Name() string {
	return m.name
}

func (m *IndvMetrics) Init(reg prometheus.Registerer) error {
	return m.initFn(reg)
}

func (m *IndvMetrics) Update() (interface{}, error) {
	if m.updateFn == nil {
		return nil, nil
	}
	return m.updateFn()
}

// MetricsModule groups the metrics exported by one component.
type MetricsModule struct {
	m       sync.Mutex
	name    string
	details string
	metrics []*IndvMetrics
}

func NewMetricsModule(name, details string) *MetricsModule {
	return &MetricsModule{
		name:    name,
		details: details,
		metrics: make([]*IndvMetrics, 0),
	}
}

func (mod *MetricsModule) Name() string {
	return mod.name
}

func (mod *MetricsModule) Details() string {
	return mod.details
}

func (mod *MetricsModule) AddIndvMetric(m *IndvMetrics) error {
	if m == nil {
		return errors.Errorf("nil metric added to module %s", mod.name)
	}
	mod.m.Lock()
	defer mod.m.Unlock()
	for _, existing := range mod.metrics {
		if existing.name == m.name {
			return errors.Errorf("metric %s already present in module %s", m.name, mod.name)
		}
	}
	mod.metrics = append(mod.metrics, m)
	return nil
}

func (mod *MetricsModule) IndvMetrics() []*IndvMetrics {
	mod.m.Lock()
	defer mod.m.Unlock()
	out := make([]*IndvMetrics, len(mod.metrics))
	copy(out, mod.metrics)
	return out
}
