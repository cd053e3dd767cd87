package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField(
		"module", "prometheus",
	)

	DefaultRefreshInterval = 15 * time.Second
)

// PrometheusMetrics serves every registered module under /metrics.
type PrometheusMetrics struct {
	ctx context.Context

	host            string
	port            int
	refreshInterval time.Duration

	registry *prometheus.Registry
	server   *http.Server

	m       sync.Mutex
	modules []*MetricsModule
	started bool
}

func NewPrometheusMetrics(ctx context.Context, host string, port int) *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		ctx:             ctx,
		host:            host,
		port:            port,
		refreshInterval: DefaultRefreshInterval,
		registry:        reg,
		modules:         make([]*MetricsModule, 0),
	}
}

func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// AddMetricsModule registers the collectors of the module right away, so
// values recorded before Start are not lost.
func (p *PrometheusMetrics) AddMetricsModule(mod *MetricsModule) error {
	if mod == nil {
		return errors.New("nil metrics module")
	}
	for _, m := range mod.IndvMetrics() {
		if err := m.Init(p.registry); err != nil {
			return errors.Wrapf(err, "unable to init metric %s of module %s", m.Name(), mod.Name())
		}
	}
	p.m.Lock()
	p.modules = append(p.modules, mod)
	p.m.Unlock()
	log.Debugf("metrics module %s registered (%s)", mod.Name(), mod.Details())
	return nil
}

// Start exposes the registry over http and refreshes the modules
// periodically. A zero port disables the exporter.
func (p *PrometheusMetrics) Start() {
	p.m.Lock()
	defer p.m.Unlock()
	if p.started || p.port == 0 {
		return
	}
	p.started = true

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry}))
	p.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", p.host, p.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("serving prometheus metrics at %s/metrics", p.server.Addr)
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("prometheus server stopped: %s", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(p.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Update()
			case <-p.ctx.Done():
				p.Close()
				return
			}
		}
	}()
}

// Update refreshes every metric of every module.
func (p *PrometheusMetrics) Update() {
	p.m.Lock()
	modules := make([]*MetricsModule, len(p.modules))
	copy(modules, p.modules)
	p.m.Unlock()

	for _, mod := range modules {
		for _, m := range mod.IndvMetrics() {
			value, err := m.Update()
			if err != nil {
				log.Warnf("unable to update metric %s: %s", m.Name(), err)
				continue
			}
			log.Tracef("%s/%s: %v", mod.Name(), m.Name(), value)
		}
	}
}

func (p *PrometheusMetrics) Close() {
	p.m.Lock()
	defer p.m.Unlock()
	if p.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		log.Warnf("unable to shutdown prometheus server: %s", err)
	}
	p.server = nil
}
