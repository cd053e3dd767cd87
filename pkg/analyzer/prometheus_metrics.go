package analyzer

import (
	"strings"
	"sync"
	"time"

	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	modName    = "analyzer"
	modDetails = "general metrics about the processed blocks"

	BlocksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: strings.ToLower(utils.CliName),
		Subsystem: modName,
		Name:      "blocks_processed_total",
		Help:      "Number of slots or epochs turned into events, by module",
	}, []string{"module"})
	EventsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: strings.ToLower(utils.CliName),
		Subsystem: modName,
		Name:      "events_emitted_total",
		Help:      "Number of ledger events written, by event kind",
	}, []string{"kind"})
	LastBlock = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: strings.ToLower(utils.CliName),
		Subsystem: modName,
		Name:      "last_block",
		Help:      "Id of the last processed slot or epoch",
	})
	BlockDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: strings.ToLower(utils.CliName),
		Subsystem: modName,
		Name:      "block_duration_seconds",
		Help:      "Time spent processing one slot or epoch",
		Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 900, 1800},
	})
	StageSeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: strings.ToLower(utils.CliName),
		Subsystem: modName,
		Name:      "stage_seconds",
		Help:      "Accumulated time spent in each assembly stage",
	}, []string{"stage"})
)

// processedStats keeps the counters shown in the logs next to the exported
// ones.
type processedStats struct {
	m         sync.Mutex
	blocks    uint64
	events    uint64
	lastBlock uint64
}

func (s *processedStats) record(module string, block *ProcessedBlock, took time.Duration) {
	BlocksProcessed.WithLabelValues(module).Inc()
	for _, e := range block.Events {
		EventsEmitted.WithLabelValues(string(e.Extra)).Inc()
	}
	LastBlock.Set(float64(block.Identity.ID))
	BlockDuration.Observe(took.Seconds())

	s.m.Lock()
	defer s.m.Unlock()
	s.blocks++
	s.events += uint64(len(block.Events))
	s.lastBlock = block.Identity.ID
}

func (s *processedStats) snapshot() map[string]uint64 {
	s.m.Lock()
	defer s.m.Unlock()
	return map[string]uint64{
		"blocks":     s.blocks,
		"events":     s.events,
		"last_block": s.lastBlock,
	}
}

func (c *ChainAnalyzer) GetPrometheusMetrics() *metrics.MetricsModule {
	metricsMod := metrics.NewMetricsModule(
		modName,
		modDetails,
	)
	for _, m := range []*metrics.IndvMetrics{c.getProcessedMetrics(), c.getStageMetrics()} {
		if m == nil {
			continue
		}
		if err := metricsMod.AddIndvMetric(m); err != nil {
			log.Error(errors.Wrap(err, "unable to compose analyzer metrics"))
		}
	}
	return metricsMod
}

func (c *ChainAnalyzer) getProcessedMetrics() *metrics.IndvMetrics {
	initFn := func(reg prometheus.Registerer) error {
		for _, col := range []prometheus.Collector{BlocksProcessed, EventsEmitted, LastBlock, BlockDuration} {
			if err := reg.Register(col); err != nil {
				return err
			}
		}
		return nil
	}

	updateFn := func() (interface{}, error) {
		return c.stats.snapshot(), nil
	}

	indvMetr, err := metrics.NewIndvMetrics(
		"processed_blocks",
		initFn,
		updateFn,
	)
	if err != nil {
		log.Error(errors.Wrap(err, "unable to init processed_blocks"))
		return nil
	}
	return indvMetr
}

func (c *ChainAnalyzer) getStageMetrics() *metrics.IndvMetrics {
	initFn := func(reg prometheus.Registerer) error {
		return reg.Register(StageSeconds)
	}

	updateFn := func() (interface{}, error) {
		monitor := c.assembler.Monitor()
		for _, stage := range monitor.Stages() {
			StageSeconds.WithLabelValues(stage).Set(monitor.Stage(stage).Seconds())
		}
		return monitor.Total(), nil
	}

	indvMetr, err := metrics.NewIndvMetrics(
		"assembly_stages",
		initFn,
		updateFn,
	)
	if err != nil {
		log.Error(errors.Wrap(err, "unable to init assembly_stages"))
		return nil
	}
	return indvMetr
}
