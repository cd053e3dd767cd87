package analyzer

import (
	"context"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/config"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/ledger"
	prom_metrics "github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ChainAnalyzer wires the node client, the consensus validator and a chain
// module together and writes the events of every processed block to the
// configured output.
type ChainAnalyzer struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Connections
	cli       *clientapi.APIClient // client to request data to the beacon nodes
	validator *consensus.Validator // agreement on block identities
	assembler *EpochAssembler      // epoch level data gathering
	module    ChainModule          // module selected by the user
	sink      ledger.Sink          // destination of the events

	stats       *processedStats
	initTime    time.Time
	PromMetrics *prom_metrics.PrometheusMetrics // metrics to be stored to prometheus
}

func NewChainAnalyzer(
	pCtx context.Context,
	iConfig config.AnalyzerConfig,
	factory ModuleFactory) (*ChainAnalyzer, error) {

	if err := iConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if factory == nil {
		return nil, errors.New("no chain module given")
	}

	// generate new ctx from parent
	ctx, cancel := context.WithCancel(pCtx)

	// generate the central exporting service
	promethMetrics := prom_metrics.NewPrometheusMetrics(ctx, "0.0.0.0", iConfig.PrometheusPort)

	cli, err := clientapi.NewAPIClient(
		iConfig.BnEndpoints,
		clientapi.WithTimeout(iConfig.Timeout),
		clientapi.WithWorkers(iConfig.RequestWorkers),
		clientapi.WithPromMetrics(promethMetrics))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "unable to generate API Client.")
	}

	validator, err := consensus.NewValidator(cli,
		consensus.WithWorkers(iConfig.ConsensusWorkers),
		consensus.WithBreakOnFirst(iConfig.BreakOnFirst),
		consensus.WithPromMetrics(promethMetrics))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "unable to generate consensus validator.")
	}

	assembler, err := NewEpochAssembler(cli,
		WithRequestWorkers(iConfig.RequestWorkers),
		WithAttestationRewardsTimeout(iConfig.AttestationRewardsTimeout))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "unable to generate epoch assembler.")
	}

	module, err := factory(ModuleDeps{
		Client:    cli,
		Consensus: validator,
		Assembler: assembler,
	})
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "unable to generate module %s", iConfig.Module)
	}

	out, err := utils.NewOutput(iConfig.Output, iConfig.Compress)
	if err != nil {
		cancel()
		return nil, err
	}

	analyzer := &ChainAnalyzer{
		ctx:         ctx,
		cancel:      cancel,
		cli:         cli,
		validator:   validator,
		assembler:   assembler,
		module:      module,
		sink:        ledger.NewJSONLinesWriter(out),
		stats:       &processedStats{},
		initTime:    time.Now(),
		PromMetrics: promethMetrics,
	}

	if err := promethMetrics.AddMetricsModule(analyzer.GetPrometheusMetrics()); err != nil {
		log.Warnf("unable to register analyzer metrics: %s", err)
	}
	promethMetrics.Start()

	log.Infof("module %s ready on %d beacon node(s)", module.Name(), len(cli.Nodes()))
	return analyzer, nil
}

func (s *ChainAnalyzer) Module() ChainModule {
	return s.module
}

// ProcessBlock agrees on the identity of the block, builds its events and
// writes them.
func (s *ChainAnalyzer) ProcessBlock(id uint64) (*ProcessedBlock, error) {
	start := time.Now()

	identity, err := s.module.EnsureBlock(s.ctx, id)
	if err != nil {
		return nil, err
	}
	block, err := s.module.PreProcessBlock(s.ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := s.sink.WriteEvents(block.Events); err != nil {
		return nil, err
	}
	took := time.Since(start)
	s.stats.record(s.module.Name(), block, took)

	log.Infof("%s %d processed in %s: %d events, hash %s", identity.Granularity, id, took, len(block.Events), identity.Hash)
	return block, nil
}

// ProcessRange processes the blocks of the range in order and stops at the
// first failure.
func (s *ChainAnalyzer) ProcessRange(r *utils.Range) error {
	return r.Each(func(id uint64) error {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		_, err := s.ProcessBlock(id)
		return errors.Wrapf(err, "block %d", id)
	})
}

func (s *ChainAnalyzer) LatestBlock() (uint64, error) {
	return s.module.InquireLatestBlock(s.ctx)
}

func (s *ChainAnalyzer) Balance(valIdx phase0.ValidatorIndex) (decimal.Decimal, error) {
	return s.module.APIGetBalance(s.ctx, valIdx)
}

func (s *ChainAnalyzer) Close() {
	if err := s.sink.Close(); err != nil {
		log.Errorf("unable to close output: %s", err)
	}
	s.PromMetrics.Close()
	s.cancel()
	log.Infof("analyzer closed after %s", time.Since(s.initTime))
}
