package analyzer

import (
	"context"
	"sync"
	"time"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/ledger"
	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Stages of the epoch assembly, in execution order.
const (
	StageDuties       = "duties"
	StageBlocks       = "blocks"
	StageBlockRewards = "block_rewards"
	StageSlashings    = "slashings"
	StageDeposits     = "deposits"
	StageAttestations = "attestations"
)

// EpochAssembler gathers everything that moved balances during one epoch.
// Every stage fans its requests out, waits for all of them and merges the
// answers before the next stage starts.
type EpochAssembler struct {
	cli   *clientapi.APIClient
	forks spec.ForkSchedule

	workers            int
	attestationTimeout time.Duration

	genesisMu sync.Mutex
	genesis   *time.Time

	cache   *EpochCache
	monitor *metrics.Monitor
}

type AssemblerOption func(*EpochAssembler) error

func NewEpochAssembler(cli *clientapi.APIClient, options ...AssemblerOption) (*EpochAssembler, error) {
	if cli == nil {
		return nil, errors.New("epoch assembler needs an api client")
	}
	a := &EpochAssembler{
		cli:                cli,
		forks:              spec.MainnetForkSchedule,
		workers:            DefaultWorkers,
		attestationTimeout: DefaultAttestationRewardsTimeout,
		cache:              NewEpochCache(),
		monitor:            metrics.NewMonitor(),
	}
	for _, o := range options {
		if err := o(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func WithForkSchedule(forks spec.ForkSchedule) AssemblerOption {
	return func(a *EpochAssembler) error {
		a.forks = forks
		return nil
	}
}

func WithRequestWorkers(workers int) AssemblerOption {
	return func(a *EpochAssembler) error {
		if workers <= 0 {
			return errors.Errorf("invalid number of request workers %d", workers)
		}
		a.workers = workers
		return nil
	}
}

func WithAttestationRewardsTimeout(timeout time.Duration) AssemblerOption {
	return func(a *EpochAssembler) error {
		if timeout <= 0 {
			return errors.Errorf("invalid attestation rewards timeout %s", timeout)
		}
		a.attestationTimeout = timeout
		return nil
	}
}

// WithGenesisTime skips the genesis request.
func WithGenesisTime(genesis time.Time) AssemblerOption {
	return func(a *EpochAssembler) error {
		g := genesis.UTC()
		a.genesis = &g
		return nil
	}
}

func (a *EpochAssembler) Monitor() *metrics.Monitor {
	return a.monitor
}

func (a *EpochAssembler) Cache() *EpochCache {
	return a.cache
}

// epochData holds the raw answers of the nodes for one epoch.
type epochData struct {
	identity spec.BlockIdentity
	epoch    phase0.Epoch

	duties       []spec.ProposerDuty
	blocks       map[phase0.Slot]*clientapi.BlockData
	blockRewards map[phase0.Slot]*apiv1.BlockRewards
	syncRewards  map[phase0.Slot][]*apiv1.SyncCommitteeReward
}

func newEpochData(id spec.BlockIdentity) *epochData {
	return &epochData{
		identity:     id,
		epoch:        phase0.Epoch(id.ID),
		blocks:       make(map[phase0.Slot]*clientapi.BlockData),
		blockRewards: make(map[phase0.Slot]*apiv1.BlockRewards),
		syncRewards:  make(map[phase0.Slot][]*apiv1.SyncCommitteeReward),
	}
}

// proposed returns the duty slots that got a block, in slot order.
func (d *epochData) proposed() []phase0.Slot {
	slots := make([]phase0.Slot, 0, len(d.duties))
	for _, duty := range d.duties {
		if d.blocks[duty.Slot] != nil {
			slots = append(slots, duty.Slot)
		}
	}
	return slots
}

// Assemble builds the picture of the epoch agreed in id. Any error aborts the
// whole epoch.
func (a *EpochAssembler) Assemble(ctx context.Context, id spec.BlockIdentity) (*ledger.Picture, error) {
	if id.Granularity != spec.EpochGranularity {
		return nil, errors.Errorf("epoch assembler can not process a %s", id.Granularity)
	}
	epoch := phase0.Epoch(id.ID)
	if picture, ok := a.cache.Get(epoch, id.Hash); ok {
		log.Debugf("epoch %d served from cache", epoch)
		return picture, nil
	}

	start := time.Now()
	data := newEpochData(id)

	if err := a.fetchDuties(ctx, data); err != nil {
		return nil, errors.Wrapf(err, "unable to fetch proposer duties of epoch %d", epoch)
	}
	if err := a.fetchBlocks(ctx, data); err != nil {
		return nil, errors.Wrapf(err, "unable to fetch blocks of epoch %d", epoch)
	}
	if err := a.fetchBlockRewards(ctx, data); err != nil {
		return nil, errors.Wrapf(err, "unable to fetch block rewards of epoch %d", epoch)
	}
	attesterSlashings, proposerSlashings, err := a.resolveSlashings(ctx, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve slashings of epoch %d", epoch)
	}
	deposits, err := a.resolveDeposits(ctx, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve deposits of epoch %d", epoch)
	}
	attestations, err := a.fetchAttestationRewards(ctx, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch attestation rewards of epoch %d", epoch)
	}
	blockTime, err := a.blockTime(ctx, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compute block time of epoch %d", epoch)
	}

	picture := &ledger.Picture{
		Identity:          id,
		BlockTime:         blockTime,
		AttesterSlashings: attesterSlashings,
		ProposerSlashings: proposerSlashings,
		Withdrawals:       make([]spec.WithdrawalRecord, 0),
		Deposits:          deposits,
		Proposers:         proposerRecords(data, attesterSlashings, proposerSlashings),
	}
	for _, slot := range data.proposed() {
		picture.Withdrawals = append(picture.Withdrawals, withdrawalRecords(slot, data.blocks[slot])...)
	}

	acc := spec.NewRewardAccumulator()
	for _, slot := range data.proposed() {
		for _, r := range data.syncRewards[slot] {
			if r != nil {
				acc.Add(r.ValidatorIndex, spec.SignedGweiAmount(r.Reward))
			}
		}
	}
	for _, r := range attestations {
		acc.Add(r.ValidatorIndex, r.Total)
	}
	picture.Rewards = acc.Records()

	a.cache.Add(epoch, picture)
	log.Infof("epoch %d assembled in %s: %d duties, %d proposed, %d validators rewarded",
		epoch, time.Since(start), len(data.duties), len(data.proposed()), acc.Len())
	return picture, nil
}

// proposerRecords keeps one record per duty. The slashing rewards emitted on
// their own are taken out of the block total. A block without reward
// breakdown is proposed but earns nothing.
func proposerRecords(data *epochData, slashings ...[]spec.SlashingRecord) []spec.ProposerRecord {
	emitted := make(map[phase0.Slot][]spec.SlashingRecord)
	for _, records := range slashings {
		for _, rec := range records {
			emitted[rec.Slot] = append(emitted[rec.Slot], rec)
		}
	}

	out := make([]spec.ProposerRecord, 0, len(data.duties))
	for _, duty := range data.duties {
		rec := spec.ProposerRecord{Duty: duty}
		if data.blocks[duty.Slot] == nil {
			rec.Missed = true
			out = append(out, rec)
			continue
		}
		rewards := data.blockRewards[duty.Slot]
		if rewards == nil {
			rec.Reward = decimal.Zero
			out = append(out, rec)
			continue
		}
		rec.Reward = spec.GweiAmount(rewards.Total)
		for _, s := range emitted[duty.Slot] {
			rec.Reward = rec.Reward.Sub(s.Reward)
		}
		out = append(out, rec)
	}
	return out
}

func withdrawalRecords(slot phase0.Slot, block *clientapi.BlockData) []spec.WithdrawalRecord {
	payload := block.Message.Body.ExecutionPayload
	if payload == nil {
		return nil
	}
	out := make([]spec.WithdrawalRecord, 0, len(payload.Withdrawals))
	for _, w := range payload.Withdrawals {
		out = append(out, spec.WithdrawalRecord{
			Slot:           slot,
			Index:          uint64(w.Index),
			ValidatorIndex: w.ValidatorIndex,
			Address:        hexutil.Encode(w.Address[:]),
			Amount:         spec.GweiAmount(w.Amount),
		})
	}
	return out
}

// blockTime is the execution timestamp of the last proposed block of the
// epoch, or its slot time before the merge.
func (a *EpochAssembler) blockTime(ctx context.Context, data *epochData) (time.Time, error) {
	slot := spec.LastSlotInEpoch(data.epoch)
	var block *clientapi.BlockData
	if proposed := data.proposed(); len(proposed) > 0 {
		slot = proposed[len(proposed)-1]
		block = data.blocks[slot]
	}
	if block != nil {
		if ts, ok := block.Timestamp(); ok {
			return time.Unix(int64(ts), 0).UTC(), nil
		}
	}
	genesis, err := a.genesisTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return spec.SlotTime(genesis, slot), nil
}

func (a *EpochAssembler) genesisTime(ctx context.Context) (time.Time, error) {
	a.genesisMu.Lock()
	defer a.genesisMu.Unlock()
	if a.genesis != nil {
		return *a.genesis, nil
	}
	genesis, err := a.cli.GenesisTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	a.genesis = &genesis
	return genesis, nil
}
