package analyzer

import (
	"context"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/ledger"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const WithdrawalsModuleName = "beacon-withdrawals"

// WithdrawalsModule works slot by slot and only emits the withdrawals of the
// block.
type WithdrawalsModule struct {
	deps ModuleDeps
}

func NewWithdrawalsModule(deps ModuleDeps) (ChainModule, error) {
	if deps.Client == nil || deps.Consensus == nil || deps.Assembler == nil {
		return nil, errors.New("withdrawals module needs a client, a consensus validator and an assembler")
	}
	return &WithdrawalsModule{deps: deps}, nil
}

func (m *WithdrawalsModule) Name() string {
	return WithdrawalsModuleName
}

func (m *WithdrawalsModule) InquireLatestBlock(ctx context.Context) (uint64, error) {
	slot, err := headSlot(ctx, m.deps.Client)
	if err != nil {
		return 0, err
	}
	return uint64(slot), nil
}

func (m *WithdrawalsModule) EnsureBlock(ctx context.Context, id uint64) (spec.BlockIdentity, error) {
	return m.deps.Consensus.EnsureSlot(ctx, phase0.Slot(id))
}

func (m *WithdrawalsModule) PreProcessBlock(ctx context.Context, id spec.BlockIdentity) (*ProcessedBlock, error) {
	if id.Granularity != spec.SlotGranularity {
		return nil, errors.Errorf("withdrawals module can not process a %s", id.Granularity)
	}
	slot := phase0.Slot(id.ID)
	picture := &ledger.Picture{Identity: id}

	// slots agreed empty have nothing to fetch
	if !id.Empty() {
		block, err := m.deps.Client.Block(ctx, id.Hash)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to fetch block %s of slot %d", id.Hash, slot)
		}
		if block == nil {
			return nil, consensus.Disagreement(id, "block %s agreed for slot %d is gone", id.Hash, slot)
		}
		picture.Withdrawals = withdrawalRecords(slot, block)
		if ts, ok := block.Timestamp(); ok {
			picture.BlockTime = time.Unix(int64(ts), 0).UTC()
		}
	}
	if picture.BlockTime.IsZero() {
		genesis, err := m.deps.Assembler.genesisTime(ctx)
		if err != nil {
			return nil, err
		}
		picture.BlockTime = spec.SlotTime(genesis, slot)
	}

	events, err := ledger.Emit(picture)
	if err != nil {
		return nil, err
	}
	return &ProcessedBlock{
		Identity: id,
		Time:     picture.BlockTime,
		Events:   events,
	}, nil
}

func (m *WithdrawalsModule) APIGetBalance(ctx context.Context, valIdx phase0.ValidatorIndex) (decimal.Decimal, error) {
	return apiGetBalance(ctx, m.deps.Client, valIdx)
}
