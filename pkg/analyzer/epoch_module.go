package analyzer

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/ledger"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const EpochRewardsModuleName = "beacon-main"

// EpochRewardsModule emits every balance change of an epoch: slashings,
// withdrawals, deposits, proposer rewards and attestation plus sync committee
// rewards.
type EpochRewardsModule struct {
	deps ModuleDeps
}

func NewEpochRewardsModule(deps ModuleDeps) (ChainModule, error) {
	if deps.Client == nil || deps.Consensus == nil || deps.Assembler == nil {
		return nil, errors.New("epoch rewards module needs a client, a consensus validator and an assembler")
	}
	return &EpochRewardsModule{deps: deps}, nil
}

func (m *EpochRewardsModule) Name() string {
	return EpochRewardsModuleName
}

// InquireLatestBlock stays HeadEpochMargin epochs behind the head.
func (m *EpochRewardsModule) InquireLatestBlock(ctx context.Context) (uint64, error) {
	slot, err := headSlot(ctx, m.deps.Client)
	if err != nil {
		return 0, err
	}
	epoch := uint64(spec.EpochAtSlot(slot))
	if epoch < utils.HeadEpochMargin {
		return 0, errors.Errorf("head epoch %d too close to genesis", epoch)
	}
	return epoch - utils.HeadEpochMargin, nil
}

func (m *EpochRewardsModule) EnsureBlock(ctx context.Context, id uint64) (spec.BlockIdentity, error) {
	return m.deps.Consensus.EnsureEpoch(ctx, phase0.Epoch(id))
}

func (m *EpochRewardsModule) PreProcessBlock(ctx context.Context, id spec.BlockIdentity) (*ProcessedBlock, error) {
	picture, err := m.deps.Assembler.Assemble(ctx, id)
	if err != nil {
		return nil, err
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

func (m *EpochRewardsModule) APIGetBalance(ctx context.Context, valIdx phase0.ValidatorIndex) (decimal.Decimal, error) {
	return apiGetBalance(ctx, m.deps.Client, valIdx)
}
