package spec

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/shopspring/decimal"
)

type Granularity int8

const (
	SlotGranularity Granularity = iota
	EpochGranularity
)

func (g Granularity) String() string {
	if g == EpochGranularity {
		return "epoch"
	}
	return "slot"
}

// BlockIdentity is the canonical id and hash of a slot or an epoch, as agreed
// by the configured nodes. Roots holds the agreed header root of every non
// empty slot; block data is only requested by those roots.
type BlockIdentity struct {
	ID          uint64
	Hash        string
	ParentRoot  string
	Granularity Granularity
	Roots       map[phase0.Slot]string
}

// Root returns the agreed root of slot, false when the nodes agreed the slot
// is empty.
func (id BlockIdentity) Root(slot phase0.Slot) (string, bool) {
	root, ok := id.Roots[slot]
	return root, ok
}

// Empty reports a slot or an epoch without any block.
func (id BlockIdentity) Empty() bool {
	return len(id.Roots) == 0
}

// ProposerDuty is the assignment of a slot to a validator.
type ProposerDuty struct {
	Slot           phase0.Slot
	ValidatorIndex phase0.ValidatorIndex
}

// ProposerRecord tracks the reward of a single proposer duty.
type ProposerRecord struct {
	Duty   ProposerDuty
	Missed bool
	Reward decimal.Decimal
}

// ValidatorRewardRecord is the running epoch total of one validator.
type ValidatorRewardRecord struct {
	ValidatorIndex phase0.ValidatorIndex
	Total          decimal.Decimal
}

// RewardAccumulator keeps per validator totals in first-seen order.
type RewardAccumulator struct {
	order   []phase0.ValidatorIndex
	records map[phase0.ValidatorIndex]*ValidatorRewardRecord
}

func NewRewardAccumulator() *RewardAccumulator {
	return &RewardAccumulator{
		order:   make([]phase0.ValidatorIndex, 0),
		records: make(map[phase0.ValidatorIndex]*ValidatorRewardRecord),
	}
}

// Add accumulates amount for the validator. A zero amount still puts the
// validator in scope.
func (a *RewardAccumulator) Add(valIdx phase0.ValidatorIndex, amount decimal.Decimal) {
	rec, ok := a.records[valIdx]
	if !ok {
		rec = &ValidatorRewardRecord{ValidatorIndex: valIdx, Total: decimal.Zero}
		a.records[valIdx] = rec
		a.order = append(a.order, valIdx)
	}
	rec.Total = rec.Total.Add(amount)
}

func (a *RewardAccumulator) Len() int {
	return len(a.order)
}

// Records returns the totals in the order validators were first seen.
func (a *RewardAccumulator) Records() []ValidatorRewardRecord {
	out := make([]ValidatorRewardRecord, 0, len(a.order))
	for _, valIdx := range a.order {
		out = append(out, *a.records[valIdx])
	}
	return out
}

// WithdrawalRecord is a withdrawal included in an execution payload.
type WithdrawalRecord struct {
	Slot           phase0.Slot
	Index          uint64
	ValidatorIndex phase0.ValidatorIndex
	Address        string
	Amount         decimal.Decimal
}

// DepositRecord is a deposit included in a block body. ValidatorIndex is nil
// when the deposited key has no validator at the inclusion slot.
type DepositRecord struct {
	Slot                  phase0.Slot
	Pubkey                string
	ValidatorIndex        *phase0.ValidatorIndex
	WithdrawalCredentials string
	Amount                decimal.Decimal
}

// Address is the ledger account of the deposit.
func (d DepositRecord) Address() string {
	if d.ValidatorIndex == nil {
		return d.Pubkey
	}
	return FormatValidator(*d.ValidatorIndex)
}
