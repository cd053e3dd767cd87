package spec

import (
	"sort"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/shopspring/decimal"
)

type SlashingReason string

const (
	SlashingReasonProposerSlashing SlashingReason = "ProposerSlashing"
	SlashingReasonAttesterSlashing SlashingReason = "AttesterSlashing"
)

// SlashedValidator is a validator newly slashed by an included report.
type SlashedValidator struct {
	ValidatorIndex phase0.ValidatorIndex
	Penalty        decimal.Decimal
}

// SlashingRecord groups the validators slashed by the reports one proposer
// included, together with the reward the proposer got for them.
type SlashingRecord struct {
	Proposer phase0.ValidatorIndex
	Slot     phase0.Slot
	Reason   SlashingReason
	Reward   decimal.Decimal
	Slashed  []SlashedValidator
}

// Merge appends the validators not yet present in the record. The slot and
// reward of the first report are kept.
func (r *SlashingRecord) Merge(slashed []SlashedValidator) {
	for _, s := range slashed {
		if !r.Contains(s.ValidatorIndex) {
			r.Slashed = append(r.Slashed, s)
		}
	}
}

func (r *SlashingRecord) Contains(valIdx phase0.ValidatorIndex) bool {
	for _, s := range r.Slashed {
		if s.ValidatorIndex == valIdx {
			return true
		}
	}
	return false
}

func (r *SlashingRecord) SlashedIndexes() []phase0.ValidatorIndex {
	out := make([]phase0.ValidatorIndex, 0, len(r.Slashed))
	for _, s := range r.Slashed {
		out = append(out, s.ValidatorIndex)
	}
	return out
}

// SlashingIntersection returns the sorted list of indexes present in both
// attesting sets of an attester slashing.
// https://github.com/ethereum/consensus-specs/blob/dev/specs/phase0/beacon-chain.md#attester-slashings
func SlashingIntersection(set1 []phase0.ValidatorIndex, set2 []phase0.ValidatorIndex) []phase0.ValidatorIndex {
	seen := make(map[phase0.ValidatorIndex]struct{}, len(set1))
	for _, item := range set1 {
		seen[item] = struct{}{}
	}
	res := make([]phase0.ValidatorIndex, 0)
	for _, item := range set2 {
		if _, ok := seen[item]; ok {
			res = append(res, item)
			delete(seen, item)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
