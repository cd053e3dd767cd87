package spec

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/shopspring/decimal"
)

// All amounts are Gwei held in decimals. Divisions truncate like the
// integer arithmetic of the consensus layer.

func quo(amount decimal.Decimal, by uint64) decimal.Decimal {
	q, _ := amount.QuoRem(decimal.NewFromUint64(by), 0)
	return q
}

// SlashingPenalty is the initial penalty applied to a validator slashed in the
// given epoch.
// https://github.com/ethereum/consensus-specs/blob/dev/specs/bellatrix/beacon-chain.md#modified-slash_validator
func (s ForkSchedule) SlashingPenalty(effectiveBalance decimal.Decimal, epoch phase0.Epoch) decimal.Decimal {
	return quo(effectiveBalance, s.SlashingPenaltyQuotient(epoch))
}

// WhistleblowerReward is the total reward created by slashing a validator in
// the given epoch.
// https://github.com/ethereum/consensus-specs/blob/dev/specs/electra/beacon-chain.md#modified-slash_validator
func (s ForkSchedule) WhistleblowerReward(effectiveBalance decimal.Decimal, epoch phase0.Epoch) decimal.Decimal {
	return quo(effectiveBalance, s.WhistleblowerRewardQuotient(epoch))
}

// SlashingRewards splits the whistleblower reward of one slashed validator
// between the including proposer and the whistleblower.
func (s ForkSchedule) SlashingRewards(effectiveBalance decimal.Decimal, epoch phase0.Epoch) (proposer, whistleblower decimal.Decimal) {
	e := s.EntryAt(epoch)
	total := s.WhistleblowerReward(effectiveBalance, epoch)
	proposer = quo(total.Mul(decimal.NewFromUint64(e.ProposerShareNumerator)), e.ProposerShareDenominator)
	return proposer, total.Sub(proposer)
}

// CheckSlashingReward compares the slashing reward reported by a node for a
// block with the one derived from the effective balances of the validators it
// slashed. Blocks carry no whistleblower other than the proposer, so the
// proposer collects both shares. The reported amount stays authoritative.
func (s ForkSchedule) CheckSlashingReward(reported decimal.Decimal, effectiveBalances []decimal.Decimal, epoch phase0.Epoch) bool {
	expected := decimal.Zero
	for _, eb := range effectiveBalances {
		proposer, whistleblower := s.SlashingRewards(eb, epoch)
		expected = expected.Add(proposer).Add(whistleblower)
	}
	if !expected.Equal(reported) {
		log.Warnf("slashing reward mismatch at epoch %d: node reported %s, expected %s", epoch, reported, expected)
		return false
	}
	return true
}

// AttestationTotal sums the head, target and source components of an
// attestation reward.
func AttestationTotal(head, target, source decimal.Decimal) decimal.Decimal {
	return head.Add(target).Add(source)
}

// SlashingPenalty applies the mainnet schedule.
func SlashingPenalty(effectiveBalance decimal.Decimal, epoch phase0.Epoch) decimal.Decimal {
	return MainnetForkSchedule.SlashingPenalty(effectiveBalance, epoch)
}
