package ledger_test

import (
	"testing"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/ledger"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	tx      string
	address string
	effect  string
	kind    spec.EventKind
	indexed string
}

func rows(events []spec.Event) []row {
	out := make([]row, 0, len(events))
	for _, e := range events {
		r := row{address: e.Address, effect: e.Effect.String(), kind: e.Extra}
		if e.Transaction != nil {
			r.tx = *e.Transaction
		}
		if e.ExtraIndexed != nil {
			r.indexed = *e.ExtraIndexed
		}
		out = append(out, r)
	}
	return out
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func samplePicture() *ledger.Picture {
	valIdx := phase0.ValidatorIndex(77)
	return &ledger.Picture{
		Identity:  spec.BlockIdentity{ID: 10, Granularity: spec.EpochGranularity},
		BlockTime: time.Unix(1_700_000_000, 0),
		AttesterSlashings: []spec.SlashingRecord{{
			Proposer: 5, Slot: 321, Reason: spec.SlashingReasonAttesterSlashing, Reward: d("100"),
			Slashed: []spec.SlashedValidator{{ValidatorIndex: 8, Penalty: d("1000")}, {ValidatorIndex: 9, Penalty: d("1000")}},
		}},
		ProposerSlashings: []spec.SlashingRecord{{
			Proposer: 6, Slot: 322, Reason: spec.SlashingReasonProposerSlashing, Reward: d("50"),
			Slashed: []spec.SlashedValidator{{ValidatorIndex: 11, Penalty: d("500")}},
		}},
		Withdrawals: []spec.WithdrawalRecord{
			{Slot: 323, Index: 1, ValidatorIndex: 12, Address: "0xabc", Amount: d("7")},
		},
		Deposits: []spec.DepositRecord{
			{Slot: 324, Pubkey: "0xkey1", ValidatorIndex: &valIdx, WithdrawalCredentials: "0xcred1", Amount: d("32")},
			{Slot: 324, Pubkey: "0xkey2", WithdrawalCredentials: "0xcred2", Amount: d("1")},
		},
		Proposers: []spec.ProposerRecord{
			{Duty: spec.ProposerDuty{Slot: 320, ValidatorIndex: 3}, Reward: d("40")},
			{Duty: spec.ProposerDuty{Slot: 321, ValidatorIndex: 4}, Missed: true, Reward: d("99")},
		},
		Rewards: []spec.ValidatorRewardRecord{
			{ValidatorIndex: 20, Total: d("15")},
			{ValidatorIndex: 21, Total: d("-4")},
			{ValidatorIndex: 22, Total: decimal.Zero},
		},
	}
}

func TestEmitOrder(t *testing.T) {
	events, err := ledger.Emit(samplePicture())
	require.NoError(t, err)

	expected := []row{
		{"321", spec.TheVoid, "-100", spec.AttesterSlashingReward, "8,9"},
		{"321", "5", "100", spec.AttesterSlashingReward, "8,9"},
		{"321", "8", "-1000", spec.AttesterSlashingPenalty, ""},
		{"321", spec.TheVoid, "1000", spec.AttesterSlashingPenalty, ""},
		{"321", "9", "-1000", spec.AttesterSlashingPenalty, ""},
		{"321", spec.TheVoid, "1000", spec.AttesterSlashingPenalty, ""},
		{"322", spec.TheVoid, "-50", spec.ProposerSlashingReward, "11"},
		{"322", "6", "50", spec.ProposerSlashingReward, "11"},
		{"322", "11", "-500", spec.ProposerSlashingPenalty, ""},
		{"322", spec.TheVoid, "500", spec.ProposerSlashingPenalty, ""},
		{"323", spec.TheVoid, "-7", spec.Withdrawal, "0xabc"},
		{"323", "12", "7", spec.Withdrawal, "0xabc"},
		{"324", "77", "-32", spec.Deposit, "0xcred1"},
		{"324", spec.TheVoid, "32", spec.Deposit, "0xcred1"},
		{"324", "0xkey2", "-1", spec.Deposit, "0xcred2"},
		{"324", spec.TheVoid, "1", spec.Deposit, "0xcred2"},
		{"320", spec.TheVoid, "-40", spec.ProposerReward, ""},
		{"320", "3", "40", spec.ProposerReward, ""},
		{"321", spec.TheVoid, "0", spec.OrphanedBlock, ""},
		{"321", "4", "0", spec.OrphanedBlock, ""},
		{"", spec.TheVoid, "-15", spec.AttestationReward, ""},
		{"", "20", "15", spec.AttestationReward, ""},
		{"", "21", "-4", spec.AttestationReward, ""},
		{"", spec.TheVoid, "4", spec.AttestationReward, ""},
		{"", spec.TheVoid, "0", spec.AttestationReward, ""},
		{"", "22", "0", spec.AttestationReward, ""},
	}
	assert.Equal(t, expected, rows(events))

	for i, e := range events {
		assert.Equal(t, uint64(i), e.SortKey)
		assert.Equal(t, uint64(10), e.Block)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), e.Time)
		assert.False(t, e.Failed)
	}
	assert.True(t, spec.Sum(events).IsZero())
}

func TestEmitPairsSumToZero(t *testing.T) {
	events, err := ledger.Emit(samplePicture())
	require.NoError(t, err)
	require.Zero(t, len(events)%2)
	for i := 0; i < len(events); i += 2 {
		assert.True(t, events[i].Effect.Add(events[i+1].Effect).IsZero(), "pair at %d", i)
		assert.Equal(t, events[i].Extra, events[i+1].Extra)
	}
}

func TestEmitEmptyPicture(t *testing.T) {
	events, err := ledger.Emit(&ledger.Picture{Identity: spec.BlockIdentity{ID: 1}})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = ledger.Emit(nil)
	require.Error(t, err)
}

func TestCheckBalanced(t *testing.T) {
	events := []spec.Event{
		{Address: "1", Effect: d("10")},
		{Address: spec.TheVoid, Effect: d("-9")},
	}
	err := ledger.CheckBalanced(4, events)
	var unbalanced *ledger.UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, "1", unbalanced.Sum.String())
	assert.Equal(t, "events of block 4 add up to 1", err.Error())

	events[1].Effect = d("-10")
	assert.NoError(t, ledger.CheckBalanced(4, events))
}
