package ledger

import (
	"fmt"
	"time"

	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	moduleName = "ledger"
	log        = logrus.WithField(
		"module", moduleName)
)

// Picture is everything the pipeline learnt about one slot or epoch that
// moves balances.
type Picture struct {
	Identity  spec.BlockIdentity
	BlockTime time.Time

	AttesterSlashings []spec.SlashingRecord
	ProposerSlashings []spec.SlashingRecord
	Withdrawals       []spec.WithdrawalRecord
	Deposits          []spec.DepositRecord
	Proposers         []spec.ProposerRecord
	Rewards           []spec.ValidatorRewardRecord
}

// UnbalancedError is returned when a set of events does not add up to zero.
type UnbalancedError struct {
	Block uint64
	Sum   decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("events of block %d add up to %s", e.Block, e.Sum)
}

// CheckBalanced verifies that the effects of the events cancel out.
func CheckBalanced(block uint64, events []spec.Event) error {
	if sum := spec.Sum(events); !sum.IsZero() {
		return &UnbalancedError{Block: block, Sum: sum}
	}
	return nil
}

type builder struct {
	block  uint64
	time   time.Time
	events []spec.Event
}

func (b *builder) add(tx *string, address string, effect decimal.Decimal, kind spec.EventKind, extraIndexed *string) {
	b.events = append(b.events, spec.Event{
		Block:        b.block,
		Transaction:  tx,
		SortKey:      uint64(len(b.events)),
		Time:         b.time,
		Address:      address,
		Effect:       effect,
		Extra:        kind,
		ExtraIndexed: extraIndexed,
	})
}

// pair moves amount from debited to credited.
func (b *builder) pair(tx *string, debited, credited string, amount decimal.Decimal, kind spec.EventKind, extraIndexed *string) {
	b.add(tx, debited, amount.Neg(), kind, extraIndexed)
	b.add(tx, credited, amount, kind, extraIndexed)
}

func (b *builder) slashings(records []spec.SlashingRecord, reward, penalty spec.EventKind) {
	for _, rec := range records {
		tx := spec.StrPtr(spec.FormatSlot(rec.Slot))
		slashed := spec.StrPtr(spec.FormatValidators(rec.SlashedIndexes()))
		b.pair(tx, spec.TheVoid, spec.FormatValidator(rec.Proposer), rec.Reward, reward, slashed)
		for _, s := range rec.Slashed {
			b.pair(tx, spec.FormatValidator(s.ValidatorIndex), spec.TheVoid, s.Penalty, penalty, nil)
		}
	}
}

// Emit turns the picture into the ordered list of balanced events: attester
// slashings, proposer slashings, withdrawals, deposits, proposer rewards and
// finally the aggregated attestation and sync committee rewards.
func Emit(p *Picture) ([]spec.Event, error) {
	if p == nil {
		return nil, errors.New("nothing to emit")
	}
	b := &builder{
		block:  p.Identity.ID,
		time:   p.BlockTime.UTC(),
		events: make([]spec.Event, 0),
	}

	b.slashings(p.AttesterSlashings, spec.AttesterSlashingReward, spec.AttesterSlashingPenalty)
	b.slashings(p.ProposerSlashings, spec.ProposerSlashingReward, spec.ProposerSlashingPenalty)

	for _, w := range p.Withdrawals {
		tx := spec.StrPtr(spec.FormatSlot(w.Slot))
		b.pair(tx, spec.TheVoid, spec.FormatValidator(w.ValidatorIndex), w.Amount, spec.Withdrawal, spec.StrPtr(w.Address))
	}

	for _, d := range p.Deposits {
		tx := spec.StrPtr(spec.FormatSlot(d.Slot))
		b.pair(tx, d.Address(), spec.TheVoid, d.Amount, spec.Deposit, spec.StrPtr(d.WithdrawalCredentials))
	}

	for _, rec := range p.Proposers {
		kind := spec.ProposerReward
		effect := rec.Reward
		if rec.Missed {
			kind = spec.OrphanedBlock
			effect = decimal.Zero
		}
		tx := spec.StrPtr(spec.FormatSlot(rec.Duty.Slot))
		b.pair(tx, spec.TheVoid, spec.FormatValidator(rec.Duty.ValidatorIndex), effect, kind, nil)
	}

	// the negative entry of each pair goes first, the-void when the total is zero
	for _, rec := range p.Rewards {
		validator := spec.FormatValidator(rec.ValidatorIndex)
		if rec.Total.IsNegative() {
			b.pair(nil, validator, spec.TheVoid, rec.Total.Neg(), spec.AttestationReward, nil)
		} else {
			b.pair(nil, spec.TheVoid, validator, rec.Total, spec.AttestationReward, nil)
		}
	}

	if err := CheckBalanced(b.block, b.events); err != nil {
		return nil, err
	}
	log.Debugf("emitted %d events for %s %d", len(b.events), p.Identity.Granularity, p.Identity.ID)
	return b.events, nil
}
