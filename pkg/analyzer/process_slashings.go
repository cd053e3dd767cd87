package analyzer

import (
	"context"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/shopspring/decimal"
)

// slashingReport lists the validators a block may have slashed for one
// reason.
type slashingReport struct {
	slot       phase0.Slot
	proposer   phase0.ValidatorIndex
	reason     spec.SlashingReason
	reward     decimal.Decimal
	candidates []phase0.ValidatorIndex
}

type validatorAt struct {
	slot      phase0.Slot
	validator phase0.ValidatorIndex
}

func slashingReports(data *epochData) []slashingReport {
	reports := make([]slashingReport, 0)
	for _, slot := range data.proposed() {
		if slot == 0 {
			continue
		}
		block := data.blocks[slot]
		body := block.Message.Body
		attesterReward, proposerReward := decimal.Zero, decimal.Zero
		if rewards := data.blockRewards[slot]; rewards != nil {
			attesterReward = spec.GweiAmount(rewards.AttesterSlashings)
			proposerReward = spec.GweiAmount(rewards.ProposerSlashings)
		}

		if len(body.AttesterSlashings) > 0 {
			candidates := make([]phase0.ValidatorIndex, 0)
			for _, s := range body.AttesterSlashings {
				candidates = append(candidates, spec.SlashingIntersection(
					validatorIndexes(s.Attestation1.AttestingIndices),
					validatorIndexes(s.Attestation2.AttestingIndices))...)
			}
			reports = append(reports, slashingReport{
				slot:       slot,
				proposer:   block.ProposerIndex(),
				reason:     spec.SlashingReasonAttesterSlashing,
				reward:     attesterReward,
				candidates: candidates,
			})
		}

		if len(body.ProposerSlashings) > 0 {
			candidates := make([]phase0.ValidatorIndex, 0, len(body.ProposerSlashings))
			for _, s := range body.ProposerSlashings {
				candidates = append(candidates, s.SignedHeader1.Message.ProposerIndex)
			}
			reports = append(reports, slashingReport{
				slot:       slot,
				proposer:   block.ProposerIndex(),
				reason:     spec.SlashingReasonProposerSlashing,
				reward:     proposerReward,
				candidates: candidates,
			})
		}
	}
	return reports
}

func validatorIndexes(indices []uint64) []phase0.ValidatorIndex {
	out := make([]phase0.ValidatorIndex, 0, len(indices))
	for _, i := range indices {
		out = append(out, phase0.ValidatorIndex(i))
	}
	return out
}

// resolveSlashings finds the validators newly slashed by each block and their
// penalty. A validator counts when it is slashed after the block and was not
// at the previous slot, whose effective balance sets the penalty.
func (a *EpochAssembler) resolveSlashings(ctx context.Context, data *epochData) (attester, proposer []spec.SlashingRecord, err error) {
	defer a.monitor.Track(StageSlashings)()

	attester = make([]spec.SlashingRecord, 0)
	proposer = make([]spec.SlashingRecord, 0)

	reports := slashingReports(data)
	if len(reports) == 0 {
		return attester, proposer, nil
	}

	keys := make([]validatorAt, 0)
	seen := make(map[validatorAt]bool)
	for _, r := range reports {
		for _, v := range r.candidates {
			for _, k := range []validatorAt{{r.slot, v}, {r.slot - 1, v}} {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
	}

	reqs := make([]clientapi.Request, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, clientapi.ValidatorRequest(a.cli.SelectNode(), slotID(k.slot), spec.FormatValidator(k.validator)))
	}
	results, err := a.cli.FetchMany(ctx, reqs, a.workers, 0)
	if err != nil {
		return nil, nil, err
	}
	responses, err := clientapi.Accepted(results)
	if err != nil {
		return nil, nil, err
	}
	states := make(map[validatorAt]*apiv1.Validator, len(keys))
	for i, resp := range responses {
		val, err := clientapi.DecodeValidator(resp)
		if err != nil {
			return nil, nil, err
		}
		if val == nil {
			return nil, nil, missingData(resp, "slashed validator unknown to the node")
		}
		states[keys[i]] = val
	}

	for _, r := range reports {
		rec := spec.SlashingRecord{
			Proposer: r.proposer,
			Slot:     r.slot,
			Reason:   r.reason,
			Reward:   r.reward,
			Slashed:  make([]spec.SlashedValidator, 0),
		}
		balances := make([]decimal.Decimal, 0)
		for _, v := range r.candidates {
			after, before := states[validatorAt{r.slot, v}], states[validatorAt{r.slot - 1, v}]
			if !after.Validator.Slashed || before.Validator.Slashed || rec.Contains(v) {
				continue
			}
			eb := spec.GweiAmount(before.Validator.EffectiveBalance)
			rec.Merge([]spec.SlashedValidator{{
				ValidatorIndex: v,
				Penalty:        a.forks.SlashingPenalty(eb, data.epoch),
			}})
			balances = append(balances, eb)
		}
		if len(rec.Slashed) == 0 {
			log.Debugf("%s at slot %d slashed nobody new", r.reason, r.slot)
			continue
		}
		a.forks.CheckSlashingReward(r.reward, balances, data.epoch)

		if r.reason == spec.SlashingReasonAttesterSlashing {
			attester = append(attester, rec)
		} else {
			proposer = append(proposer, rec)
		}
	}
	return attester, proposer, nil
}
