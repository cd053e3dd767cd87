package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/bitlist"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// fetchAttestationRewards returns the head, target and source rewards of every
// validator. When the node can not compute them for the epoch, the validators
// that attested in the epoch's blocks are returned with a zero reward.
func (a *EpochAssembler) fetchAttestationRewards(ctx context.Context, data *epochData) ([]spec.ValidatorRewardRecord, error) {
	defer a.monitor.Track(StageAttestations)()

	rewards, err := a.cli.AttestationRewards(ctx, data.epoch, a.attestationTimeout)
	if err != nil {
		return nil, err
	}
	if rewards != nil {
		out := make([]spec.ValidatorRewardRecord, 0, len(rewards.TotalRewards))
		for _, r := range rewards.TotalRewards {
			out = append(out, spec.ValidatorRewardRecord{
				ValidatorIndex: r.ValidatorIndex,
				Total: spec.AttestationTotal(
					spec.GweiAmount(r.Head),
					spec.SignedGweiAmount(r.Target),
					spec.SignedGweiAmount(r.Source)),
			})
		}
		return out, nil
	}

	log.Infof("attestation rewards unavailable for epoch %d, deriving participants from committees", data.epoch)
	participants, err := a.attestationParticipants(ctx, data)
	if err != nil {
		return nil, err
	}
	out := make([]spec.ValidatorRewardRecord, 0, len(participants))
	for _, valIdx := range participants {
		out = append(out, spec.ValidatorRewardRecord{ValidatorIndex: valIdx, Total: decimal.Zero})
	}
	return out, nil
}

type slotCommittees map[phase0.CommitteeIndex][]phase0.ValidatorIndex

// attestationParticipants decodes the aggregation bits of every attestation
// included in the epoch against its committee. Validators are returned in
// order of first appearance.
func (a *EpochAssembler) attestationParticipants(ctx context.Context, data *epochData) ([]phase0.ValidatorIndex, error) {
	attestations := make([]*clientapi.Attestation, 0)
	attSlots := make([]phase0.Slot, 0)
	seenSlot := make(map[phase0.Slot]bool)
	for _, slot := range data.proposed() {
		body := data.blocks[slot].Message.Body
		for _, att := range body.Attestations {
			attestations = append(attestations, att)
			if !seenSlot[att.Slot()] {
				seenSlot[att.Slot()] = true
				attSlots = append(attSlots, att.Slot())
			}
		}
	}
	sort.Slice(attSlots, func(i, j int) bool { return attSlots[i] < attSlots[j] })

	committees, err := a.fetchCommittees(ctx, attSlots)
	if err != nil {
		return nil, err
	}

	out := make([]phase0.ValidatorIndex, 0)
	seen := make(map[phase0.ValidatorIndex]bool)
	for _, att := range attestations {
		committee, ok := committees[att.Slot()][att.CommitteeIndex()]
		if !ok {
			return nil, &clientapi.UnexpectedResponseError{
				Path:   clientapi.CommitteesPath(slotID(att.Slot()), att.Slot()),
				Code:   http.StatusOK,
				Reason: fmt.Sprintf("committee %d not found", att.CommitteeIndex()),
			}
		}
		bits, err := bitlist.Decode(att.AggregationBits)
		if err != nil {
			return nil, err
		}
		participants, err := bits.Participants(committee)
		if err != nil {
			return nil, errors.Wrapf(err, "attestation of slot %d committee %d", att.Slot(), att.CommitteeIndex())
		}
		for _, valIdx := range participants {
			if !seen[valIdx] {
				seen[valIdx] = true
				out = append(out, valIdx)
			}
		}
	}
	return out, nil
}

// fetchCommittees resolves the committees of each slot at the state root of
// that slot. Empty slots fall back to the slot number as state id.
func (a *EpochAssembler) fetchCommittees(ctx context.Context, slots []phase0.Slot) (map[phase0.Slot]slotCommittees, error) {
	fetched := make([][]*apiv1.BeaconCommittee, len(slots))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, slot := range slots {
		g.Go(func() error {
			stateID := slotID(slot)
			header, err := a.cli.HeaderBySlotQuery(gCtx, slot)
			if err != nil {
				return err
			}
			if header != nil {
				stateID = header.Header.Message.StateRoot.String()
			}
			committees, err := a.cli.Committees(gCtx, stateID, slot)
			if err != nil {
				return err
			}
			fetched[i] = committees
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[phase0.Slot]slotCommittees, len(slots))
	for i, slot := range slots {
		bySlot := make(slotCommittees)
		for _, c := range fetched[i] {
			if c != nil && c.Slot == slot {
				bySlot[c.Index] = c.Validators
			}
		}
		out[slot] = bySlot
	}
	return out, nil
}
