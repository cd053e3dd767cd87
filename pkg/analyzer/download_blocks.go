package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/spec"
)

func (a *EpochAssembler) fetchDuties(ctx context.Context, data *epochData) error {
	defer a.monitor.Track(StageDuties)()

	duties, err := a.cli.ProposerDuties(ctx, data.epoch)
	if err != nil {
		return err
	}
	seen := make(map[phase0.Slot]bool, len(duties))
	for _, d := range duties {
		if d == nil {
			continue
		}
		if spec.EpochAtSlot(d.Slot) != data.epoch {
			return &clientapi.UnexpectedResponseError{
				Path:   clientapi.ProposerDutiesPath(data.epoch),
				Code:   http.StatusOK,
				Reason: fmt.Sprintf("duty for slot %d outside the epoch", d.Slot),
			}
		}
		if seen[d.Slot] {
			continue
		}
		seen[d.Slot] = true
		data.duties = append(data.duties, spec.ProposerDuty{
			Slot:           d.Slot,
			ValidatorIndex: d.ValidatorIndex,
		})
	}
	sort.Slice(data.duties, func(i, j int) bool {
		return data.duties[i].Slot < data.duties[j].Slot
	})
	log.Debugf("epoch %d: %d proposer duties", data.epoch, len(data.duties))
	return nil
}

// blockID is the agreed root of slot, or the slot number when the nodes agreed
// it is empty.
func (d *epochData) blockID(slot phase0.Slot) (string, bool) {
	if root, ok := d.identity.Root(slot); ok {
		return root, true
	}
	return slotID(slot), false
}

// fetchBlocks downloads the block of every duty slot by its agreed root. A
// slot agreed empty is still asked by number and must answer 404, which leaves
// a nil entry for the slot.
func (a *EpochAssembler) fetchBlocks(ctx context.Context, data *epochData) error {
	defer a.monitor.Track(StageBlocks)()

	reqs := make([]clientapi.Request, 0, len(data.duties))
	for _, duty := range data.duties {
		id, _ := data.blockID(duty.Slot)
		reqs = append(reqs, clientapi.BlockRequest(a.cli.SelectNode(), id))
	}
	results, err := a.cli.FetchMany(ctx, reqs, a.workers, 0)
	if err != nil {
		return err
	}
	responses, err := clientapi.Accepted(results)
	if err != nil {
		return err
	}

	for i, resp := range responses {
		slot := data.duties[i].Slot
		root, agreed := data.blockID(slot)
		block, err := clientapi.DecodeBlock(resp)
		if err != nil {
			return err
		}
		switch {
		case block == nil && agreed:
			return consensus.Disagreement(data.identity, "%s has no block %s agreed for slot %d", resp.Request.Node, root, slot)
		case block == nil:
			log.Debugf("slot %d missed", slot)
		case !agreed:
			return consensus.Disagreement(data.identity, "%s serves a block at slot %d, agreed empty", resp.Request.Node, slot)
		case block.Slot() != slot:
			return missingData(resp, fmt.Sprintf("block of slot %d served for slot %d", block.Slot(), slot))
		}
		data.blocks[slot] = block
	}
	return nil
}

// fetchBlockRewards downloads the reward breakdown and the sync committee
// rewards of every proposed block. A node without the reward breakdown of a
// block leaves it nil, the proposer then earns nothing.
func (a *EpochAssembler) fetchBlockRewards(ctx context.Context, data *epochData) error {
	defer a.monitor.Track(StageBlockRewards)()

	proposed := data.proposed()
	reqs := make([]clientapi.Request, 0, 2*len(proposed))
	for _, slot := range proposed {
		root, _ := data.blockID(slot)
		reqs = append(reqs,
			clientapi.BlockRewardsRequest(a.cli.SelectNode(), root),
			clientapi.SyncCommitteeRewardsRequest(a.cli.SelectNode(), root))
	}
	results, err := a.cli.FetchMany(ctx, reqs, a.workers, 0)
	if err != nil {
		return err
	}
	responses, err := clientapi.Accepted(results)
	if err != nil {
		return err
	}

	for i, slot := range proposed {
		rewardsResp, syncResp := responses[2*i], responses[2*i+1]

		rewards, err := clientapi.DecodeBlockRewards(rewardsResp)
		if err != nil {
			return err
		}
		if rewards == nil {
			log.Debugf("no block rewards at slot %d from %s", slot, rewardsResp.Request.Node)
		}
		data.blockRewards[slot] = rewards

		sync, err := clientapi.DecodeSyncCommitteeRewards(syncResp)
		if err != nil {
			return err
		}
		if sync == nil {
			log.Debugf("no sync committee rewards at slot %d (status %d)", slot, syncResp.Code)
		}
		data.syncRewards[slot] = sync
	}
	return nil
}
