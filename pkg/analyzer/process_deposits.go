package analyzer

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/spec"
)

// resolveDeposits looks up the validator index of every deposited key at the
// slot of the block that included it.
func (a *EpochAssembler) resolveDeposits(ctx context.Context, data *epochData) ([]spec.DepositRecord, error) {
	defer a.monitor.Track(StageDeposits)()

	records := make([]spec.DepositRecord, 0)
	reqs := make([]clientapi.Request, 0)
	for _, slot := range data.proposed() {
		for _, d := range data.blocks[slot].Message.Body.Deposits {
			pubkey := d.Data.PublicKey.String()
			records = append(records, spec.DepositRecord{
				Slot:                  slot,
				Pubkey:                pubkey,
				WithdrawalCredentials: hexutil.Encode(d.Data.WithdrawalCredentials),
				Amount:                spec.GweiAmount(d.Data.Amount),
			})
			reqs = append(reqs, clientapi.ValidatorRequest(a.cli.SelectNode(), slotID(slot), pubkey))
		}
	}
	if len(reqs) == 0 {
		return records, nil
	}

	results, err := a.cli.FetchMany(ctx, reqs, a.workers, 0)
	if err != nil {
		return nil, err
	}
	responses, err := clientapi.Accepted(results)
	if err != nil {
		return nil, err
	}
	for i, resp := range responses {
		val, err := clientapi.DecodeValidator(resp)
		if err != nil {
			return nil, err
		}
		if val == nil {
			log.Debugf("deposit of %s at slot %d has no validator yet", records[i].Pubkey, records[i].Slot)
			continue
		}
		idx := val.Index
		records[i].ValidatorIndex = &idx
	}
	return records, nil
}
