package clientapi

import (
	"encoding/json"

	"github.com/attestantio/go-eth2-client/spec/capella"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/bitlist"
	"github.com/pkg/errors"
)

// Beacon API payloads are decoded into go-eth2-client records, whose
// unmarshalers already reject missing or malformed fields. Blocks change shape
// on every fork, so only the body parts the ledger reads are decoded, each with
// the record of the fork that introduced it.

type validatable interface {
	validate() error
}

// decodeData unmarshals the "data" member of a response into out and runs its
// validation, if any.
func decodeData(resp Response, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return unexpected(resp, "invalid json: %s", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return unexpected(resp, "missing data field")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return unexpected(resp, "invalid data: %s", err)
	}
	if v, ok := out.(validatable); ok {
		if err := v.validate(); err != nil {
			return unexpected(resp, "%s", err)
		}
	}
	return nil
}

// Attestation keeps the aggregation bits as served, they are decoded against
// the committee later on.
type Attestation struct {
	AggregationBits string                  `json:"aggregation_bits"`
	Data            *phase0.AttestationData `json:"data"`
}

func (a *Attestation) validate() error {
	if a.Data == nil {
		return errors.New("missing data")
	}
	if a.AggregationBits == "" {
		return errors.New("missing aggregation_bits")
	}
	_, err := bitlist.Decode(a.AggregationBits)
	return err
}

func (a *Attestation) Slot() phase0.Slot {
	return a.Data.Slot
}

func (a *Attestation) CommitteeIndex() phase0.CommitteeIndex {
	return a.Data.Index
}

type ExecutionPayload struct {
	Timestamp   *uint64               `json:"timestamp,string"`
	Withdrawals []*capella.Withdrawal `json:"withdrawals"`
}

type BlockBody struct {
	Attestations      []*Attestation             `json:"attestations"`
	AttesterSlashings []*phase0.AttesterSlashing `json:"attester_slashings"`
	ProposerSlashings []*phase0.ProposerSlashing `json:"proposer_slashings"`
	Deposits          []*phase0.Deposit          `json:"deposits"`
	ExecutionPayload  *ExecutionPayload          `json:"execution_payload"`
}

type BlockMessage struct {
	Slot          *phase0.Slot           `json:"slot"`
	ProposerIndex *phase0.ValidatorIndex `json:"proposer_index"`
	Body          *BlockBody             `json:"body"`
}

type BlockData struct {
	Message BlockMessage `json:"message"`
}

func (b *BlockData) validate() error {
	m := &b.Message
	if m.Slot == nil {
		return errors.New("missing message.slot")
	}
	if m.ProposerIndex == nil {
		return errors.New("missing message.proposer_index")
	}
	if m.Body == nil {
		return errors.New("missing message.body")
	}
	body := m.Body
	if err := noNulls(body.Attestations, "attestation"); err != nil {
		return err
	}
	for i, att := range body.Attestations {
		if err := att.validate(); err != nil {
			return errors.Wrapf(err, "attestation %d", i)
		}
	}
	if err := noNulls(body.AttesterSlashings, "attester slashing"); err != nil {
		return err
	}
	for i, s := range body.AttesterSlashings {
		// null indices decode as an empty list
		if len(s.Attestation1.AttestingIndices) == 0 || len(s.Attestation2.AttestingIndices) == 0 {
			return errors.Errorf("attester slashing %d without attesting_indices", i)
		}
	}
	if err := noNulls(body.ProposerSlashings, "proposer slashing"); err != nil {
		return err
	}
	if err := noNulls(body.Deposits, "deposit"); err != nil {
		return err
	}
	if p := body.ExecutionPayload; p != nil {
		if p.Timestamp == nil {
			return errors.New("missing execution_payload.timestamp")
		}
		return noNulls(p.Withdrawals, "withdrawal")
	}
	return nil
}

func (b *BlockData) Slot() phase0.Slot {
	return *b.Message.Slot
}

func (b *BlockData) ProposerIndex() phase0.ValidatorIndex {
	return *b.Message.ProposerIndex
}

// Timestamp of the execution payload, false before the merge.
func (b *BlockData) Timestamp() (uint64, bool) {
	p := b.Message.Body.ExecutionPayload
	if p == nil {
		return 0, false
	}
	return *p.Timestamp, true
}

func noNulls[T any](items []*T, what string) error {
	for i, item := range items {
		if item == nil {
			return errors.Errorf("%s %d is null", what, i)
		}
	}
	return nil
}
