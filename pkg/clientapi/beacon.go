package clientapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"
)

var emptyFilter = []byte("[]")

func HeaderPath(slot phase0.Slot) string {
	return fmt.Sprintf("/eth/v1/beacon/headers/%d", slot)
}

// Block paths take a block id: a slot number or a block root.

func BlockPath(blockID string) string {
	return fmt.Sprintf("/eth/v1/beacon/blocks/%s", blockID)
}

func BlockRewardsPath(blockID string) string {
	return fmt.Sprintf("/eth/v1/beacon/rewards/blocks/%s", blockID)
}

func SyncCommitteeRewardsPath(blockID string) string {
	return fmt.Sprintf("/eth/v1/beacon/rewards/sync_committee/%s", blockID)
}

func AttestationRewardsPath(epoch phase0.Epoch) string {
	return fmt.Sprintf("/eth/v1/beacon/rewards/attestations/%d", epoch)
}

func ValidatorPath(stateID string, id string) string {
	return fmt.Sprintf("/eth/v1/beacon/states/%s/validators/%s", stateID, id)
}

func CommitteesPath(stateID string, slot phase0.Slot) string {
	return fmt.Sprintf("/eth/v1/beacon/states/%s/committees?slot=%d", stateID, slot)
}

func ProposerDutiesPath(epoch phase0.Epoch) string {
	return fmt.Sprintf("/eth/v1/validator/duties/proposer/%d", epoch)
}

const GenesisPath = "/eth/v1/beacon/genesis"

// Headers

// HeaderRequest asks a node for the header at slot; 404 marks an empty slot.
func HeaderRequest(node string, slot phase0.Slot) Request {
	return Request{
		Node:     node,
		Path:     HeaderPath(slot),
		Accepted: []int{http.StatusOK, http.StatusNotFound},
		Endpoint: "header",
	}
}

// DecodeHeader returns nil for an empty slot.
func DecodeHeader(resp Response) (*apiv1.BeaconBlockHeader, error) {
	if resp.NotFound() {
		return nil, nil
	}
	var header apiv1.BeaconBlockHeader
	if err := decodeData(resp, &header); err != nil {
		return nil, err
	}
	return &header, nil
}

// HeadHeader returns the header of the current head as seen by one node.
func (s *APIClient) HeadHeader(ctx context.Context) (*apiv1.BeaconBlockHeader, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Path:     "/eth/v1/beacon/headers",
		Endpoint: "headers",
	}, s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	var headers []*apiv1.BeaconBlockHeader
	if err := decodeData(resp, &headers); err != nil {
		return nil, err
	}
	if len(headers) == 0 || headers[0] == nil {
		return nil, unexpected(resp, "empty header list")
	}
	return headers[0], nil
}

// HeaderBySlotQuery looks the header of a slot up through the ?slot= filter,
// which is how the state root of a slot is resolved. Returns nil when the
// slot is empty.
func (s *APIClient) HeaderBySlotQuery(ctx context.Context, slot phase0.Slot) (*apiv1.BeaconBlockHeader, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Path:     fmt.Sprintf("/eth/v1/beacon/headers?slot=%d", slot),
		Accepted: []int{http.StatusOK, http.StatusNotFound},
		Endpoint: "headers",
	}, s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	if resp.NotFound() {
		return nil, nil
	}
	var headers []*apiv1.BeaconBlockHeader
	if err := decodeData(resp, &headers); err != nil {
		return nil, err
	}
	for _, header := range headers {
		if header != nil && header.Header.Message.Slot == slot {
			return header, nil
		}
	}
	return nil, nil
}

// Blocks

func BlockRequest(node string, blockID string) Request {
	return Request{
		Node:     node,
		Path:     BlockPath(blockID),
		Accepted: []int{http.StatusOK, http.StatusNotFound},
		Endpoint: "block",
	}
}

// DecodeBlock returns nil when the node has no such block.
func DecodeBlock(resp Response) (*BlockData, error) {
	if resp.NotFound() {
		return nil, nil
	}
	var block BlockData
	if err := decodeData(resp, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Block fetches a single block by slot or root, nil when it is unknown.
func (s *APIClient) Block(ctx context.Context, blockID string) (*BlockData, error) {
	resp, err := s.FetchOne(ctx, BlockRequest(s.SelectNode(), blockID), s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	return DecodeBlock(resp)
}

// Rewards

func BlockRewardsRequest(node string, blockID string) Request {
	return Request{
		Node:     node,
		Path:     BlockRewardsPath(blockID),
		Accepted: []int{http.StatusOK, http.StatusNotFound},
		Endpoint: "block_rewards",
	}
}

// DecodeBlockRewards returns nil when the node has no rewards for the block.
func DecodeBlockRewards(resp Response) (*apiv1.BlockRewards, error) {
	if resp.NotFound() {
		return nil, nil
	}
	var rewards apiv1.BlockRewards
	if err := decodeData(resp, &rewards); err != nil {
		return nil, err
	}
	return &rewards, nil
}

// SyncCommitteeRewardsRequest asks for the rewards of every sync committee
// member. Nodes answer 500 for slots before sync committees existed.
func SyncCommitteeRewardsRequest(node string, blockID string) Request {
	return Request{
		Node:     node,
		Method:   http.MethodPost,
		Path:     SyncCommitteeRewardsPath(blockID),
		Body:     emptyFilter,
		Accepted: []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError},
		Endpoint: "sync_committee_rewards",
	}
}

// DecodeSyncCommitteeRewards returns nil when the node has no rewards for the
// block.
func DecodeSyncCommitteeRewards(resp Response) ([]*apiv1.SyncCommitteeReward, error) {
	if !resp.OK() {
		return nil, nil
	}
	var rewards []*apiv1.SyncCommitteeReward
	if err := decodeData(resp, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// AttestationRewards fetches the attestation rewards of every validator for
// the epoch. A nil result without error means the node can not compute them
// for this epoch.
func (s *APIClient) AttestationRewards(ctx context.Context, epoch phase0.Epoch, timeout time.Duration) (*apiv1.AttestationRewards, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Method:   http.MethodPost,
		Path:     AttestationRewardsPath(epoch),
		Body:     emptyFilter,
		Accepted: []int{http.StatusOK, http.StatusInternalServerError},
		Endpoint: "attestation_rewards",
	}, timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	if !resp.OK() {
		log.Debugf("attestation rewards not available for epoch %d", epoch)
		return nil, nil
	}
	var rewards apiv1.AttestationRewards
	if err := decodeData(resp, &rewards); err != nil {
		return nil, err
	}
	if rewards.TotalRewards == nil {
		return nil, unexpected(resp, "missing total_rewards")
	}
	return &rewards, nil
}

// Validators

// ValidatorRequest looks a validator up by index or pubkey at a state. An
// unknown validator answers 404.
func ValidatorRequest(node string, stateID string, id string) Request {
	return Request{
		Node:     node,
		Path:     ValidatorPath(stateID, id),
		Accepted: []int{http.StatusOK, http.StatusNotFound},
		Endpoint: "validator",
	}
}

// DecodeValidator returns nil for an unknown validator.
func DecodeValidator(resp Response) (*apiv1.Validator, error) {
	if resp.NotFound() {
		return nil, nil
	}
	var val apiv1.Validator
	if err := decodeData(resp, &val); err != nil {
		return nil, err
	}
	return &val, nil
}

func (s *APIClient) Validator(ctx context.Context, stateID string, id string) (*apiv1.Validator, error) {
	resp, err := s.FetchOne(ctx, ValidatorRequest(s.SelectNode(), stateID, id), s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	return DecodeValidator(resp)
}

// Committees returns the committees of slot at the given state.
func (s *APIClient) Committees(ctx context.Context, stateID string, slot phase0.Slot) ([]*apiv1.BeaconCommittee, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Path:     CommitteesPath(stateID, slot),
		Endpoint: "committees",
	}, s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	var committees []*apiv1.BeaconCommittee
	if err := decodeData(resp, &committees); err != nil {
		return nil, err
	}
	return committees, nil
}

// Duties and genesis

func (s *APIClient) ProposerDuties(ctx context.Context, epoch phase0.Epoch) ([]*apiv1.ProposerDuty, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Path:     ProposerDutiesPath(epoch),
		Endpoint: "proposer_duties",
	}, s.timeout)
	if err != nil {
		return nil, asUnexpected(err)
	}
	var duties []*apiv1.ProposerDuty
	if err := decodeData(resp, &duties); err != nil {
		return nil, err
	}
	return duties, nil
}

func (s *APIClient) GenesisTime(ctx context.Context) (time.Time, error) {
	resp, err := s.FetchOne(ctx, Request{
		Node:     s.SelectNode(),
		Path:     GenesisPath,
		Endpoint: "genesis",
	}, s.timeout)
	if err != nil {
		return time.Time{}, asUnexpected(err)
	}
	var genesis apiv1.Genesis
	if err := decodeData(resp, &genesis); err != nil {
		return time.Time{}, err
	}
	return genesis.GenesisTime.UTC(), nil
}
