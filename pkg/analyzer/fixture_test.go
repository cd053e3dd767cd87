package analyzer_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/analyzer"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/clientapi/mocknode"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/stretchr/testify/require"
)

const (
	testEpoch   = phase0.Epoch(200000)
	genesisUnix = 1606824023
)

var genesis = time.Unix(genesisUnix, 0).UTC()

// epochFixture serves a whole epoch: one duty per slot, 1010 Gwei of block
// rewards per proposed block and a fixed set of sync and attestation rewards.
type epochFixture struct {
	epoch     phase0.Epoch
	missed    map[phase0.Slot]bool
	bodies    map[phase0.Slot]mocknode.BlockBody
	slashings map[phase0.Slot][2]uint64 // proposer and attester slashing rewards
	preMerge  bool
	legacy    bool
}

func newEpochFixture() *epochFixture {
	return &epochFixture{
		epoch:     testEpoch,
		missed:    make(map[phase0.Slot]bool),
		bodies:    make(map[phase0.Slot]mocknode.BlockBody),
		slashings: make(map[phase0.Slot][2]uint64),
	}
}

func (f *epochFixture) slot(offset uint64) phase0.Slot {
	return spec.FirstSlotInEpoch(f.epoch) + phase0.Slot(offset)
}

func proposerOf(slot phase0.Slot) uint64 {
	return 1000 + uint64(slot)%spec.SlotsPerEpoch
}

func slotTimestamp(slot phase0.Slot) uint64 {
	return genesisUnix + uint64(slot)*spec.SlotSeconds
}

func (f *epochFixture) serve(node *mocknode.Node) {
	duties := make([]interface{}, 0)
	for slot := spec.FirstSlotInEpoch(f.epoch); slot <= spec.LastSlotInEpoch(f.epoch); slot++ {
		duties = append(duties, mocknode.ProposerDuty(proposerOf(slot), uint64(slot)))
		if f.missed[slot] {
			continue
		}
		root := mocknode.Root(uint64(slot))
		node.GetData(clientapi.HeaderPath(slot), mocknode.Header(uint64(slot), root, mocknode.Root(uint64(slot)-1), proposerOf(slot)))

		body := f.bodies[slot]
		if !f.preMerge {
			ts := slotTimestamp(slot)
			body.Timestamp = &ts
		}
		node.GetData(clientapi.BlockPath(root), mocknode.Block(uint64(slot), proposerOf(slot), body))

		s := f.slashings[slot]
		node.GetData(clientapi.BlockRewardsPath(root), mocknode.BlockRewards(proposerOf(slot), 1000, 10, s[0], s[1]))
		node.PostData(clientapi.SyncCommitteeRewardsPath(root), []interface{}{
			mocknode.SyncReward(1, 5),
			mocknode.SyncReward(2, -3),
		})
	}
	node.GetData(clientapi.ProposerDutiesPath(f.epoch), duties)
	node.GetData(clientapi.GenesisPath, mocknode.Genesis(genesisUnix))

	if f.legacy {
		node.Set(http.MethodPost, clientapi.AttestationRewardsPath(f.epoch), http.StatusInternalServerError, `{"code":500}`)
		return
	}
	node.PostData(clientapi.AttestationRewardsPath(f.epoch), map[string]interface{}{
		"ideal_rewards": []interface{}{},
		"total_rewards": []interface{}{
			mocknode.AttestationReward(1, 1, 2, 3),
			mocknode.AttestationReward(3, 0, 0, 0),
			mocknode.AttestationReward(4, 0, -2, -3),
		},
	})
}

func serveValidator(node *mocknode.Node, state string, id string, index uint64, effectiveBalance uint64, slashed bool) {
	node.GetData(clientapi.ValidatorPath(state, id), mocknode.Validator(index, mocknode.Pubkey(index), effectiveBalance, effectiveBalance, slashed))
}

func newDeps(t *testing.T, nodes ...*mocknode.Node) analyzer.ModuleDeps {
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		urls = append(urls, n.URL)
	}
	cli, err := clientapi.NewAPIClient(urls, clientapi.WithTimeout(5*time.Second), clientapi.WithWorkers(8))
	require.NoError(t, err)
	validator, err := consensus.NewValidator(cli, consensus.WithWorkers(8))
	require.NoError(t, err)
	assembler, err := analyzer.NewEpochAssembler(cli,
		analyzer.WithRequestWorkers(8),
		analyzer.WithAttestationRewardsTimeout(5*time.Second))
	require.NoError(t, err)
	return analyzer.ModuleDeps{Client: cli, Consensus: validator, Assembler: assembler}
}

// agreedEpoch runs the header agreement the modules run before assembling.
func agreedEpoch(t *testing.T, deps analyzer.ModuleDeps, epoch phase0.Epoch) spec.BlockIdentity {
	id, err := deps.Consensus.EnsureEpoch(context.Background(), epoch)
	require.NoError(t, err)
	return id
}

type row struct {
	address string
	effect  string
	kind    spec.EventKind
}

func rowsOf(events []spec.Event, kinds ...spec.EventKind) []row {
	wanted := make(map[spec.EventKind]bool)
	for _, k := range kinds {
		wanted[k] = true
	}
	out := make([]row, 0)
	for _, e := range events {
		if len(kinds) == 0 || wanted[e.Extra] {
			out = append(out, row{e.Address, e.Effect.String(), e.Extra})
		}
	}
	return out
}
