package consensus_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/clientapi/mocknode"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveEpoch fills every slot of the epoch but the skipped ones.
func serveEpoch(node *mocknode.Node, epoch phase0.Epoch, skip ...phase0.Slot) {
	skipped := make(map[phase0.Slot]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	for slot := spec.FirstSlotInEpoch(epoch); slot <= spec.LastSlotInEpoch(epoch); slot++ {
		if skipped[slot] {
			continue
		}
		node.GetData(clientapi.HeaderPath(slot), mocknode.Header(uint64(slot), mocknode.Root(uint64(slot)), mocknode.Root(uint64(slot)-1), 1))
	}
}

func newValidator(t *testing.T, breakOnFirst bool, nodes ...*mocknode.Node) *consensus.Validator {
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		urls = append(urls, n.URL)
	}
	cli, err := clientapi.NewAPIClient(urls)
	require.NoError(t, err)
	v, err := consensus.NewValidator(cli, consensus.WithWorkers(8), consensus.WithBreakOnFirst(breakOnFirst))
	require.NoError(t, err)
	return v
}

func expectedEpochHash(epoch phase0.Epoch, skip map[phase0.Slot]bool) string {
	buf := make([]byte, 0)
	for slot := spec.FirstSlotInEpoch(epoch); slot <= spec.LastSlotInEpoch(epoch); slot++ {
		if skip[slot] {
			continue
		}
		buf = append(buf, hexutil.MustDecode(mocknode.Root(uint64(slot)))...)
	}
	return crypto.Keccak256Hash(buf).Hex()
}

func TestEnsureEpochAgreement(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t), mocknode.New(t)}
	for _, n := range nodes {
		serveEpoch(n, 3, 100)
	}
	v := newValidator(t, false, nodes...)

	id, err := v.EnsureEpoch(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id.ID)
	assert.Equal(t, spec.EpochGranularity, id.Granularity)
	assert.Equal(t, expectedEpochHash(3, map[phase0.Slot]bool{100: true}), id.Hash)
	assert.Equal(t, mocknode.Root(95), id.ParentRoot)
	assert.Len(t, id.Roots, spec.SlotsPerEpoch-1)
	root, ok := id.Root(101)
	require.True(t, ok)
	assert.Equal(t, mocknode.Root(101), root)
	_, ok = id.Root(100)
	assert.False(t, ok)

	again, err := v.EnsureEpoch(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	for _, n := range nodes {
		assert.Equal(t, 2*spec.SlotsPerEpoch, n.TotalHits())
	}
}

func TestEnsureEpochDisagreement(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t), mocknode.New(t)}
	for _, n := range nodes {
		serveEpoch(n, 3)
	}
	nodes[2].GetData(clientapi.HeaderPath(101), mocknode.Header(101, mocknode.Root(9999), mocknode.Root(100), 1))
	v := newValidator(t, false, nodes...)

	_, err := v.EnsureEpoch(context.Background(), 3)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr), "got %v", err)
	assert.Equal(t, uint64(3), consErr.ID)
	assert.Contains(t, consErr.Reason, "slot 101")
}

func TestEnsureEpochMissingSlotOnOneNode(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t)}
	serveEpoch(nodes[0], 3)
	serveEpoch(nodes[1], 3, 120)
	v := newValidator(t, false, nodes...)

	_, err := v.EnsureEpoch(context.Background(), 3)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Contains(t, consErr.Reason, "slot 120")
}

func TestEnsureEpochBreakOnFirst(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t)}
	serveEpoch(nodes[0], 3)
	serveEpoch(nodes[1], 3)
	nodes[1].GetData(clientapi.HeaderPath(101), mocknode.Header(101, mocknode.Root(9999), mocknode.Root(100), 1))
	v := newValidator(t, true, nodes...)

	id, err := v.EnsureEpoch(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, expectedEpochHash(3, nil), id.Hash)
	assert.Zero(t, nodes[1].TotalHits())
}

func TestEnsureEpochWrongSlot(t *testing.T) {
	node := mocknode.New(t)
	serveEpoch(node, 3)
	node.GetData(clientapi.HeaderPath(105), mocknode.Header(104, mocknode.Root(104), mocknode.Root(103), 1))
	v := newValidator(t, false, node)

	_, err := v.EnsureEpoch(context.Background(), 3)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Contains(t, consErr.Reason, "answered slot 104 when asked for 105")
}

func TestEnsureEpochEmpty(t *testing.T) {
	node := mocknode.New(t)
	v := newValidator(t, false, node)

	_, err := v.EnsureEpoch(context.Background(), 3)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Contains(t, consErr.Reason, "no block")
}

func TestEnsureEpochUnexpectedStatus(t *testing.T) {
	node := mocknode.New(t)
	serveEpoch(node, 3)
	node.Get(clientapi.HeaderPath(110), http.StatusServiceUnavailable, `syncing`)
	v := newValidator(t, false, node)

	_, err := v.EnsureEpoch(context.Background(), 3)
	var unexpectedErr *clientapi.UnexpectedResponseError
	require.True(t, errors.As(err, &unexpectedErr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, unexpectedErr.Code)
}

func TestEnsureSlot(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t), mocknode.New(t)}
	for _, n := range nodes {
		n.GetData(clientapi.HeaderPath(50), mocknode.Header(50, mocknode.Root(50), mocknode.Root(49), 2))
	}
	v := newValidator(t, false, nodes...)

	id, err := v.EnsureSlot(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, spec.BlockIdentity{
		ID:          50,
		Hash:        mocknode.Root(50),
		ParentRoot:  mocknode.Root(49),
		Granularity: spec.SlotGranularity,
		Roots:       map[phase0.Slot]string{50: mocknode.Root(50)},
	}, id)
	assert.False(t, id.Empty())

	nodes[1].GetData(clientapi.HeaderPath(50), mocknode.Header(50, mocknode.Root(51), mocknode.Root(49), 2))
	_, err = v.EnsureSlot(context.Background(), 50)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Equal(t, spec.SlotGranularity, consErr.Granularity)
}

func TestEnsureSlotAgreedEmpty(t *testing.T) {
	nodes := []*mocknode.Node{mocknode.New(t), mocknode.New(t)}
	v := newValidator(t, false, nodes...)

	id, err := v.EnsureSlot(context.Background(), 51)
	require.NoError(t, err)
	assert.True(t, id.Empty())
	assert.Equal(t, uint64(51), id.ID)
	assert.Empty(t, id.Hash)
	assert.Empty(t, id.ParentRoot)

	nodes[1].GetData(clientapi.HeaderPath(51), mocknode.Header(51, mocknode.Root(51), mocknode.Root(50), 2))
	_, err = v.EnsureSlot(context.Background(), 51)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Equal(t, fmt.Sprintf("no consensus on slot 51: %s and %s disagree at slot 51", nodes[0].URL, nodes[1].URL), consErr.Error())
}

func TestDisagreement(t *testing.T) {
	id := spec.BlockIdentity{ID: 7, Granularity: spec.EpochGranularity}
	err := consensus.Disagreement(id, "%s lost block %d", "node", 230)
	var consErr *consensus.ConsensusError
	require.True(t, errors.As(err, &consErr))
	assert.Equal(t, "no consensus on epoch 7: node lost block 230", err.Error())
}

func TestNewValidator(t *testing.T) {
	_, err := consensus.NewValidator(nil)
	require.Error(t, err)

	cli, err := clientapi.NewAPIClient([]string{"http://a"})
	require.NoError(t, err)
	_, err = consensus.NewValidator(cli, consensus.WithWorkers(0))
	require.Error(t, err)
}
