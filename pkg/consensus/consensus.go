package consensus

import (
	"context"
	"fmt"
	"sort"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/metrics"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	moduleName = "consensus"
	log        = logrus.WithField(
		"module", moduleName)
)

const DefaultWorkers = 10

// ConsensusError means the nodes could not agree on the headers of a slot or
// an epoch. The attempt should be repeated later, once nodes catch up.
type ConsensusError struct {
	ID          uint64
	Granularity spec.Granularity
	Reason      string
}

func (e *ConsensusError) Error() string {
	return fmt.Sprintf("no consensus on %s %d: %s", e.Granularity, e.ID, e.Reason)
}

// Validator establishes the canonical identity of a slot or an epoch by
// comparing the headers served by every configured node.
type Validator struct {
	cli          *clientapi.APIClient
	workers      int
	breakOnFirst bool
	metrics      *consensusMetrics
}

type ValidatorOption func(*Validator) error

func NewValidator(cli *clientapi.APIClient, options ...ValidatorOption) (*Validator, error) {
	if cli == nil {
		return nil, errors.New("consensus validator needs an api client")
	}
	v := &Validator{
		cli:     cli,
		workers: DefaultWorkers,
		metrics: newConsensusMetrics(),
	}
	for _, o := range options {
		if err := o(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func WithWorkers(workers int) ValidatorOption {
	return func(v *Validator) error {
		if workers <= 0 {
			return errors.Errorf("invalid number of consensus workers %d", workers)
		}
		v.workers = workers
		return nil
	}
}

// WithBreakOnFirst trusts the first configured node alone.
func WithBreakOnFirst(breakOnFirst bool) ValidatorOption {
	return func(v *Validator) error {
		v.breakOnFirst = breakOnFirst
		return nil
	}
}

func WithPromMetrics(prom *metrics.PrometheusMetrics) ValidatorOption {
	return func(v *Validator) error {
		if prom == nil {
			return nil
		}
		return prom.AddMetricsModule(v.metrics.getPrometheusMetrics())
	}
}

// nodeView is the slot -> root mapping served by one node.
type nodeView struct {
	node   string
	roots  map[phase0.Slot]phase0.Root
	parent map[phase0.Slot]phase0.Root
}

// sortedSlots returns the non empty slots of the view in ascending order.
func (v nodeView) sortedSlots() []phase0.Slot {
	slots := make([]phase0.Slot, 0, len(v.roots))
	for slot := range v.roots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// hash is the keccak256 of the roots of the view concatenated in slot order.
func (v nodeView) hash() string {
	buf := make([]byte, 0, phase0.RootLength*len(v.roots))
	for _, slot := range v.sortedSlots() {
		root := v.roots[slot]
		buf = append(buf, root[:]...)
	}
	return crypto.Keccak256Hash(buf).Hex()
}

// identityRoots renders the roots of the view for a BlockIdentity.
func (v nodeView) identityRoots() map[phase0.Slot]string {
	roots := make(map[phase0.Slot]string, len(v.roots))
	for slot, root := range v.roots {
		roots[slot] = root.String()
	}
	return roots
}

func (v *Validator) nodes() []string {
	nodes := v.cli.Nodes()
	if v.breakOnFirst {
		return nodes[:1]
	}
	return nodes
}

// EnsureEpoch checks that every node serves the same headers for the 32
// slots of the epoch. The resulting hash identifies the epoch.
func (v *Validator) EnsureEpoch(ctx context.Context, epoch phase0.Epoch) (spec.BlockIdentity, error) {
	slots := make([]phase0.Slot, 0, spec.SlotsPerEpoch)
	for slot := spec.FirstSlotInEpoch(epoch); slot <= spec.LastSlotInEpoch(epoch); slot++ {
		slots = append(slots, slot)
	}

	id := spec.BlockIdentity{ID: uint64(epoch), Granularity: spec.EpochGranularity}
	views, err := v.fetchViews(ctx, id, slots)
	if err != nil {
		return id, err
	}
	hash, err := v.agree(id, views)
	if err != nil {
		return id, err
	}

	first := views[0]
	nonEmpty := first.sortedSlots()
	if len(nonEmpty) == 0 {
		return id, v.fail(id, "nodes agree the epoch has no block")
	}
	id.Hash = hash
	id.Roots = first.identityRoots()
	id.ParentRoot = first.parent[nonEmpty[0]].String()
	log.Debugf("epoch %d agreed by %d node(s): %s", epoch, len(views), hash)
	return id, nil
}

// EnsureSlot checks that every node serves the same header for the slot. The
// header root is the identity of the slot. When every node answers 404 the
// slot is agreed empty: its hash is blank and it has no roots.
func (v *Validator) EnsureSlot(ctx context.Context, slot phase0.Slot) (spec.BlockIdentity, error) {
	id := spec.BlockIdentity{ID: uint64(slot), Granularity: spec.SlotGranularity}
	views, err := v.fetchViews(ctx, id, []phase0.Slot{slot})
	if err != nil {
		return id, err
	}
	if _, err := v.agree(id, views); err != nil {
		return id, err
	}
	id.Roots = views[0].identityRoots()
	root, ok := views[0].roots[slot]
	if !ok {
		log.Debugf("slot %d agreed empty by %d node(s)", slot, len(views))
		return id, nil
	}
	id.Hash = root.String()
	id.ParentRoot = views[0].parent[slot].String()
	log.Debugf("slot %d agreed by %d node(s): %s", slot, len(views), id.Hash)
	return id, nil
}

// fetchViews requests the header of every slot from every node. Missing slots
// are left out of the view; any other status is fatal.
func (v *Validator) fetchViews(ctx context.Context, id spec.BlockIdentity, slots []phase0.Slot) ([]nodeView, error) {
	nodes := v.nodes()
	reqs := make([]clientapi.Request, 0, len(nodes)*len(slots))
	for _, node := range nodes {
		for _, slot := range slots {
			reqs = append(reqs, clientapi.HeaderRequest(node, slot))
		}
	}

	results, err := v.cli.FetchMany(ctx, reqs, v.workers, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch headers of %s %d", id.Granularity, id.ID)
	}
	responses, err := clientapi.Accepted(results)
	if err != nil {
		return nil, err
	}

	views := make([]nodeView, 0, len(nodes))
	for n, node := range nodes {
		view := nodeView{
			node:   node,
			roots:  make(map[phase0.Slot]phase0.Root, len(slots)),
			parent: make(map[phase0.Slot]phase0.Root, len(slots)),
		}
		for s, slot := range slots {
			header, err := clientapi.DecodeHeader(responses[n*len(slots)+s])
			if err != nil {
				return nil, err
			}
			if header == nil {
				continue
			}
			if got := header.Header.Message.Slot; got != slot {
				return nil, v.fail(id, "%s answered slot %d when asked for %d", node, got, slot)
			}
			view.roots[slot] = header.Root
			view.parent[slot] = header.Header.Message.ParentRoot
		}
		views = append(views, view)
	}
	return views, nil
}

// agree compares the per node hashes against the first node.
func (v *Validator) agree(id spec.BlockIdentity, views []nodeView) (string, error) {
	reference := views[0].hash()
	for _, view := range views[1:] {
		if hash := view.hash(); hash != reference {
			return "", v.fail(id, "%s and %s disagree%s", views[0].node, view.node, firstDivergence(views[0], view))
		}
	}
	v.metrics.agreed(id.Granularity)
	return reference, nil
}

func firstDivergence(a, b nodeView) string {
	slots := a.sortedSlots()
	for _, slot := range b.sortedSlots() {
		if _, ok := a.roots[slot]; !ok {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	for _, slot := range slots {
		rootA, okA := a.roots[slot]
		rootB, okB := b.roots[slot]
		if okA != okB || rootA != rootB {
			return fmt.Sprintf(" at slot %d", slot)
		}
	}
	return ""
}

func (v *Validator) fail(id spec.BlockIdentity, format string, args ...interface{}) error {
	v.metrics.failed(id.Granularity)
	return Disagreement(id, format, args...)
}

// Disagreement reports data served for id that contradicts what was agreed.
func Disagreement(id spec.BlockIdentity, format string, args ...interface{}) error {
	err := &ConsensusError{
		ID:          id.ID,
		Granularity: id.Granularity,
		Reason:      fmt.Sprintf(format, args...),
	}
	log.Warn(err)
	return err
}
