package spec

import (
	"fmt"
	"sort"

	"github.com/attestantio/go-eth2-client/spec/phase0"
)

type Fork int8

const (
	Phase0 Fork = iota
	Altair
	Bellatrix
	Capella
	Deneb
	Electra
)

func (f Fork) String() string {
	switch f {
	case Phase0:
		return "phase0"
	case Altair:
		return "altair"
	case Bellatrix:
		return "bellatrix"
	case Capella:
		return "capella"
	case Deneb:
		return "deneb"
	case Electra:
		return "electra"
	default:
		return fmt.Sprintf("fork(%d)", int8(f))
	}
}

// ForkEntry is one row of the schedule: the fork is active from Epoch on.
type ForkEntry struct {
	Fork                        Fork
	Epoch                       phase0.Epoch
	SlashingPenaltyQuotient     uint64
	WhistleblowerRewardQuotient uint64

	// share of the whistleblower reward kept by the proposer
	ProposerShareNumerator   uint64
	ProposerShareDenominator uint64
}

// ForkSchedule maps epochs to the protocol constants in force.
type ForkSchedule struct {
	entries []ForkEntry
}

// https://github.com/ethereum/consensus-specs/tree/dev/specs
var MainnetForkSchedule = NewForkSchedule([]ForkEntry{
	{
		Fork:                        Phase0,
		Epoch:                       0,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotient,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotient,
		ProposerShareNumerator:      1,
		ProposerShareDenominator:    ProposerRewardQuotient,
	},
	{
		Fork:                        Altair,
		Epoch:                       74240,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotientAltair,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotient,
		ProposerShareNumerator:      ProposerWeight,
		ProposerShareDenominator:    WeightDenominator,
	},
	{
		Fork:                        Bellatrix,
		Epoch:                       144896,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotientBellatrix,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotient,
		ProposerShareNumerator:      ProposerWeight,
		ProposerShareDenominator:    WeightDenominator,
	},
	{
		Fork:                        Capella,
		Epoch:                       194048,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotientBellatrix,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotient,
		ProposerShareNumerator:      ProposerWeight,
		ProposerShareDenominator:    WeightDenominator,
	},
	{
		Fork:                        Deneb,
		Epoch:                       269568,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotientBellatrix,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotient,
		ProposerShareNumerator:      ProposerWeight,
		ProposerShareDenominator:    WeightDenominator,
	},
	// EIP-7251 raised both quotients
	{
		Fork:                        Electra,
		Epoch:                       364032,
		SlashingPenaltyQuotient:     MinSlashingPenaltyQuotientElectra,
		WhistleblowerRewardQuotient: WhistleblowerRewardQuotientElectra,
		ProposerShareNumerator:      ProposerWeight,
		ProposerShareDenominator:    WeightDenominator,
	},
})

// NewForkSchedule sorts the entries by activation epoch. The first entry
// must activate at genesis and every entry needs its quotients.
func NewForkSchedule(entries []ForkEntry) ForkSchedule {
	sorted := make([]ForkEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Epoch < sorted[j].Epoch
	})
	if len(sorted) == 0 || sorted[0].Epoch != 0 {
		panic("fork schedule must start at epoch 0")
	}
	for _, e := range sorted {
		if e.SlashingPenaltyQuotient == 0 || e.WhistleblowerRewardQuotient == 0 || e.ProposerShareDenominator == 0 {
			panic(fmt.Sprintf("fork %s at epoch %d misses a quotient", e.Fork, e.Epoch))
		}
	}
	return ForkSchedule{entries: sorted}
}

// EntryAt returns the row in force at the given epoch. A fork epoch already
// belongs to the new fork.
func (s ForkSchedule) EntryAt(epoch phase0.Epoch) ForkEntry {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Epoch > epoch
	})
	return s.entries[i-1]
}

func (s ForkSchedule) ForkAt(epoch phase0.Epoch) Fork {
	return s.EntryAt(epoch).Fork
}

func (s ForkSchedule) SlashingPenaltyQuotient(epoch phase0.Epoch) uint64 {
	return s.EntryAt(epoch).SlashingPenaltyQuotient
}

func (s ForkSchedule) WhistleblowerRewardQuotient(epoch phase0.Epoch) uint64 {
	return s.EntryAt(epoch).WhistleblowerRewardQuotient
}

func (s ForkSchedule) Entries() []ForkEntry {
	out := make([]ForkEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
