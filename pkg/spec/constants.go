package spec

/*
Phase0
*/

const (
	SlotsPerEpoch          = 32
	SlotSeconds            = 12
	ProposerRewardQuotient = 8

	WhistleblowerRewardQuotient = 512

	MinSlashingPenaltyQuotient = 128
)

/*
Altair
*/
const (
	ProposerWeight    = 8
	WeightDenominator = 64

	MinSlashingPenaltyQuotientAltair = 64
)

/*
Bellatrix
*/
const (
	MinSlashingPenaltyQuotientBellatrix = 32
)

/*
Electra
*/
const (
	MinSlashingPenaltyQuotientElectra  = 4096
	WhistleblowerRewardQuotientElectra = 4096
)

// TheVoid is the counterparty of every ledger entry that creates or
// destroys value.
const TheVoid = "the-void"

// EventKind classifies a ledger event.
type EventKind string

const (
	AttestationReward       EventKind = "a"
	ProposerReward          EventKind = "p"
	OrphanedBlock           EventKind = "o"
	Withdrawal              EventKind = "w"
	Deposit                 EventKind = "d"
	AttesterSlashingReward  EventKind = "sa"
	ProposerSlashingReward  EventKind = "sp"
	AttesterSlashingPenalty EventKind = "ap"
	ProposerSlashingPenalty EventKind = "pp"
)

var EventKindDetails = map[EventKind]string{
	AttestationReward:       "Attestation rewards",
	ProposerReward:          "Proposer reward",
	OrphanedBlock:           "Orphaned or missed block (no rewards for proposer)",
	Withdrawal:              "Withdrawal",
	Deposit:                 "New deposit",
	AttesterSlashingReward:  "Reward for slashing attestor",
	ProposerSlashingReward:  "Reward for slashing proposer",
	AttesterSlashingPenalty: "Attestor penalty",
	ProposerSlashingPenalty: "Proposer penalty",
}
