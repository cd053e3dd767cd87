package mocknode

import (
	"fmt"
	"strconv"
	"strings"
)

// Root returns a deterministic 32 byte root for n.
func Root(n uint64) string {
	return fmt.Sprintf("0x%064x", n)
}

// Address returns a deterministic execution address for n.
func Address(n uint64) string {
	return fmt.Sprintf("0x%040x", n)
}

// Pubkey returns a deterministic 48 byte validator key for n.
func Pubkey(n uint64) string {
	return fmt.Sprintf("0x%096x", n)
}

// Signature returns a zeroed 96 byte BLS signature.
func Signature() string {
	return "0x" + strings.Repeat("00", 96)
}

func Str(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// Header builds a headers/{slot} data payload.
func Header(slot uint64, root string, parentRoot string, proposer uint64) map[string]interface{} {
	return map[string]interface{}{
		"root":      root,
		"canonical": true,
		"header":    signedHeader(slot, proposer, parentRoot, Root(1_000_000+slot), Root(2_000_000+slot)),
	}
}

func signedHeader(slot, proposer uint64, parentRoot, stateRoot, bodyRoot string) map[string]interface{} {
	return map[string]interface{}{
		"message": map[string]interface{}{
			"slot":           Str(slot),
			"proposer_index": Str(proposer),
			"parent_root":    parentRoot,
			"state_root":     stateRoot,
			"body_root":      bodyRoot,
		},
		"signature": Signature(),
	}
}

// BlockBody groups the optional parts of a block payload.
type BlockBody struct {
	Timestamp         *uint64
	Withdrawals       []interface{}
	Deposits          []interface{}
	AttesterSlashings []interface{}
	ProposerSlashings []interface{}
	Attestations      []interface{}
}

// Block builds a blocks/{slot} data payload.
func Block(slot uint64, proposer uint64, body BlockBody) map[string]interface{} {
	b := map[string]interface{}{
		"randao_reveal":      Signature(),
		"graffiti":           Root(0),
		"attestations":       nonNil(body.Attestations),
		"attester_slashings": nonNil(body.AttesterSlashings),
		"proposer_slashings": nonNil(body.ProposerSlashings),
		"deposits":           nonNil(body.Deposits),
		"voluntary_exits":    []interface{}{},
	}
	if body.Timestamp != nil {
		b["execution_payload"] = map[string]interface{}{
			"timestamp":   Str(*body.Timestamp),
			"block_hash":  Root(3_000_000 + slot),
			"withdrawals": nonNil(body.Withdrawals),
		}
	}
	return map[string]interface{}{
		"message": map[string]interface{}{
			"slot":           Str(slot),
			"proposer_index": Str(proposer),
			"parent_root":    Root(slot - 1),
			"state_root":     Root(1_000_000 + slot),
			"body":           b,
		},
		"signature": Signature(),
	}
}

func nonNil(l []interface{}) []interface{} {
	if l == nil {
		return []interface{}{}
	}
	return l
}

func Withdrawal(index, validator uint64, address string, amount uint64) map[string]interface{} {
	return map[string]interface{}{
		"index":           Str(index),
		"validator_index": Str(validator),
		"address":         address,
		"amount":          Str(amount),
	}
}

func Deposit(pubkey string, credentials string, amount uint64) map[string]interface{} {
	proof := make([]string, 33)
	for i := range proof {
		proof[i] = Root(uint64(i))
	}
	return map[string]interface{}{
		"proof": proof,
		"data": map[string]interface{}{
			"pubkey":                 pubkey,
			"withdrawal_credentials": credentials,
			"amount":                 Str(amount),
			"signature":              Signature(),
		},
	}
}

func AttesterSlashing(set1, set2 []uint64) map[string]interface{} {
	return map[string]interface{}{
		"attestation_1": IndexedAttestation(set1, 1),
		"attestation_2": IndexedAttestation(set2, 2),
	}
}

// IndexedAttestation takes indices as given, nil renders as null.
func IndexedAttestation(indices []uint64, root uint64) map[string]interface{} {
	var attesting interface{}
	if indices != nil {
		attesting = strs(indices)
	}
	return map[string]interface{}{
		"attesting_indices": attesting,
		"data":              AttestationData(0, 0, root),
		"signature":         Signature(),
	}
}

func ProposerSlashing(proposer uint64, slot uint64) map[string]interface{} {
	return map[string]interface{}{
		"signed_header_1": signedHeader(slot, proposer, Root(slot-1), Root(1), Root(1)),
		"signed_header_2": signedHeader(slot, proposer, Root(slot-1), Root(2), Root(2)),
	}
}

func AttestationData(slot uint64, committee uint64, root uint64) map[string]interface{} {
	checkpoint := map[string]interface{}{"epoch": "0", "root": Root(0)}
	return map[string]interface{}{
		"slot":              Str(slot),
		"index":             Str(committee),
		"beacon_block_root": Root(root),
		"source":            checkpoint,
		"target":            checkpoint,
	}
}

func Attestation(bits string, slot uint64, committee uint64) map[string]interface{} {
	return map[string]interface{}{
		"aggregation_bits": bits,
		"data":             AttestationData(slot, committee, slot),
		"signature":        Signature(),
	}
}

func BlockRewards(proposer uint64, attestations, syncAggregate, proposerSlashings, attesterSlashings uint64) map[string]interface{} {
	return map[string]interface{}{
		"proposer_index":     Str(proposer),
		"total":              Str(attestations + syncAggregate + proposerSlashings + attesterSlashings),
		"attestations":       Str(attestations),
		"sync_aggregate":     Str(syncAggregate),
		"proposer_slashings": Str(proposerSlashings),
		"attester_slashings": Str(attesterSlashings),
	}
}

// SyncReward uses a signed reward, members that missed their duty lose Gwei.
func SyncReward(validator uint64, reward int64) map[string]interface{} {
	return map[string]interface{}{
		"validator_index": Str(validator),
		"reward":          strconv.FormatInt(reward, 10),
	}
}

// AttestationReward takes an unsigned head reward, only target and source
// carry penalties.
func AttestationReward(validator uint64, head uint64, target, source int64) map[string]interface{} {
	return map[string]interface{}{
		"validator_index": Str(validator),
		"head":            Str(head),
		"target":          strconv.FormatInt(target, 10),
		"source":          strconv.FormatInt(source, 10),
		"inclusion_delay": "0",
		"inactivity":      "0",
	}
}

func Validator(index uint64, pubkey string, balance, effectiveBalance uint64, slashed bool) map[string]interface{} {
	return map[string]interface{}{
		"index":   Str(index),
		"balance": Str(balance),
		"status":  "active_ongoing",
		"validator": map[string]interface{}{
			"pubkey":                       pubkey,
			"withdrawal_credentials":       Root(index),
			"effective_balance":            Str(effectiveBalance),
			"slashed":                      slashed,
			"activation_eligibility_epoch": "0",
			"activation_epoch":             "0",
			"exit_epoch":                   farFuture,
			"withdrawable_epoch":           farFuture,
		},
	}
}

const farFuture = "18446744073709551615"

// Genesis builds a genesis data payload for a mainnet-like chain.
func Genesis(genesisTime int64) map[string]interface{} {
	return map[string]interface{}{
		"genesis_time":            strconv.FormatInt(genesisTime, 10),
		"genesis_validators_root": Root(0),
		"genesis_fork_version":    "0x00000000",
	}
}

func ProposerDuty(validator uint64, slot uint64) map[string]interface{} {
	return map[string]interface{}{
		"pubkey":          Pubkey(validator),
		"validator_index": Str(validator),
		"slot":            Str(slot),
	}
}

func Committee(index uint64, slot uint64, validators []uint64) map[string]interface{} {
	return map[string]interface{}{
		"index":      Str(index),
		"slot":       Str(slot),
		"validators": strs(validators),
	}
}

func strs(l []uint64) []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		out = append(out, Str(v))
	}
	return out
}
