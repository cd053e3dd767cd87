package spec

import (
	"strconv"
	"strings"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	log = logrus.WithField(
		"module", "spec",
	)
)

func EpochAtSlot(slot phase0.Slot) phase0.Epoch {
	return phase0.Epoch(slot / SlotsPerEpoch)
}

func FirstSlotInEpoch(epoch phase0.Epoch) phase0.Slot {
	return phase0.Slot(epoch * SlotsPerEpoch)
}

func LastSlotInEpoch(epoch phase0.Epoch) phase0.Slot {
	return FirstSlotInEpoch(epoch) + SlotsPerEpoch - 1
}

// SlotTime returns the wall clock start of a slot.
func SlotTime(genesis time.Time, slot phase0.Slot) time.Time {
	return genesis.Add(time.Duration(slot) * SlotSeconds * time.Second).UTC()
}

func FormatValidator(valIdx phase0.ValidatorIndex) string {
	return strconv.FormatUint(uint64(valIdx), 10)
}

func FormatSlot(slot phase0.Slot) string {
	return strconv.FormatUint(uint64(slot), 10)
}

func FormatValidators(idxs []phase0.ValidatorIndex) string {
	parts := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		parts = append(parts, FormatValidator(idx))
	}
	return strings.Join(parts, ",")
}

func StrPtr(s string) *string {
	return &s
}

// GweiAmount turns an unsigned amount served by a node into a ledger amount.
func GweiAmount(g phase0.Gwei) decimal.Decimal {
	return decimal.NewFromUint64(uint64(g))
}

// SignedGweiAmount is GweiAmount for the reward fields that may be negative.
func SignedGweiAmount(g int64) decimal.Decimal {
	return decimal.NewFromInt(g)
}
