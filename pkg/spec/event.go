package spec

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is one immutable ledger row. Every monetary effect is represented by
// two events whose effects add up to zero, one of them against TheVoid.
type Event struct {
	Block        uint64          `json:"block"`
	Transaction  *string         `json:"transaction"`
	SortKey      uint64          `json:"sort_key"`
	Time         time.Time       `json:"time"`
	Address      string          `json:"address"`
	Effect       decimal.Decimal `json:"effect"`
	Failed       bool            `json:"failed"`
	Extra        EventKind       `json:"extra"`
	ExtraIndexed *string         `json:"extra_indexed"`
}

// Sum adds the effects of the given events.
func Sum(events []Event) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.Effect)
	}
	return total
}
