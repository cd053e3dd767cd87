package analyzer

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/migalabs/beacon-events/pkg/ledger"
)

// EpochCache remembers the picture of the last assembled epoch. Adding a new
// epoch evicts the previous one.
type EpochCache struct {
	pictures *lru.Cache[phase0.Epoch, *ledger.Picture]
}

func NewEpochCache() *EpochCache {
	// size 1 never fails
	pictures, _ := lru.New[phase0.Epoch, *ledger.Picture](1)
	return &EpochCache{pictures: pictures}
}

// Get returns the cached picture of the epoch, as long as it was assembled
// for the same epoch hash.
func (c *EpochCache) Get(epoch phase0.Epoch, hash string) (*ledger.Picture, bool) {
	picture, ok := c.pictures.Get(epoch)
	if !ok {
		return nil, false
	}
	if picture.Identity.Hash != hash {
		c.pictures.Remove(epoch)
		return nil, false
	}
	return picture, true
}

func (c *EpochCache) Add(epoch phase0.Epoch, picture *ledger.Picture) {
	c.pictures.Add(epoch, picture)
}

func (c *EpochCache) Len() int {
	return c.pictures.Len()
}
