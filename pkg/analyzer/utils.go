package analyzer

import (
	"strconv"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/sirupsen/logrus"
)

const (
	// attestation rewards are computed by the node over the whole epoch
	DefaultAttestationRewardsTimeout = 1800 * time.Second
	DefaultWorkers                   = 20
)

var (
	log = logrus.WithField(
		"module", "analyzer",
	)
)

func slotID(slot phase0.Slot) string {
	return strconv.FormatUint(uint64(slot), 10)
}

// missingData reports a response that was accepted but lacks something the
// rest of the epoch depends on.
func missingData(resp clientapi.Response, reason string) error {
	return &clientapi.UnexpectedResponseError{
		Node:   resp.Request.Node,
		Path:   resp.Request.Path,
		Code:   resp.Code,
		Reason: reason,
	}
}
