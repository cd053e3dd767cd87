package analyzer

import (
	"context"
	"net/http"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/migalabs/beacon-events/pkg/clientapi"
	"github.com/migalabs/beacon-events/pkg/consensus"
	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/shopspring/decimal"
)

// ProcessedBlock is the outcome of one slot or epoch: its agreed identity,
// the time of the block and the balanced events.
type ProcessedBlock struct {
	Identity spec.BlockIdentity
	Time     time.Time
	Events   []spec.Event
}

// ChainModule is the capability set the outer orchestrator drives. Every
// chain family implements it once.
type ChainModule interface {
	Name() string
	// InquireLatestBlock returns the highest block id that is safe to process.
	InquireLatestBlock(ctx context.Context) (uint64, error)
	EnsureBlock(ctx context.Context, id uint64) (spec.BlockIdentity, error)
	PreProcessBlock(ctx context.Context, id spec.BlockIdentity) (*ProcessedBlock, error)
	APIGetBalance(ctx context.Context, valIdx phase0.ValidatorIndex) (decimal.Decimal, error)
}

// ModuleDeps are the shared services a module is built from.
type ModuleDeps struct {
	Client    *clientapi.APIClient
	Consensus *consensus.Validator
	Assembler *EpochAssembler
}

type ModuleFactory func(deps ModuleDeps) (ChainModule, error)

// apiGetBalance reads the current balance of a validator at the head.
func apiGetBalance(ctx context.Context, cli *clientapi.APIClient, valIdx phase0.ValidatorIndex) (decimal.Decimal, error) {
	val, err := cli.Validator(ctx, "head", spec.FormatValidator(valIdx))
	if err != nil {
		return decimal.Zero, err
	}
	if val == nil {
		return decimal.Zero, &clientapi.UnexpectedResponseError{
			Path:   clientapi.ValidatorPath("head", spec.FormatValidator(valIdx)),
			Code:   http.StatusNotFound,
			Reason: "unknown validator",
		}
	}
	return spec.GweiAmount(val.Balance), nil
}

func headSlot(ctx context.Context, cli *clientapi.APIClient) (phase0.Slot, error) {
	header, err := cli.HeadHeader(ctx)
	if err != nil {
		return 0, err
	}
	return header.Header.Message.Slot, nil
}
