package cmd

import (
	"fmt"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	cli "github.com/urfave/cli/v2"
)

var BalanceCommand = &cli.Command{
	Name:   "balance",
	Usage:  "print the current balance of a validator in Gwei",
	Action: LaunchBalance,
	Flags: withFlags([]cli.Flag{
		&cli.Uint64Flag{
			Name:     "validator",
			Usage:    "validator index, example: 12345",
			Required: true,
		},
	}, nodeFlags),
}

func LaunchBalance(c *cli.Context) error {
	chainAnalyzer, _, err := newAnalyzer(c, false)
	if err != nil {
		return err
	}
	defer chainAnalyzer.Close()

	balance, err := chainAnalyzer.Balance(phase0.ValidatorIndex(c.Uint64("validator")))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, balance.String())
	return nil
}
