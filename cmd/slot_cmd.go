package cmd

import (
	"github.com/migalabs/beacon-events/pkg/analyzer"
	cli "github.com/urfave/cli/v2"
)

var SlotCommand = &cli.Command{
	Name:   "slot",
	Usage:  "emit the withdrawals of a slot or a slot range with the beacon-withdrawals module",
	Action: LaunchSlotEvents,
	Flags: withFlags([]cli.Flag{
		&cli.StringFlag{
			Name:     "slot",
			Usage:    "slot or MIN:MAX slot range, example: 8640000:8640031",
			Required: true,
		},
	}, nodeFlags, processingFlags),
}

func LaunchSlotEvents(c *cli.Context) error {
	return launchRange(c, "slot", analyzer.WithdrawalsModuleName)
}
