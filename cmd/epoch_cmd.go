package cmd

import (
	"github.com/migalabs/beacon-events/pkg/analyzer"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"
)

var EpochCommand = &cli.Command{
	Name:   "epoch",
	Usage:  "emit the events of an epoch or an epoch range with the beacon-main module",
	Action: LaunchEpochEvents,
	Flags: withFlags([]cli.Flag{
		&cli.StringFlag{
			Name:     "epoch",
			Usage:    "epoch or MIN:MAX epoch range, example: 270000:270010",
			Required: true,
		},
	}, nodeFlags, processingFlags),
}

func LaunchEpochEvents(c *cli.Context) error {
	return launchRange(c, "epoch", analyzer.EpochRewardsModuleName)
}

// launchRange processes the range given in flag with the module the command
// is meant for.
func launchRange(c *cli.Context, flag string, module string) error {
	blocks, err := utils.NewRangeFromString(c.String(flag))
	if err != nil {
		return errors.Wrapf(err, "invalid --%s", flag)
	}
	if !c.IsSet("module") {
		if err := c.Set("module", module); err != nil {
			return err
		}
	}

	chainAnalyzer, conf, err := newAnalyzer(c, true)
	if err != nil {
		return err
	}
	if conf.Module != module {
		chainAnalyzer.Close()
		return errors.Errorf("the %s command runs the %s module, got %s", c.Command.Name, module, conf.Module)
	}

	logCmdChain.Infof("processing %s %d to %d", flag, blocks.Min(), blocks.Max())
	return runUntilSignal(chainAnalyzer, func() error {
		return chainAnalyzer.ProcessRange(blocks)
	})
}
