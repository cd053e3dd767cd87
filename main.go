package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/migalabs/beacon-events/cmd"
	"github.com/migalabs/beacon-events/pkg/utils"
)

var log = logrus.WithField("cli", utils.CliName)

func main() {
	// stdout may carry the events, the banner never does
	fmt.Fprintf(os.Stderr, "%s %s\n", utils.CliName, utils.Version)

	// commands reconfigure logging once their flags are parsed
	if err := utils.ConfigureLogging(utils.DefaultLogLevel, utils.DefaultLogFormat, utils.StdoutOutput); err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name:                 utils.CliName,
		Usage:                "Turns the Beacon Chain rewards, penalties, withdrawals and deposits into a balanced event ledger.",
		UsageText:            "beacon-events <command> [flags]",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			cmd.EpochCommand,
			cmd.SlotCommand,
			cmd.LatestCommand,
			cmd.BalanceCommand,
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
