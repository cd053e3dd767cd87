package cmd

import (
	"fmt"

	cli "github.com/urfave/cli/v2"
)

var LatestCommand = &cli.Command{
	Name:   "latest",
	Usage:  "print the latest block id the selected module can process",
	Action: LaunchLatest,
	Flags:  nodeFlags,
}

func LaunchLatest(c *cli.Context) error {
	chainAnalyzer, _, err := newAnalyzer(c, false)
	if err != nil {
		return err
	}
	defer chainAnalyzer.Close()

	latest, err := chainAnalyzer.LatestBlock()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, latest)
	return nil
}
