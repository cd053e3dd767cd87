package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/migalabs/beacon-events/pkg/analyzer"
	"github.com/migalabs/beacon-events/pkg/config"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

var logCmdChain = logrus.WithField(
	"module", "chainCommand",
)

// nodeFlags are shared by every command that talks to beacon nodes.
var nodeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "bn-endpoints",
		Usage: "comma separated beacon node endpoints, example: http://localhost:5052,http://localhost:5053",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "timeout of a single beacon node request, example: 30s",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "log level: trace, debug, info, warn, error",
	},
	&cli.StringFlag{
		Name:  "log-format",
		Usage: "log format: text, json",
	},
	&cli.StringFlag{
		Name:  "module",
		Usage: "chain module: beacon-main, beacon-withdrawals",
	},
}

// processingFlags are used by the commands that produce events.
var processingFlags = []cli.Flag{
	&cli.DurationFlag{
		Name:  "attestation-rewards-timeout",
		Usage: "timeout of the epoch attestation rewards request, example: 30m",
	},
	&cli.IntFlag{
		Name:  "consensus-workers",
		Usage: "concurrent header requests during consensus checks, example: 10",
	},
	&cli.IntFlag{
		Name:  "request-workers",
		Usage: "concurrent block and reward requests, example: 20",
	},
	&cli.BoolFlag{
		Name:  "break-on-first",
		Usage: "trust the first beacon node without cross checking the rest",
	},
	&cli.IntFlag{
		Name:  "prometheus-port",
		Usage: "example: 9080, 0 disables the exporter",
	},
	&cli.StringFlag{
		Name:  "output",
		Usage: "file the events are appended to, - for stdout",
	},
	&cli.BoolFlag{
		Name:  "compress",
		Usage: "write the events in snappy framed format",
	},
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// newAnalyzer composes the configuration and builds the analyzer of the
// selected module. One shot queries run without the prometheus exporter.
func newAnalyzer(c *cli.Context, exporter bool) (*analyzer.ChainAnalyzer, *config.AnalyzerConfig, error) {
	conf := config.NewAnalyzerConfig()
	conf.Apply(c)
	if !exporter {
		conf.PrometheusPort = 0
	}

	if err := utils.ConfigureLogging(conf.LogLevel, conf.LogFormat, conf.Output); err != nil {
		return nil, nil, err
	}

	factory, err := lookupModule(conf.Module)
	if err != nil {
		return nil, nil, err
	}
	chainAnalyzer, err := analyzer.NewChainAnalyzer(c.Context, *conf, factory)
	if err != nil {
		return nil, nil, err
	}
	return chainAnalyzer, conf, nil
}

// runUntilSignal runs fn and closes the analyzer when it finishes or when
// the process is interrupted.
func runUntilSignal(chainAnalyzer *analyzer.ChainAnalyzer, fn func() error) error {
	procDoneC := make(chan error, 1)
	sigtermC := make(chan os.Signal, 1)

	signal.Notify(sigtermC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigtermC)

	go func() {
		procDoneC <- fn()
	}()

	select {
	case <-sigtermC:
		logCmdChain.Info("Sudden shutdown detected, controlled shutdown of the cli triggered")
		chainAnalyzer.Close()
		return nil

	case err := <-procDoneC:
		chainAnalyzer.Close()
		if err != nil {
			return err
		}
		logCmdChain.Info("Process successfully finish!")
		return nil
	}
}
