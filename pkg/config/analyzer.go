package config

import (
	"strings"
	"time"

	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

type AnalyzerConfig struct {
	LogLevel                  string        `json:"log-level"`
	LogFormat                 string        `json:"log-format"`
	BnEndpoints               []string      `json:"bn-endpoints"`
	Timeout                   time.Duration `json:"timeout"`
	AttestationRewardsTimeout time.Duration `json:"attestation-rewards-timeout"`
	ConsensusWorkers          int           `json:"consensus-workers"`
	RequestWorkers            int           `json:"request-workers"`
	BreakOnFirst              bool          `json:"break-on-first"`
	PrometheusPort            int           `json:"prometheus-port"`
	Output                    string        `json:"output"`
	Compress                  bool          `json:"compress"`
	Module                    string        `json:"module"`
}

func NewAnalyzerConfig() *AnalyzerConfig {
	// Return Default values for the beacon configuration
	endpoints := make([]string, len(DefaultBnEndpoints))
	copy(endpoints, DefaultBnEndpoints)
	return &AnalyzerConfig{
		LogLevel:                  DefaultLogLevel,
		LogFormat:                 DefaultLogFormat,
		BnEndpoints:               endpoints,
		Timeout:                   DefaultTimeout,
		AttestationRewardsTimeout: DefaultAttestationRewardsTimeout,
		ConsensusWorkers:          DefaultConsensusWorkers,
		RequestWorkers:            DefaultRequestWorkers,
		BreakOnFirst:              DefaultBreakOnFirst,
		PrometheusPort:            DefaultPrometheusPort,
		Output:                    DefaultOutput,
		Compress:                  DefaultCompress,
		Module:                    DefaultModule,
	}
}

func (c *AnalyzerConfig) Apply(ctx *cli.Context) {
	// apply to the existing Default configuration the set flags
	// log level
	if ctx.IsSet("log-level") {
		c.LogLevel = ctx.String("log-level")
	}
	// log format
	if ctx.IsSet("log-format") {
		c.LogFormat = ctx.String("log-format")
	}
	// beacon nodes
	if ctx.IsSet("bn-endpoints") {
		c.BnEndpoints = ParseEndpoints(ctx.String("bn-endpoints"))
	}
	// per request timeout
	if ctx.IsSet("timeout") {
		c.Timeout = ctx.Duration("timeout")
	}
	// epoch attestation rewards timeout
	if ctx.IsSet("attestation-rewards-timeout") {
		c.AttestationRewardsTimeout = ctx.Duration("attestation-rewards-timeout")
	}
	// header consensus fan-out
	if ctx.IsSet("consensus-workers") {
		c.ConsensusWorkers = ctx.Int("consensus-workers")
	}
	// rewards and bodies fan-out
	if ctx.IsSet("request-workers") {
		c.RequestWorkers = ctx.Int("request-workers")
	}
	// single node mode
	if ctx.IsSet("break-on-first") {
		c.BreakOnFirst = ctx.Bool("break-on-first")
	}
	// prometheus port
	if ctx.IsSet("prometheus-port") {
		c.PrometheusPort = ctx.Int("prometheus-port")
	}
	// event output
	if ctx.IsSet("output") {
		c.Output = ctx.String("output")
	}
	// snappy framing
	if ctx.IsSet("compress") {
		c.Compress = ctx.Bool("compress")
	}
	// chain module
	if ctx.IsSet("module") {
		c.Module = ctx.String("module")
	}
}

// ParseEndpoints splits a comma separated list of nodes, dropping empty
// items.
func ParseEndpoints(s string) []string {
	out := make([]string, 0)
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (c *AnalyzerConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if _, err := utils.LogFormatter(c.LogFormat); err != nil {
		return err
	}
	if len(c.BnEndpoints) == 0 {
		return errors.New("at least one beacon node endpoint is required")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("invalid timeout %s", c.Timeout)
	}
	if c.AttestationRewardsTimeout <= 0 {
		return errors.Errorf("invalid attestation rewards timeout %s", c.AttestationRewardsTimeout)
	}
	if c.ConsensusWorkers <= 0 {
		return errors.Errorf("invalid number of consensus workers %d", c.ConsensusWorkers)
	}
	if c.RequestWorkers <= 0 {
		return errors.Errorf("invalid number of request workers %d", c.RequestWorkers)
	}
	if c.PrometheusPort < 0 || c.PrometheusPort > 65535 {
		return errors.Errorf("invalid prometheus port %d", c.PrometheusPort)
	}
	if c.Module == "" {
		return errors.New("no module selected")
	}
	return nil
}
