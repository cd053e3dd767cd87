package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"
)

func TestDefaultsAreValid(t *testing.T) {
	c := NewAnalyzerConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1800*time.Second, c.AttestationRewardsTimeout)
	assert.Equal(t, 10, c.ConsensusWorkers)
	assert.Equal(t, 20, c.RequestWorkers)
	assert.Equal(t, "beacon-main", c.Module)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *AnalyzerConfig){
		"no endpoints":        func(c *AnalyzerConfig) { c.BnEndpoints = nil },
		"zero timeout":        func(c *AnalyzerConfig) { c.Timeout = 0 },
		"zero att timeout":    func(c *AnalyzerConfig) { c.AttestationRewardsTimeout = 0 },
		"no consensus worker": func(c *AnalyzerConfig) { c.ConsensusWorkers = 0 },
		"no request worker":   func(c *AnalyzerConfig) { c.RequestWorkers = -1 },
		"bad port":            func(c *AnalyzerConfig) { c.PrometheusPort = 70000 },
		"no module":           func(c *AnalyzerConfig) { c.Module = "" },
		"bad log level":       func(c *AnalyzerConfig) { c.LogLevel = "verbose" },
		"bad log format":      func(c *AnalyzerConfig) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewAnalyzerConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseEndpoints(t *testing.T) {
	assert.Equal(t, []string{"http://a:5052", "http://b:5052"}, ParseEndpoints(" http://a:5052, ,http://b:5052,"))
	assert.Empty(t, ParseEndpoints(""))
}

func TestApply(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("bn-endpoints", "", "")
	set.Int("request-workers", 0, "")
	set.Duration("timeout", 0, "")
	set.Bool("break-on-first", false, "")
	set.String("module", "", "")
	require.NoError(t, set.Parse([]string{
		"--bn-endpoints", "http://a,http://b",
		"--request-workers", "5",
		"--timeout", "2s",
		"--break-on-first",
	}))
	ctx := cli.NewContext(cli.NewApp(), set, nil)

	c := NewAnalyzerConfig()
	c.Apply(ctx)
	assert.Equal(t, []string{"http://a", "http://b"}, c.BnEndpoints)
	assert.Equal(t, 5, c.RequestWorkers)
	assert.Equal(t, 2*time.Second, c.Timeout)
	assert.True(t, c.BreakOnFirst)
	// untouched flags keep their defaults
	assert.Equal(t, DefaultModule, c.Module)
	assert.Equal(t, DefaultConsensusWorkers, c.ConsensusWorkers)
}
