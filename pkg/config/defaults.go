package config

import (
	"time"

	"github.com/migalabs/beacon-events/pkg/utils"
)

var (
	DefaultLogLevel                  string        = utils.DefaultLogLevel
	DefaultLogFormat                 string        = utils.DefaultLogFormat
	DefaultBnEndpoints               []string      = []string{"http://localhost:5052"}
	DefaultTimeout                   time.Duration = 30 * time.Second
	DefaultAttestationRewardsTimeout time.Duration = 1800 * time.Second
	DefaultConsensusWorkers          int           = 10
	DefaultRequestWorkers            int           = 20
	DefaultBreakOnFirst              bool          = false
	DefaultPrometheusPort            int           = 9080
	DefaultOutput                    string        = "-"
	DefaultCompress                  bool          = false
	DefaultModule                    string        = "beacon-main"
)
