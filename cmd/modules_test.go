package cmd

import (
	"testing"

	"github.com/migalabs/beacon-events/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupModule(t *testing.T) {
	assert.Equal(t, []string{analyzer.EpochRewardsModuleName, analyzer.WithdrawalsModuleName}, ModuleNames())

	for _, name := range ModuleNames() {
		factory, err := lookupModule(name)
		require.NoError(t, err)
		assert.NotNil(t, factory)
	}

	_, err := lookupModule("execution-main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beacon-main")
}
