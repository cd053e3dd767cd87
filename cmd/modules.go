package cmd

import (
	"sort"

	"github.com/migalabs/beacon-events/pkg/analyzer"
	"github.com/pkg/errors"
)

// moduleRegistry maps the --module names to their constructors.
var moduleRegistry = map[string]analyzer.ModuleFactory{
	analyzer.EpochRewardsModuleName: analyzer.NewEpochRewardsModule,
	analyzer.WithdrawalsModuleName:  analyzer.NewWithdrawalsModule,
}

func lookupModule(name string) (analyzer.ModuleFactory, error) {
	factory, ok := moduleRegistry[name]
	if !ok {
		return nil, errors.Errorf("unknown module %q, available: %v", name, ModuleNames())
	}
	return factory, nil
}

func ModuleNames() []string {
	names := make([]string, 0, len(moduleRegistry))
	for name := range moduleRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
