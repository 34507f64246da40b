// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"flag"

	"github.com/spf13/viper"
)

const (
	startRate = "search.start-rate"
	maxRate   = "search.max-rate"
	growth    = "search.growth"

	defaultStartRate = 1000
	defaultMaxRate   = 1_000_000
	defaultGrowth    = 2.0
)

// AddFlags registers the search bounds on flagSet.
func AddFlags(flagSet *flag.FlagSet) {
	flagSet.Int(startRate, defaultStartRate, "First probed target rate, in messages or transactions per second")
	flagSet.Int(maxRate, defaultMaxRate, "Hard upper bound for probed rates")
	flagSet.Float64(growth, defaultGrowth, "Multiplier applied to the rate after each stable coarse trial; must be > 1")
}

// InitFromViper initializes Options with values from Viper.
func (opts *Options) InitFromViper(v *viper.Viper) *Options {
	opts.StartRate = v.GetInt(startRate)
	opts.MaxRate = v.GetInt(maxRate)
	opts.Growth = v.GetFloat64(growth)
	return opts
}
