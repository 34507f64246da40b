// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package normalizer

import (
	"errors"
	"flag"

	"github.com/spf13/viper"
)

const (
	cpuCores    = "normalize.cpu-cores"
	memoryGB    = "normalize.memory-gb"
	dbComponent = "normalize.db-component"
	mqComponent = "normalize.mq-component"

	defaultCPUCores    = 4
	defaultMemoryGB    = 4.0
	defaultDBComponent = "KingbaseES"
	defaultMQComponent = "RabbitMQ"
)

var (
	errCPUCores = errors.New("test environment must declare at least one CPU core")
	errMemoryGB = errors.New("test environment memory must be greater than 0")
)

// Options bundles the test environment description with the component names
// stamped on normalized rows.
type Options struct {
	Env         Environment
	DBComponent string
	MQComponent string
}

// AddFlags registers the normalization flags on flagSet.
func AddFlags(flagSet *flag.FlagSet) {
	flagSet.Int(cpuCores, defaultCPUCores, "CPU core count of the test host")
	flagSet.Float64(memoryGB, defaultMemoryGB, "Memory size of the test host, in GiB")
	flagSet.String(dbComponent, defaultDBComponent, "Component name stamped on normalized database rows")
	flagSet.String(mqComponent, defaultMQComponent, "Component name stamped on normalized message queue rows")
}

// InitFromViper initializes Options with values from Viper.
func (opts *Options) InitFromViper(v *viper.Viper) *Options {
	opts.Env.CPUCores = v.GetInt(cpuCores)
	opts.Env.MemoryGB = v.GetFloat64(memoryGB)
	opts.DBComponent = v.GetString(dbComponent)
	opts.MQComponent = v.GetString(mqComponent)
	return opts
}

// Validate rejects environments the unit metrics cannot be derived for.
func (e Environment) Validate() error {
	if e.CPUCores <= 0 {
		return errCPUCores
	}
	if e.MemoryGB <= 0 {
		return errMemoryGB
	}
	return nil
}
