// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/loadline/loadline/cmd/loadline/app/extrapolate"
	"github.com/loadline/loadline/cmd/loadline/app/normalize"
	"github.com/loadline/loadline/cmd/loadline/app/probe"
	"github.com/loadline/loadline/cmd/loadline/app/sweep"
	"github.com/loadline/loadline/pkg/version"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	v := viper.New()

	command := &cobra.Command{
		Use:   "loadline",
		Short: "Benchmark capacity modeling pipeline",
		Long: "Loadline probes the maximum stable throughput of messaging brokers, sweeps " +
			"transactional database benchmarks, normalizes the results into per-resource-unit " +
			"metrics and extrapolates the resources needed to meet a service-level objective.",
	}
	command.AddCommand(probe.Command(v, logger))
	command.AddCommand(sweep.Command(v, logger))
	command.AddCommand(normalize.Command(v, logger))
	command.AddCommand(extrapolate.Command(v, logger))
	command.AddCommand(version.Command())

	if err := command.Execute(); err != nil {
		log.Fatalln(err)
	}
}
