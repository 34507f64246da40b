// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package sweep implements the transactional benchmark sweep command.
package sweep

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/loadline/loadline/cmd/loadline/app"
	"github.com/loadline/loadline/internal/config"
	"github.com/loadline/loadline/internal/csvio"
	"github.com/loadline/loadline/internal/metrics"
	prometheusmetrics "github.com/loadline/loadline/internal/metrics/prometheus"
	"github.com/loadline/loadline/internal/model"
	"github.com/loadline/loadline/internal/runner"
)

const sweepOut = "sweep.out"

func addSweepFlags(flagSet *flag.FlagSet) {
	flagSet.String(sweepOut, "", "Result CSV path; empty derives it from the output options")
}

// Command creates the sweep command.
func Command(v *viper.Viper, logger *zap.Logger) *cobra.Command {
	command := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the database benchmark across client counts",
		Long: "Sweep runs the transactional benchmark tool inside the database container " +
			"for each configured client count, appending one CSV row per invocation. " +
			"Failed invocations are recorded with their output and the sweep continues.",
		RunE: func(*cobra.Command, []string) error {
			return run(v, logger)
		},
	}
	config.AddFlags(v, command,
		runner.AddBenchFlags,
		addSweepFlags,
		app.AddOutputFlags("KingbaseES"),
		app.AddAdminFlags,
	)
	return command
}

func run(v *viper.Viper, logger *zap.Logger) error {
	benchOpts := new(runner.BenchOptions).InitFromViper(v)
	outputOpts := new(app.OutputOptions).InitFromViper(v)

	registry := prometheus.NewRegistry()
	metricsFactory := prometheusmetrics.New(prometheusmetrics.WithRegisterer(registry)).
		Namespace(metrics.NSOptions{Name: "loadline"})
	if hostPort := app.AdminHostPort(v); hostPort != "" {
		admin := app.NewAdminServer(hostPort, registry, logger)
		if err := admin.Serve(); err != nil {
			return err
		}
		defer admin.Close()
	}

	out := v.GetString(sweepOut)
	if out == "" {
		if err := os.MkdirAll(outputOpts.Dir, 0o755); err != nil {
			return err
		}
		out = outputOpts.ArtifactPath("kbbench_results", time.Now())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bench := runner.NewBenchRunner(*benchOpts, metricsFactory, logger)
	err := bench.Sweep(ctx, func(rec model.BenchRecord) error {
		return csvio.AppendBenchRecord(out, rec)
	})
	if err != nil {
		return err
	}
	logger.Info("sweep results written", zap.String("path", out))
	return nil
}
