// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package probe implements the adaptive max-throughput search command for
// messaging brokers.
package probe

import (
	"context"
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
	"github.com/loadline/loadline/internal/search"
	"github.com/loadline/loadline/internal/stability"
)

// Command creates the probe command.
func Command(v *viper.Viper, logger *zap.Logger) *cobra.Command {
	command := &cobra.Command{
		Use:   "probe",
		Short: "Find the maximum stable message rate of a broker",
		Long: "Probe runs the perf-test harness at exponentially growing target rates, " +
			"then bisects to the highest rate the broker sustains within the stability " +
			"thresholds. Every trial is written to timeseries and summary CSV files.",
		RunE: func(*cobra.Command, []string) error {
			return run(v, logger)
		},
	}
	config.AddFlags(v, command,
		runner.AddPerfTestFlags,
		search.AddFlags,
		stability.AddFlags,
		app.AddOutputFlags("RabbitMQ"),
		app.AddAdminFlags,
	)
	return command
}

func run(v *viper.Viper, logger *zap.Logger) error {
	perfOpts := new(runner.PerfTestOptions).InitFromViper(v)
	searchOpts := new(search.Options).InitFromViper(v)
	var thresholds stability.Thresholds
	thresholds.InitFromViper(v)
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

	if err := os.MkdirAll(outputOpts.Dir, 0o755); err != nil {
		return err
	}
	now := time.Now()
	tsPath := outputOpts.ArtifactPath("perftest_timeseries", now)
	sumPath := outputOpts.ArtifactPath("perftest_summary", now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	harness := runner.NewPerfTestRunner(*perfOpts, thresholds, logger)
	var recorded []*model.Trial

	engine, err := search.NewEngine(*searchOpts, harness, metricsFactory, logger)
	if err != nil {
		return err
	}
	engine.OnTrial = func(trial *model.Trial) {
		recorded = append(recorded, trial)
	}

	warmup, err := harness.Warmup(ctx)
	if err != nil {
		return err
	}
	if warmup != nil {
		recorded = append(recorded, warmup)
	}

	result, runErr := engine.Run(ctx)

	// The trial log survives even when the harness died mid-search.
	writeErr := writeArtifacts(tsPath, sumPath, recorded, logger)
	if runErr != nil {
		return runErr
	}
	if writeErr != nil {
		return writeErr
	}

	switch result.Outcome {
	case search.OutcomeNoStableRate:
		logger.Warn("no successful rate found; check broker, parameters and network")
	case search.OutcomeCappedAtMax:
		logger.Info("max stable throughput is at or above the configured cap",
			zap.Int("rate_msg_s", result.MaxStableRate),
			zap.Int("max_rate", searchOpts.MaxRate))
	case search.OutcomeConverged:
		logger.Info("estimated max stable throughput",
			zap.Int("rate_msg_s", result.MaxStableRate),
			zap.Float64("success_ratio", thresholds.SuccessRatio),
			zap.Int("p95_limit_ms", thresholds.P95LimitMS))
	}
	return nil
}

func writeArtifacts(tsPath, sumPath string, trials []*model.Trial, logger *zap.Logger) error {
	if err := csvio.WriteTimeSeries(tsPath, trials); err != nil {
		return err
	}
	summaries := make([]model.TrialSummary, 0, len(trials))
	for _, trial := range trials {
		summaries = append(summaries, trial.Summary())
	}
	if err := csvio.WriteSummaries(sumPath, summaries); err != nil {
		return err
	}
	logger.Info("results written",
		zap.String("summary", sumPath),
		zap.String("timeseries", tsPath),
		zap.Int("trials", len(trials)))
	return nil
}
