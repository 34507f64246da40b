// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package normalize implements the command that converts raw benchmark
// artifacts into per-resource-unit metrics.
package normalize

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/config"
	"github.com/loadline/loadline/internal/csvio"
	"github.com/loadline/loadline/internal/model"
	"github.com/loadline/loadline/internal/normalizer"
	"github.com/loadline/loadline/pkg/fswatcher"
)

const (
	dataDir      = "normalize.data-dir"
	dbCSV        = "normalize.db-csv"
	mqSummaryCSV = "normalize.mq-summary-csv"
	outDir       = "normalize.out-dir"
	watch        = "normalize.watch"

	artifactTimestampLayout = "20060102_150405"
)

type flagsConfig struct {
	dataDir      string
	dbCSV        string
	mqSummaryCSV string
	outDir       string
	watch        bool
}

func addFlags(flagSet *flag.FlagSet) {
	flagSet.String(dataDir, "datas", "Directory searched for the latest benchmark artifacts")
	flagSet.String(dbCSV, "", "Explicit database results CSV; overrides discovery")
	flagSet.String(mqSummaryCSV, "", "Explicit message queue summary CSV; overrides discovery")
	flagSet.String(outDir, "", "Output directory; empty writes next to the inputs")
	flagSet.Bool(watch, false, "Keep running and re-normalize whenever the data directory changes")
}

func (cfg *flagsConfig) initFromViper(v *viper.Viper) {
	cfg.dataDir = v.GetString(dataDir)
	cfg.dbCSV = v.GetString(dbCSV)
	cfg.mqSummaryCSV = v.GetString(mqSummaryCSV)
	cfg.outDir = v.GetString(outDir)
	if cfg.outDir == "" {
		cfg.outDir = cfg.dataDir
	}
	cfg.watch = v.GetBool(watch)
}

var errNoArtifacts = errors.New("no benchmark artifacts found")

// Command creates the normalize command.
func Command(v *viper.Viper, logger *zap.Logger) *cobra.Command {
	command := &cobra.Command{
		Use:   "normalize",
		Short: "Convert raw benchmark results into per-resource-unit metrics",
		Long: "Normalize picks up the latest database and message queue artifacts, " +
			"converts each usable row into metrics per core, per client and per GiB of " +
			"memory against the declared test environment, and writes one normalized " +
			"CSV per component family.",
		RunE: func(*cobra.Command, []string) error {
			return run(v, logger)
		},
	}
	config.AddFlags(v, command,
		normalizer.AddFlags,
		addFlags,
	)
	return command
}

func run(v *viper.Viper, logger *zap.Logger) error {
	opts := new(normalizer.Options).InitFromViper(v)
	if err := opts.Env.Validate(); err != nil {
		return err
	}
	var cfg flagsConfig
	cfg.initFromViper(v)

	n := normalizer.New(opts.Env, logger)
	runOnce := func() error {
		return normalizeAll(n, opts, cfg, logger)
	}

	if err := runOnce(); err != nil {
		if !cfg.watch {
			return err
		}
		logger.Warn("initial normalization failed, watching for new artifacts", zap.Error(err))
	}
	if !cfg.watch {
		return nil
	}

	watcher, err := fswatcher.New([]string{cfg.dataDir}, func() {
		if err := runOnce(); err != nil {
			logger.Error("normalization failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()
	logger.Info("watching for artifact changes", zap.String("dir", cfg.dataDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

func normalizeAll(n *normalizer.Normalizer, opts *normalizer.Options, cfg flagsConfig, logger *zap.Logger) error {
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return err
	}
	now := time.Now()
	processed := 0

	dbPath, err := discoverDB(cfg)
	if err != nil {
		return err
	}
	if dbPath != "" {
		if err := normalizeDB(n, opts, dbPath, cfg.outDir, now, logger); err != nil {
			return err
		}
		processed++
	}

	mqPath, err := discoverMQ(cfg)
	if err != nil {
		return err
	}
	if mqPath != "" {
		if err := normalizeMQ(n, opts, mqPath, cfg.outDir, now, logger); err != nil {
			return err
		}
		processed++
	}

	if processed == 0 {
		return fmt.Errorf("%w in %s", errNoArtifacts, cfg.dataDir)
	}
	return nil
}

// discoverDB prefers an explicit path, then a plain results.csv, then the
// newest artifact following the naming convention.
func discoverDB(cfg flagsConfig) (string, error) {
	if cfg.dbCSV != "" {
		return cfg.dbCSV, nil
	}
	plain := filepath.Join(cfg.dataDir, "results.csv")
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}
	for _, pattern := range []string{"*_kbbench_results_*.csv", "*kbbench*.csv"} {
		found, err := csvio.LatestMatching(cfg.dataDir, pattern)
		if err != nil || found != "" {
			return found, err
		}
	}
	return "", nil
}

func discoverMQ(cfg flagsConfig) (string, error) {
	if cfg.mqSummaryCSV != "" {
		return cfg.mqSummaryCSV, nil
	}
	return csvio.LatestMatching(cfg.dataDir, "*_perftest_summary_*.csv")
}

func normalizeDB(n *normalizer.Normalizer, opts *normalizer.Options, path, outDir string, now time.Time, logger *zap.Logger) error {
	records, err := csvio.ReadBenchRecords(path)
	if err != nil {
		return err
	}
	component := opts.DBComponent
	if c, ok := csvio.ComponentFromFilename(path); ok {
		component = c
	}
	rows, dropped := n.NormalizeDB(records, component)
	out := filepath.Join(outDir, fmt.Sprintf("normalized_db_%s_%s.csv", component, now.Format(artifactTimestampLayout)))
	if err := csvio.WriteNormalizedDB(out, rows); err != nil {
		return err
	}
	logger.Info("normalized database results",
		zap.String("input", path),
		zap.String("output", out),
		zap.Int("rows", len(rows)),
		zap.Int("dropped", dropped))
	logDBDigest(rows, logger)
	return nil
}

func normalizeMQ(n *normalizer.Normalizer, opts *normalizer.Options, path, outDir string, now time.Time, logger *zap.Logger) error {
	summaries, err := csvio.ReadSummaries(path)
	if err != nil {
		return err
	}
	component := opts.MQComponent
	if c, ok := csvio.ComponentFromFilename(path); ok {
		component = c
	}
	rows, dropped := n.NormalizeMQ(summaries, component)
	out := filepath.Join(outDir, fmt.Sprintf("normalized_mq_%s_%s.csv", component, now.Format(artifactTimestampLayout)))
	if err := csvio.WriteNormalizedMQ(out, rows); err != nil {
		return err
	}
	logger.Info("normalized message queue results",
		zap.String("input", path),
		zap.String("output", out),
		zap.Int("rows", len(rows)),
		zap.Int("dropped", dropped))
	logMQDigest(rows, logger)
	return nil
}

func logDBDigest(rows []model.NormalizedDB, logger *zap.Logger) {
	if len(rows) == 0 {
		return
	}
	var perCore, perGB, latency stat
	for _, r := range rows {
		perCore.add(r.TPSPerCore)
		perGB.add(r.TPSPerGBMemory)
		latency.add(r.LatencyPerTxMS)
	}
	logger.Info("database unit metrics",
		zap.Float64("tps_per_core_mean", perCore.mean()),
		zap.Float64("tps_per_core_max", perCore.max),
		zap.Float64("tps_per_gb_mean", perGB.mean()),
		zap.Float64("tps_per_gb_max", perGB.max),
		zap.Float64("latency_per_tx_ms_mean", latency.mean()))
}

func logMQDigest(rows []model.NormalizedMQ, logger *zap.Logger) {
	if len(rows) == 0 {
		return
	}
	var perCore, perGB, p95 stat
	for _, r := range rows {
		perCore.add(r.MsgPerSecPerCore)
		perGB.add(r.MsgPerSecPerGBMemory)
		p95.add(float64(r.WorstP95MS))
	}
	logger.Info("message queue unit metrics",
		zap.Float64("msg_per_sec_per_core_mean", perCore.mean()),
		zap.Float64("msg_per_sec_per_core_max", perCore.max),
		zap.Float64("msg_per_sec_per_gb_mean", perGB.mean()),
		zap.Float64("msg_per_sec_per_gb_max", perGB.max),
		zap.Float64("worst_p95_ms_mean", p95.mean()))
}

type stat struct {
	sum, max float64
	n        int
}

func (s *stat) add(v float64) {
	s.sum += v
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
}

func (s *stat) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}
