// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package extrapolate implements the SLO-driven capacity sizing command.
package extrapolate

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/config"
	"github.com/loadline/loadline/internal/csvio"
	"github.com/loadline/loadline/internal/extrapolate"
	"github.com/loadline/loadline/internal/model"
)

const (
	sloFile = "slo.file"
	dbCSV   = "extrapolate.db-csv"
	mqCSV   = "extrapolate.mq-csv"
	dataDir = "extrapolate.data-dir"
	outDir  = "extrapolate.out-dir"

	artifactTimestampLayout = "20060102_150405"
)

var errNoSLOFile = errors.New("an SLO targets file is required, see --slo.file")

type flagsConfig struct {
	sloFile string
	dbCSV   string
	mqCSV   string
	dataDir string
	outDir  string
}

func addFlags(flagSet *flag.FlagSet) {
	flagSet.String(sloFile, "", "JSON file with the SLO targets to size for")
	flagSet.String(dbCSV, "", "Explicit normalized database CSV; overrides discovery")
	flagSet.String(mqCSV, "", "Explicit normalized message queue CSV; overrides discovery")
	flagSet.String(dataDir, "datas", "Directory searched for the latest normalized artifacts")
	flagSet.String(outDir, "", "Output directory; empty writes next to the inputs")
}

func (cfg *flagsConfig) initFromViper(v *viper.Viper) {
	cfg.sloFile = v.GetString(sloFile)
	cfg.dbCSV = v.GetString(dbCSV)
	cfg.mqCSV = v.GetString(mqCSV)
	cfg.dataDir = v.GetString(dataDir)
	cfg.outDir = v.GetString(outDir)
	if cfg.outDir == "" {
		cfg.outDir = cfg.dataDir
	}
}

// Command creates the extrapolate command.
func Command(v *viper.Viper, logger *zap.Logger) *cobra.Command {
	command := &cobra.Command{
		Use:   "extrapolate",
		Short: "Size an environment for an SLO from normalized baselines",
		Long: "Extrapolate reads normalized unit metrics, picks the best baseline that " +
			"satisfies each SLO target's latency bound and derives the core and memory " +
			"budget needed to sustain the target throughput, assuming linear scaling.",
		RunE: func(*cobra.Command, []string) error {
			return run(v, logger)
		},
	}
	config.AddFlags(v, command, addFlags)
	return command
}

func run(v *viper.Viper, logger *zap.Logger) error {
	var cfg flagsConfig
	cfg.initFromViper(v)
	if cfg.sloFile == "" {
		return errNoSLOFile
	}
	targets, err := extrapolate.LoadTargets(cfg.sloFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return err
	}

	ex := extrapolate.New(logger)
	now := time.Now()

	if len(targets.DB) > 0 {
		rows, err := loadDBRows(cfg)
		if err != nil {
			return err
		}
		var recs []model.DBRecommendation
		for _, target := range targets.DB {
			if rec, ok := ex.RecommendDB(rows, target); ok {
				recs = append(recs, rec)
			}
		}
		out := filepath.Join(cfg.outDir, fmt.Sprintf("capacity_recommendation_db_%s.csv", now.Format(artifactTimestampLayout)))
		if err := csvio.WriteDBRecommendations(out, recs); err != nil {
			return err
		}
		logger.Info("database sizing written",
			zap.String("output", out),
			zap.Int("targets", len(targets.DB)),
			zap.Int("recommendations", len(recs)))
	}

	if len(targets.MQ) > 0 {
		rows, err := loadMQRows(cfg)
		if err != nil {
			return err
		}
		var recs []model.MQRecommendation
		for _, target := range targets.MQ {
			if rec, ok := ex.RecommendMQ(rows, target); ok {
				recs = append(recs, rec)
			}
		}
		out := filepath.Join(cfg.outDir, fmt.Sprintf("capacity_recommendation_mq_%s.csv", now.Format(artifactTimestampLayout)))
		if err := csvio.WriteMQRecommendations(out, recs); err != nil {
			return err
		}
		logger.Info("message queue sizing written",
			zap.String("output", out),
			zap.Int("targets", len(targets.MQ)),
			zap.Int("recommendations", len(recs)))
	}
	return nil
}

func loadDBRows(cfg flagsConfig) ([]model.NormalizedDB, error) {
	path := cfg.dbCSV
	if path == "" {
		found, err := csvio.LatestMatching(cfg.dataDir, "normalized_db_*.csv")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, fmt.Errorf("no normalized database artifact found in %s", cfg.dataDir)
		}
		path = found
	}
	return csvio.ReadNormalizedDB(path)
}

func loadMQRows(cfg flagsConfig) ([]model.NormalizedMQ, error) {
	path := cfg.mqCSV
	if path == "" {
		found, err := csvio.LatestMatching(cfg.dataDir, "normalized_mq_*.csv")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, fmt.Errorf("no normalized message queue artifact found in %s", cfg.dataDir)
		}
		path = found
	}
	return csvio.ReadNormalizedMQ(path)
}
