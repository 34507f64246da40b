// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package normalizer converts raw benchmark rows into per-resource-unit
// metrics that can be extrapolated to differently sized environments.
package normalizer

import (
	"math"

	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/model"
)

// Heuristic constants for the estimated fields. They describe a typical
// small test host, not a measured quantity.
const (
	// memoryWorkingSetFraction is the share of host memory attributed to
	// the transactional working set.
	memoryWorkingSetFraction = 0.3
	// txAmortizationSeconds spreads the working set over a minute of
	// sustained throughput.
	txAmortizationSeconds = 60
	// maxTPSPerCore caps the per-core transactional throughput used for
	// utilization estimates.
	maxTPSPerCore = 500
	// maxMsgPerSecPerCore caps the per-core message throughput used for
	// utilization estimates.
	maxMsgPerSecPerCore = 10_000
	// msgMemoryOverheadFactor inflates the payload size to account for
	// broker bookkeeping around each message.
	msgMemoryOverheadFactor = 1.5

	bytesPerKB = 1024
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// Environment describes the host the benchmarks ran on.
type Environment struct {
	// CPUCores is the core count of the test host.
	CPUCores int
	// MemoryGB is the memory size of the test host, in GiB.
	MemoryGB float64
}

func (e Environment) memoryBytes() float64 {
	return e.MemoryGB * bytesPerGB
}

// Normalizer derives unit metrics relative to a fixed test environment.
type Normalizer struct {
	env    Environment
	logger *zap.Logger
}

// New creates a Normalizer for the given test environment.
func New(env Environment, logger *zap.Logger) *Normalizer {
	return &Normalizer{env: env, logger: logger}
}

// NormalizeDB converts raw transactional benchmark records. Records from
// failed runs (non-zero return code), records without a throughput figure,
// and records with non-positive throughput are dropped; the second return
// value counts them.
func (n *Normalizer) NormalizeDB(records []model.BenchRecord, component string) ([]model.NormalizedDB, int) {
	var out []model.NormalizedDB
	dropped := 0
	for _, rec := range records {
		if rec.TPSExcluding == nil || rec.ReturnCode != 0 || *rec.TPSExcluding <= 0 {
			dropped++
			continue
		}
		out = append(out, n.normalizeDBRecord(rec, component))
	}
	if dropped > 0 {
		n.logger.Info("dropped unusable benchmark records",
			zap.String("component", component),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(out)))
	}
	return out, dropped
}

func (n *Normalizer) normalizeDBRecord(rec model.BenchRecord, component string) model.NormalizedDB {
	tps := *rec.TPSExcluding
	latency := 0.0
	if rec.LatencyAvgMS != nil {
		latency = *rec.LatencyAvgMS
	}
	var txProcessed int64
	if rec.TxProcessed != nil {
		txProcessed = *rec.TxProcessed
	}

	row := model.NormalizedDB{
		Component:     component,
		ComponentType: model.ComponentDB,
		Timestamp:     rec.Timestamp,
		Clients:       rec.Clients,
		Jobs:          rec.Jobs,
		DurationS:     rec.DurationS,
		TPS:           tps,
		LatencyMS:     latency,
		TxProcessed:   txProcessed,
		TestCPUCores:  n.env.CPUCores,
		TestMemoryGB:  n.env.MemoryGB,
	}

	row.TPSPerCore = round2(tps / float64(n.env.CPUCores))
	row.LatencyMSPerCore = round2(latency)
	row.TPSPerClient = round2(safeDiv(tps, float64(rec.Clients)))
	row.TPSPerJob = round2(safeDiv(tps, float64(rec.Jobs)))
	row.TPSPerGBMemory = round2(tps / n.env.MemoryGB)
	row.LatencyPerTxMS = round2(latency)
	row.MemoryPerTxBytes = round2(n.env.memoryBytes() * memoryWorkingSetFraction / (tps * txAmortizationSeconds))
	row.CPUUtilizationPct = round2(utilizationPct(tps, float64(n.env.CPUCores)*maxTPSPerCore))
	return row
}

// NormalizeMQ converts trial summaries. Unsuccessful trials and trials with
// non-positive received throughput are dropped; the second return value
// counts them.
func (n *Normalizer) NormalizeMQ(summaries []model.TrialSummary, component string) ([]model.NormalizedMQ, int) {
	var out []model.NormalizedMQ
	dropped := 0
	for _, s := range summaries {
		if !s.Success || s.AvgReceived <= 0 {
			dropped++
			continue
		}
		out = append(out, n.normalizeMQSummary(s, component))
	}
	if dropped > 0 {
		n.logger.Info("dropped unusable trial summaries",
			zap.String("component", component),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(out)))
	}
	return out, dropped
}

func (n *Normalizer) normalizeMQSummary(s model.TrialSummary, component string) model.NormalizedMQ {
	row := model.NormalizedMQ{
		Component:     component,
		ComponentType: model.ComponentMQ,
		RunID:         s.RunID,
		TargetRate:    s.TargetRate,
		DurationS:     s.DurationS,
		AvgSent:       s.AvgSent,
		AvgReceived:   s.AvgReceived,
		WorstP95MS:    s.WorstP95MS,
		Producers:     s.Producers,
		Consumers:     s.Consumers,
		SizeBytes:     s.SizeBytes,
		TestCPUCores:  n.env.CPUCores,
		TestMemoryGB:  n.env.MemoryGB,
	}

	row.MsgPerSecPerCore = round2(s.AvgReceived / float64(n.env.CPUCores))
	row.MsgPerSecPerProducer = round2(safeDiv(s.AvgReceived, float64(s.Producers)))
	row.MsgPerSecPerConsumer = round2(safeDiv(s.AvgReceived, float64(s.Consumers)))
	row.MsgPerSecPerGBMemory = round2(s.AvgReceived / n.env.MemoryGB)
	row.MsgPerSecPerKB = round2(safeDiv(s.AvgReceived, float64(s.SizeBytes)/bytesPerKB))
	row.LatencyPerMsgMS = round2(float64(s.WorstP95MS))
	row.MemoryPerMsgBytes = round2(float64(s.SizeBytes) * msgMemoryOverheadFactor)
	row.ThroughputMBps = round2(s.AvgReceived * float64(s.SizeBytes) / bytesPerMB)
	row.CPUUtilizationPct = round2(utilizationPct(s.AvgReceived, float64(n.env.CPUCores)*maxMsgPerSecPerCore))
	if s.AvgSent > 0 {
		row.LossRatio = round4(1 - s.AvgReceived/s.AvgSent)
	}
	return row
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func utilizationPct(actual, theoreticalMax float64) float64 {
	if theoreticalMax <= 0 {
		return 0
	}
	return math.Min(100, actual/theoreticalMax*100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
