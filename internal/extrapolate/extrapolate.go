// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package extrapolate turns normalized unit metrics into resource sizing
// recommendations for a stated service-level objective.
package extrapolate

import (
	"math"

	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/model"
)

// Extrapolator sizes environments from normalized baselines. It assumes
// linear scaling from the single best qualifying baseline row.
type Extrapolator struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extrapolator {
	return &Extrapolator{logger: logger}
}

// RecommendDB sizes a transactional component for target. Rows whose
// measured latency exceeds the target's latency bound are ignored. The
// second return value is false when no row qualifies; that is a valid
// outcome, not an error.
func (e *Extrapolator) RecommendDB(rows []model.NormalizedDB, target DBTarget) (model.DBRecommendation, bool) {
	var best *model.NormalizedDB
	for i := range rows {
		row := &rows[i]
		if row.ComponentType != model.ComponentDB || row.LatencyMS > target.MaxLatencyMS {
			continue
		}
		if best == nil || row.TPSPerCore > best.TPSPerCore {
			best = row
		}
	}
	if best == nil {
		e.logger.Warn("no baseline satisfies the latency bound",
			zap.Float64("max_latency_ms", target.MaxLatencyMS),
			zap.Int("rows", len(rows)))
		return model.DBRecommendation{}, false
	}

	rec := model.DBRecommendation{
		Component:             best.Component,
		TargetTPS:             target.TargetTPS,
		MaxLatencyMS:          target.MaxLatencyMS,
		RequiredCPUCores:      ceilDiv(target.TargetTPS, best.TPSPerCore),
		RequiredMemoryGB:      ceilDiv(target.TargetTPS, best.TPSPerGBMemory),
		EstimatedLatencyMS:    round2(best.LatencyMS * target.TargetTPS / best.TPS),
		BaselineTPSPerCore:    best.TPSPerCore,
		BaselineTPSPerGB:      best.TPSPerGBMemory,
		BaselineTestTPS:       best.TPS,
		BaselineTestLatencyMS: best.LatencyMS,
	}
	e.logger.Info("sized transactional component",
		zap.String("component", rec.Component),
		zap.Float64("target_tps", rec.TargetTPS),
		zap.Int("required_cpu_cores", rec.RequiredCPUCores),
		zap.Int("required_memory_gb", rec.RequiredMemoryGB))
	return rec, true
}

// RecommendMQ sizes a messaging component for target. Rows whose worst p95
// exceeds the target's bound are ignored.
func (e *Extrapolator) RecommendMQ(rows []model.NormalizedMQ, target MQTarget) (model.MQRecommendation, bool) {
	var best *model.NormalizedMQ
	for i := range rows {
		row := &rows[i]
		if row.ComponentType != model.ComponentMQ || float64(row.WorstP95MS) > target.MaxP95MS {
			continue
		}
		if best == nil || row.MsgPerSecPerCore > best.MsgPerSecPerCore {
			best = row
		}
	}
	if best == nil {
		e.logger.Warn("no baseline satisfies the p95 bound",
			zap.Float64("max_p95_ms", target.MaxP95MS),
			zap.Int("rows", len(rows)))
		return model.MQRecommendation{}, false
	}

	rec := model.MQRecommendation{
		Component:                best.Component,
		TargetMsgPerSec:          target.TargetMsgPerSec,
		MaxP95MS:                 target.MaxP95MS,
		RequiredCPUCores:         ceilDiv(target.TargetMsgPerSec, best.MsgPerSecPerCore),
		RequiredMemoryGB:         ceilDiv(target.TargetMsgPerSec, best.MsgPerSecPerGBMemory),
		EstimatedP95MS:           round2(float64(best.WorstP95MS) * target.TargetMsgPerSec / best.AvgReceived),
		BaselineMsgPerSecPerCore: best.MsgPerSecPerCore,
		BaselineMsgPerSecPerGB:   best.MsgPerSecPerGBMemory,
		BaselineTestMsgPerSec:    best.AvgReceived,
		BaselineTestP95MS:        best.WorstP95MS,
	}
	e.logger.Info("sized messaging component",
		zap.String("component", rec.Component),
		zap.Float64("target_msg_per_sec", rec.TargetMsgPerSec),
		zap.Int("required_cpu_cores", rec.RequiredCPUCores),
		zap.Int("required_memory_gb", rec.RequiredMemoryGB))
	return rec, true
}

func ceilDiv(target, perUnit float64) int {
	if perUnit <= 0 {
		return 0
	}
	return int(math.Ceil(target / perUnit))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
