// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package stability decides whether a trial counts as sustainable.
package stability

import (
	"flag"
	"fmt"

	"github.com/spf13/viper"

	"github.com/loadline/loadline/internal/model"
)

const (
	successRatioFlag = "stability.success-ratio"
	p95LimitFlag     = "stability.p95-limit-ms"

	defaultSuccessRatio = 0.95
	defaultP95LimitMS   = 2000

	// ReasonNoData marks a trial that produced no send throughput at all.
	ReasonNoData = "no_data"
)

// Thresholds configures the stability predicate.
type Thresholds struct {
	// SuccessRatio is the minimum acceptable AvgReceived/AvgSent, in (0, 1].
	SuccessRatio float64
	// P95LimitMS is the worst per-sample p95 latency a stable trial may show.
	P95LimitMS int
}

// AddFlags registers CLI flags.
func AddFlags(fs *flag.FlagSet) {
	fs.Float64(successRatioFlag, defaultSuccessRatio, "Minimum received/sent ratio for a trial to count as stable")
	fs.Int(p95LimitFlag, defaultP95LimitMS, "Maximum allowed worst p95 latency in milliseconds")
}

// InitFromViper initializes thresholds from viper.
func (t *Thresholds) InitFromViper(v *viper.Viper) {
	t.SuccessRatio = v.GetFloat64(successRatioFlag)
	t.P95LimitMS = v.GetInt(p95LimitFlag)
}

// Stats are the aggregated measurements a verdict is based on.
type Stats struct {
	AvgSent     float64
	AvgReceived float64
	// WorstP95MS may be model.LatencyUnknown when no sample carried latency.
	WorstP95MS int
}

// Verdict is the classification result. Success holds exactly when Reasons
// is empty; reasons accumulate, they are not first-match-wins.
type Verdict struct {
	Success bool
	Reasons []string
}

// Classify applies the stability predicate to aggregated trial statistics.
// An unknown worst p95 never triggers the latency check.
func (t Thresholds) Classify(s Stats) Verdict {
	var reasons []string
	if s.AvgSent <= 0 {
		reasons = append(reasons, ReasonNoData)
	} else {
		if s.AvgReceived/s.AvgSent < t.SuccessRatio {
			reasons = append(reasons, fmt.Sprintf("ratio_below_%v", t.SuccessRatio))
		}
		if s.WorstP95MS >= 0 && s.WorstP95MS > t.P95LimitMS {
			reasons = append(reasons, fmt.Sprintf("p95_over_%dms", t.P95LimitMS))
		}
	}
	return Verdict{Success: len(reasons) == 0, Reasons: reasons}
}

// StatsFromTrial extracts classifier inputs from a trial.
func StatsFromTrial(t *model.Trial) Stats {
	return Stats{AvgSent: t.AvgSent, AvgReceived: t.AvgReceived, WorstP95MS: t.WorstP95MS}
}
