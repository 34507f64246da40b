// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package search discovers the maximum stable operating rate of a system
// under test by combining exponential probing with binary-search refinement.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/metrics"
	"github.com/loadline/loadline/internal/model"
)

// relativeTolerance and absoluteToleranceFloor bound the refinement phase:
// bisection stops once the bracket is narrower than 2% of the current lower
// bound, but never chases precision below 100 rate units.
const (
	relativeTolerance      = 0.02
	absoluteToleranceFloor = 100
)

var (
	errStartRate = errors.New("start rate must be greater than 0")
	errMaxRate   = errors.New("max rate must not be below start rate")
	// errGrowth guards the coarse phase: a growth factor <= 1 cannot
	// terminate.
	errGrowth = errors.New("growth factor must be greater than 1")
)

// TrialRunner executes one trial at the given target rate. A returned error
// means the trial could not be measured at all and is fatal to the search;
// a classified-unstable trial is a normal negative result, not an error.
type TrialRunner interface {
	Run(ctx context.Context, rate int) (*model.Trial, error)
}

// Options configures the search bounds.
type Options struct {
	// StartRate is the first probed rate, in rate units per second.
	StartRate int
	// MaxRate is the hard cap for probed rates.
	MaxRate int
	// Growth is the multiplier applied after each successful coarse trial.
	Growth float64
}

// Outcome classifies how a search run terminated.
type Outcome string

const (
	// OutcomeNoStableRate means the very first trial failed: no stable
	// rate exists within the configured range.
	OutcomeNoStableRate Outcome = "no_stable_rate"
	// OutcomeCappedAtMax means the coarse phase reached MaxRate without a
	// failure; the true ceiling is at least the reported rate.
	OutcomeCappedAtMax Outcome = "capped_at_max"
	// OutcomeConverged means a failing rate was bracketed and refined.
	OutcomeConverged Outcome = "converged"
)

// Result carries the estimate and the full ordered trial log.
type Result struct {
	Outcome Outcome
	// MaxStableRate is the estimated maximum stable rate. Zero when the
	// outcome is OutcomeNoStableRate. For OutcomeCappedAtMax it is a
	// lower bound, not an estimate of the true ceiling.
	MaxStableRate int
	// Trials holds every trial in execution order, both phases included.
	Trials []*model.Trial
}

// Engine runs trials strictly sequentially through the injected runner.
type Engine struct {
	opts   Options
	runner TrialRunner
	logger *zap.Logger

	// OnTrial, when set, observes every completed trial in order; used by
	// callers that stream trial rows to a CSV sink.
	OnTrial func(*model.Trial)

	trialsStarted  metrics.Counter
	trialsUnstable metrics.Counter
	lastStableRate metrics.Gauge
	trialDuration  metrics.Timer
}

// NewEngine validates the options and creates a search engine.
func NewEngine(opts Options, runner TrialRunner, metricsFactory metrics.Factory, logger *zap.Logger) (*Engine, error) {
	if opts.StartRate <= 0 {
		return nil, errStartRate
	}
	if opts.MaxRate < opts.StartRate {
		return nil, errMaxRate
	}
	if opts.Growth <= 1 {
		return nil, errGrowth
	}
	metricsFactory = metricsFactory.Namespace(metrics.NSOptions{Name: "adaptive_search"})
	return &Engine{
		opts:           opts,
		runner:         runner,
		logger:         logger,
		trialsStarted:  metricsFactory.Counter(metrics.Options{Name: "trials", Help: "Number of trials started"}),
		trialsUnstable: metricsFactory.Counter(metrics.Options{Name: "trials_unstable", Help: "Number of trials classified unstable"}),
		lastStableRate: metricsFactory.Gauge(metrics.Options{Name: "last_stable_rate", Help: "Highest rate observed stable so far"}),
		trialDuration:  metricsFactory.Timer(metrics.TimerOptions{Name: "trial_duration", Help: "Wall-clock duration of one trial"}),
	}, nil
}

// Run executes the search. The returned result always carries the complete
// trial log; a runner failure aborts the run and is returned as an error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	// Coarse phase: grow exponentially until the first unstable rate.
	rate := e.opts.StartRate
	lastOK := 0
	hi := 0
	bracketed := false
	for rate <= e.opts.MaxRate {
		trial, err := e.runTrial(ctx, rate, result)
		if err != nil {
			return nil, err
		}
		if !trial.Success {
			hi = rate
			bracketed = true
			break
		}
		lastOK = rate
		e.lastStableRate.Update(int64(rate))
		// The +1 floor guarantees progress even when rate*growth
		// rounds back down to rate.
		next := int(math.Round(float64(rate) * e.opts.Growth))
		if next < rate+1 {
			next = rate + 1
		}
		rate = next
	}

	if lastOK == 0 {
		e.logger.Warn("no successful rate found within range",
			zap.Int("start_rate", e.opts.StartRate),
			zap.Int("max_rate", e.opts.MaxRate))
		result.Outcome = OutcomeNoStableRate
		return result, nil
	}
	if !bracketed {
		e.logger.Info("max stable throughput is at or above the configured cap",
			zap.Int("last_ok", lastOK),
			zap.Int("max_rate", e.opts.MaxRate))
		result.Outcome = OutcomeCappedAtMax
		result.MaxStableRate = lastOK
		return result, nil
	}

	// Refinement phase: bisect the half-open bracket [lastOK, hi).
	lo := lastOK
	for hi-lo > tolerance(lo) {
		mid := (lo + hi) / 2
		trial, err := e.runTrial(ctx, mid, result)
		if err != nil {
			return nil, err
		}
		if trial.Success {
			lo = mid
			e.lastStableRate.Update(int64(lo))
		} else {
			hi = mid
		}
	}

	e.logger.Info("estimated maximum stable rate",
		zap.Int("rate", lo),
		zap.Int("bracket_hi", hi),
		zap.Int("trials", len(result.Trials)))
	result.Outcome = OutcomeConverged
	result.MaxStableRate = lo
	return result, nil
}

func (e *Engine) runTrial(ctx context.Context, rate int, result *Result) (*model.Trial, error) {
	e.trialsStarted.Inc(1)
	e.logger.Info("running trial", zap.Int("target_rate", rate))
	start := time.Now()
	trial, err := e.runner.Run(ctx, rate)
	e.trialDuration.Record(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("trial at rate %d: %w", rate, err)
	}
	if !trial.Success {
		e.trialsUnstable.Inc(1)
		e.logger.Info("trial unstable",
			zap.Int("target_rate", rate),
			zap.Strings("reasons", trial.Reasons))
	}
	result.Trials = append(result.Trials, trial)
	if e.OnTrial != nil {
		e.OnTrial(trial)
	}
	return trial, nil
}

func tolerance(lo int) int {
	t := int(relativeTolerance * math.Max(1, float64(lo)))
	if t < absoluteToleranceFloor {
		return absoluteToleranceFloor
	}
	return t
}
