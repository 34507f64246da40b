// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package runner drives the external benchmark harnesses and turns their
// raw output into trial and benchmark records.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/benchparse"
	"github.com/loadline/loadline/internal/model"
	"github.com/loadline/loadline/internal/stability"
)

// maxCapturedOutput bounds the raw output kept for error reporting.
const maxCapturedOutput = 5000

// HarnessError reports a harness invocation that produced nothing usable.
// It is fatal to a search run; trials that merely fail classification are
// returned as unsuccessful trials, not errors.
type HarnessError struct {
	ExitCode int
	Output   string
}

func (e *HarnessError) Error() string {
	return fmt.Sprintf("harness exited with code %d and produced no parsable output", e.ExitCode)
}

// PerfTestRunner runs one messaging trial per call by launching the
// perf-test JVM harness and scanning its compact per-second output.
type PerfTestRunner struct {
	opts       PerfTestOptions
	thresholds stability.Thresholds
	matcher    *benchparse.CompactMatcher
	logger     *zap.Logger

	// execCommand is swapped in tests.
	execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewPerfTestRunner creates a runner. The harness binary is not checked
// until the first trial runs.
func NewPerfTestRunner(opts PerfTestOptions, thresholds stability.Thresholds, logger *zap.Logger) *PerfTestRunner {
	return &PerfTestRunner{
		opts:        opts,
		thresholds:  thresholds,
		matcher:     benchparse.NewCompactMatcher(),
		logger:      logger,
		execCommand: exec.CommandContext,
	}
}

// Run executes one trial at the given target rate.
func (r *PerfTestRunner) Run(ctx context.Context, rate int) (*model.Trial, error) {
	return r.run(ctx, rate, fmt.Sprintf("%s-r%d", r.opts.IDPrefix, rate))
}

// Warmup executes the optional warmup trial. It returns nil when no warmup
// rate is configured. The warmup result is recorded like any other trial
// but never feeds the search.
func (r *PerfTestRunner) Warmup(ctx context.Context) (*model.Trial, error) {
	if r.opts.WarmupRate <= 0 {
		return nil, nil
	}
	return r.run(ctx, r.opts.WarmupRate, fmt.Sprintf("%s-warmup-%d", r.opts.IDPrefix, r.opts.WarmupRate))
}

func (r *PerfTestRunner) run(ctx context.Context, rate int, runID string) (*model.Trial, error) {
	args := append(strings.Fields(r.opts.JavaOpts),
		"-jar", r.opts.JarPath,
		"--uri", r.opts.URI,
		"--metrics-format", "compact",
		"--rate", strconv.Itoa(rate),
		"-x", strconv.Itoa(r.opts.Producers),
		"-y", strconv.Itoa(r.opts.Consumers),
		"-s", strconv.Itoa(r.opts.SizeBytes),
		"-u", r.opts.Queue,
		"-z", strconv.Itoa(r.opts.DurationS),
		"--id", runID,
	)
	cmd := r.execCommand(ctx, "java", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching to harness output: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	r.logger.Info("launching harness",
		zap.String("run_id", runID),
		zap.Int("target_rate", rate))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting harness: %w", err)
	}

	var samples []model.TimeSeriesSample
	var tail strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if tail.Len() < maxCapturedOutput {
			tail.WriteString(line)
			tail.WriteByte('\n')
		}
		if sample, ok := r.matcher.Match(line); ok {
			samples = append(samples, sample)
		}
	}
	scanErr := scanner.Err()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("waiting for harness: %w", err)
		}
	}
	if scanErr != nil {
		return nil, fmt.Errorf("reading harness output: %w", scanErr)
	}
	if exitCode != 0 && len(samples) == 0 {
		return nil, &HarnessError{ExitCode: exitCode, Output: truncate(tail.String(), maxCapturedOutput)}
	}

	trial := r.aggregate(runID, rate, samples, int(time.Since(start).Seconds()))
	r.logger.Info("trial finished",
		zap.String("run_id", runID),
		zap.Bool("success", trial.Success),
		zap.Float64("avg_sent", trial.AvgSent),
		zap.Float64("avg_received", trial.AvgReceived),
		zap.Int("worst_p95_ms", trial.WorstP95MS))
	return trial, nil
}

func (r *PerfTestRunner) aggregate(runID string, rate int, samples []model.TimeSeriesSample, durationS int) *model.Trial {
	trial := &model.Trial{
		RunID:      runID,
		TargetRate: rate,
		Samples:    samples,
		WorstP95MS: model.LatencyUnknown,
		DurationS:  durationS,
		Producers:  r.opts.Producers,
		Consumers:  r.opts.Consumers,
		SizeBytes:  r.opts.SizeBytes,
		Queue:      r.opts.Queue,
	}
	if len(samples) > 0 {
		var sent, received float64
		for _, s := range samples {
			sent += s.SentRate
			received += s.ReceivedRate
			if s.P95MS >= 0 && s.P95MS > trial.WorstP95MS {
				trial.WorstP95MS = s.P95MS
			}
		}
		trial.AvgSent = sent / float64(len(samples))
		trial.AvgReceived = received / float64(len(samples))
	}
	verdict := r.thresholds.Classify(stability.StatsFromTrial(trial))
	trial.Success = verdict.Success
	trial.Reasons = verdict.Reasons
	return trial
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
