// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/benchparse"
	"github.com/loadline/loadline/internal/metrics"
	"github.com/loadline/loadline/internal/model"
)

const benchTimestampLayout = "2006-01-02T15:04:05"

// BenchRunner sweeps the transactional benchmark tool inside a database
// container across client counts. A failing invocation is recorded with its
// return code and truncated output; the sweep continues.
type BenchRunner struct {
	opts    BenchOptions
	matcher *benchparse.BenchMatcher
	logger  *zap.Logger

	runs     metrics.Counter
	failures metrics.Counter

	execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
	now         func() time.Time
}

// NewBenchRunner creates a sweep runner.
func NewBenchRunner(opts BenchOptions, metricsFactory metrics.Factory, logger *zap.Logger) *BenchRunner {
	metricsFactory = metricsFactory.Namespace(metrics.NSOptions{Name: "bench"})
	return &BenchRunner{
		opts:        opts,
		matcher:     benchparse.NewBenchMatcher(),
		logger:      logger,
		runs:        metricsFactory.Counter(metrics.Options{Name: "runs", Help: "Number of benchmark invocations"}),
		failures:    metricsFactory.Counter(metrics.Options{Name: "failures", Help: "Number of invocations with a non-zero return code"}),
		execCommand: exec.CommandContext,
		now:         time.Now,
	}
}

// RunOnce executes a single benchmark invocation at the given client count.
// The returned record is always usable; invocation failure is represented
// in its ReturnCode and Error fields.
func (r *BenchRunner) RunOnce(ctx context.Context, clients int) model.BenchRecord {
	rec := model.BenchRecord{
		Timestamp: r.now().Format(benchTimestampLayout),
		Clients:   clients,
		Jobs:      r.opts.Jobs,
		DurationS: r.opts.DurationS,
	}

	r.runs.Inc(1)
	cmd := r.execCommand(ctx, "docker", r.dockerArgs(clients)...)
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		rec.ReturnCode = exitCode(err)
		if output == "" {
			output = err.Error()
		}
	}

	stats := r.matcher.Match(output)
	rec.TPSIncluding = stats.TPSIncluding
	rec.TPSExcluding = stats.TPSExcluding
	rec.LatencyAvgMS = stats.LatencyAvgMS
	rec.TxProcessed = stats.TxProcessed

	if rec.ReturnCode != 0 {
		r.failures.Inc(1)
		rec.Error = truncate(output, maxCapturedOutput)
		if rec.Error == "" {
			rec.Error = "unknown error"
		}
		r.logger.Warn("benchmark invocation failed",
			zap.Int("clients", clients),
			zap.Int("return_code", rec.ReturnCode))
	} else {
		r.logger.Info("benchmark invocation finished",
			zap.Int("clients", clients),
			zap.Float64p("tps_excluding", rec.TPSExcluding),
			zap.Float64p("latency_ms_avg", rec.LatencyAvgMS))
	}
	return rec
}

// Sweep runs every client count Repeats times, with a cooldown between
// consecutive invocations, and hands each record to sink as soon as it exists
// so an interrupted sweep keeps what it already measured.
func (r *BenchRunner) Sweep(ctx context.Context, sink func(model.BenchRecord) error) error {
	clientList, err := r.opts.ExpandClients()
	if err != nil {
		return err
	}
	r.logger.Info("starting sweep",
		zap.Ints("clients", clientList),
		zap.Int("repeats", r.opts.Repeats))
	for ci, clients := range clientList {
		for round := 1; round <= r.opts.Repeats; round++ {
			rec := r.RunOnce(ctx, clients)
			if err := sink(rec); err != nil {
				return fmt.Errorf("recording sweep result: %w", err)
			}
			last := ci == len(clientList)-1 && round == r.opts.Repeats
			if !last && r.opts.Cooldown > 0 {
				select {
				case <-time.After(r.opts.Cooldown):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

func (r *BenchRunner) dockerArgs(clients int) []string {
	args := []string{
		"exec",
		"-e", "PGPASSWORD=" + r.opts.Password,
		"-e", "KINGBASE_PASSWORD=" + r.opts.Password,
		r.opts.Container,
		"kbbench",
		"-h", r.opts.Host,
		"-M", "extended",
		"-c", strconv.Itoa(clients),
		"-j", strconv.Itoa(r.opts.Jobs),
		"-T", strconv.Itoa(r.opts.DurationS),
		"-P", strconv.Itoa(r.opts.ProgressS),
		"-d", r.opts.DB,
		"-U", r.opts.User,
		"-r",
	}
	if r.opts.Port > 0 {
		args = append(args, "-p", strconv.Itoa(r.opts.Port))
	}
	return args
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
