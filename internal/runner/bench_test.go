// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/metricstest"
	"github.com/loadline/loadline/internal/model"
)

const benchOutput = `starting vacuum...end.
transaction type: <builtin: TPC-B (sort of)>
number of clients: 8
number of threads: 4
duration: 60 s
number of transactions actually processed: 60000
latency average = 12.500 ms
tps = 1050.500000 (including connections establishing)
tps = 1000.250000 (excluding connections establishing)
`

func newBenchRunner(opts BenchOptions, fake *fakeExec) (*BenchRunner, *metricstest.Factory) {
	mf := metricstest.NewFactory()
	r := NewBenchRunner(opts, mf, zap.NewNop())
	r.execCommand = fake.command
	r.now = func() time.Time { return time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC) }
	return r, mf
}

func TestBenchRunOnce(t *testing.T) {
	fake := &fakeExec{output: benchOutput}
	r, mf := newBenchRunner(BenchOptions{
		Container: "kingbase", Host: "127.0.0.1", DB: "kbbenchdb", User: "system",
		Password: "secret", Jobs: 4, DurationS: 60, ProgressS: 10,
	}, fake)

	rec := r.RunOnce(context.Background(), 8)

	assert.Equal(t, "2025-11-02T10:00:00", rec.Timestamp)
	assert.Equal(t, 8, rec.Clients)
	assert.Equal(t, 4, rec.Jobs)
	assert.Equal(t, 60, rec.DurationS)
	assert.Zero(t, rec.ReturnCode)
	assert.Empty(t, rec.Error)
	require.NotNil(t, rec.TPSExcluding)
	assert.InDelta(t, 1000.25, *rec.TPSExcluding, 1e-9)
	require.NotNil(t, rec.TPSIncluding)
	assert.InDelta(t, 1050.5, *rec.TPSIncluding, 1e-9)
	require.NotNil(t, rec.LatencyAvgMS)
	assert.InDelta(t, 12.5, *rec.LatencyAvgMS, 1e-9)
	require.NotNil(t, rec.TxProcessed)
	assert.EqualValues(t, 60_000, *rec.TxProcessed)

	require.Len(t, fake.commands, 1)
	cmdline := strings.Join(fake.commands[0], " ")
	assert.Contains(t, cmdline, "docker exec")
	assert.Contains(t, cmdline, "PGPASSWORD=secret")
	assert.Contains(t, cmdline, "kbbench -h 127.0.0.1 -M extended -c 8 -j 4 -T 60 -P 10 -d kbbenchdb -U system -r")
	assert.NotContains(t, cmdline, " -p ", "port flag absent when unset")

	mf.AssertCounterMetrics(t,
		metricstest.ExpectedMetric{Name: "bench.runs", Value: 1},
		metricstest.ExpectedMetric{Name: "bench.failures", Value: 0},
	)
}

func TestBenchRunOnceWithPort(t *testing.T) {
	fake := &fakeExec{output: benchOutput}
	r, _ := newBenchRunner(BenchOptions{Port: 54321, Jobs: 1, DurationS: 1, ProgressS: 1}, fake)

	r.RunOnce(context.Background(), 1)
	require.Len(t, fake.commands, 1)
	assert.Contains(t, strings.Join(fake.commands[0], " "), "-p 54321")
}

func TestBenchRunOnceFailure(t *testing.T) {
	fake := &fakeExec{output: "FATAL: connection refused\n", exitCode: 1}
	r, mf := newBenchRunner(BenchOptions{Jobs: 4, DurationS: 60, ProgressS: 10}, fake)

	rec := r.RunOnce(context.Background(), 8)

	assert.Equal(t, 1, rec.ReturnCode)
	assert.Contains(t, rec.Error, "connection refused")
	assert.Nil(t, rec.TPSExcluding)
	mf.AssertCounterMetrics(t,
		metricstest.ExpectedMetric{Name: "bench.failures", Value: 1},
	)
}

func TestBenchSweep(t *testing.T) {
	fake := &fakeExec{output: benchOutput}
	r, mf := newBenchRunner(BenchOptions{
		Jobs: 4, DurationS: 60, ProgressS: 10,
		ClientsSeq: "4,8", Repeats: 2,
	}, fake)

	var got []model.BenchRecord
	err := r.Sweep(context.Background(), func(rec model.BenchRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, []int{4, 4, 8, 8}, []int{got[0].Clients, got[1].Clients, got[2].Clients, got[3].Clients})
	mf.AssertCounterMetrics(t,
		metricstest.ExpectedMetric{Name: "bench.runs", Value: 4},
	)
}

func TestBenchSweepSinkError(t *testing.T) {
	fake := &fakeExec{output: benchOutput}
	r, _ := newBenchRunner(BenchOptions{ClientsSeq: "4,8", Repeats: 1, Jobs: 1, DurationS: 1, ProgressS: 1}, fake)

	sinkErr := errors.New("disk full")
	err := r.Sweep(context.Background(), func(model.BenchRecord) error { return sinkErr })
	require.ErrorIs(t, err, sinkErr)
	assert.Len(t, fake.commands, 1, "sweep stops at the first sink failure")
}

func TestBenchSweepCooldownCancellation(t *testing.T) {
	fake := &fakeExec{output: benchOutput}
	r, _ := newBenchRunner(BenchOptions{
		ClientsSeq: "4,8", Repeats: 1, Cooldown: time.Minute,
		Jobs: 1, DurationS: 1, ProgressS: 1,
	}, fake)

	ctx, cancel := context.WithCancel(context.Background())
	err := r.Sweep(ctx, func(model.BenchRecord) error {
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.commands, 1)
}

func TestExpandClients(t *testing.T) {
	tests := []struct {
		name    string
		opts    BenchOptions
		want    []int
		wantErr bool
	}{
		{name: "explicit sequence", opts: BenchOptions{ClientsSeq: "4, 8,16 ,32"}, want: []int{4, 8, 16, 32}},
		{name: "range", opts: BenchOptions{ClientsStart: 2, ClientsEnd: 8, ClientsStep: 2}, want: []int{2, 4, 6, 8}},
		{name: "range end not divisible", opts: BenchOptions{ClientsStart: 1, ClientsEnd: 6, ClientsStep: 4}, want: []int{1, 5}},
		{name: "fallback single run", opts: BenchOptions{Clients: 8}, want: []int{8}},
		{name: "sequence wins over range", opts: BenchOptions{ClientsSeq: "3", ClientsStart: 1, ClientsEnd: 10, ClientsStep: 1}, want: []int{3}},
		{name: "bad sequence", opts: BenchOptions{ClientsSeq: "4,eight"}, wantErr: true},
		{name: "empty sequence", opts: BenchOptions{ClientsSeq: ", ,"}, wantErr: true},
		{name: "bad step", opts: BenchOptions{ClientsStart: 1, ClientsEnd: 10, ClientsStep: 0}, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.opts.ExpandClients()
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestBenchOptionsFromViper(t *testing.T) {
	opts := parseBenchOptions(t,
		"--bench.container=kb2",
		"--bench.clients-seq=4,8",
		"--bench.cooldown=500ms",
		"--bench.repeats=3",
	)
	assert.Equal(t, "kb2", opts.Container)
	assert.Equal(t, "4,8", opts.ClientsSeq)
	assert.Equal(t, 500*time.Millisecond, opts.Cooldown)
	assert.Equal(t, 3, opts.Repeats)
	assert.Equal(t, "kbbenchdb", opts.DB)
}
