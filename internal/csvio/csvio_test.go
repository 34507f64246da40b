// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package csvio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadline/loadline/internal/model"
)

func TestSummariesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	in := []model.TrialSummary{
		{
			RunID:       "mq-r20000",
			TargetRate:  20_000,
			AvgSent:     19_800.5,
			AvgReceived: 19_500.25,
			WorstP95MS:  42,
			Success:     true,
			DurationS:   30,
			Producers:   4,
			Consumers:   2,
			SizeBytes:   1024,
			Queue:       "bench",
		},
		{
			RunID:      "mq-r40000",
			TargetRate: 40_000,
			WorstP95MS: -1,
			Success:    false,
			Note:       "ratio_below_0.95;p95_over_2000ms",
		},
	}

	require.NoError(t, WriteSummaries(path, in))
	out, err := ReadSummaries(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadSummariesLegacyBooleans(t *testing.T) {
	// Files from the previous harness capitalize the success flag.
	path := filepath.Join(t.TempDir(), "summary.csv")
	content := strings.Join([]string{
		strings.Join(summaryHeader, ","),
		"mq-r100,100,100,99,10,True,,30,1,1,256,bench",
		"mq-r200,200,200,10,10,False,ratio_below_0.95,30,1,1,256,bench",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := ReadSummaries(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Success)
	assert.False(t, out[1].Success)
}

func TestReadSummariesColumnOrderIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	content := "success,run_id,target_rate_msg_s\ntrue,mq-r1,12345\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := ReadSummaries(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "mq-r1", out[0].RunID)
	assert.Equal(t, 12_345, out[0].TargetRate)
	assert.True(t, out[0].Success)
}

func TestReadSummariesBadCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	content := strings.Join(summaryHeader, ",") + "\nmq-r1,not-a-number,0,0,0,true,,0,0,0,0,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadSummaries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_rate_msg_s")
	assert.Contains(t, err.Error(), "row 2")
}

func TestAppendSummaryWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, AppendSummary(path, model.TrialSummary{RunID: "a", TargetRate: 1}))
	require.NoError(t, AppendSummary(path, model.TrialSummary{RunID: "b", TargetRate: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "run_id"))

	out, err := ReadSummaries(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].RunID)
}

func TestWriteTimeSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.csv")
	trials := []*model.Trial{
		{
			RunID:      "mq-r100",
			TargetRate: 100,
			Samples: []model.TimeSeriesSample{
				{TimeS: 1, SentRate: 100, ReceivedRate: 99, P50MS: 3, P95MS: 8, P99MS: 12},
				{TimeS: 2, SentRate: 101, ReceivedRate: 100, P50MS: model.LatencyUnknown, P95MS: model.LatencyUnknown, P99MS: model.LatencyUnknown},
			},
		},
		{RunID: "mq-r200", TargetRate: 200, Samples: []model.TimeSeriesSample{
			{TimeS: 1, SentRate: 200, ReceivedRate: 180, P50MS: 5, P95MS: 20, P99MS: 40},
		}},
	}

	require.NoError(t, WriteTimeSeries(path, trials))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(timeSeriesHeader, ","), lines[0])
	assert.Equal(t, "mq-r100,100,2,101,100,-1,-1,-1", lines[2])
	assert.Equal(t, "mq-r200,200,1,200,180,5,20,40", lines[3])
}

func ptrF(v float64) *float64 { return &v }

func TestBenchRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.csv")
	tx := int64(60_000)
	full := model.BenchRecord{
		Timestamp:    "2025-11-02T10:00:00",
		Clients:      8,
		Jobs:         2,
		DurationS:    60,
		TPSIncluding: ptrF(1050.5),
		TPSExcluding: ptrF(1000.25),
		LatencyAvgMS: ptrF(12.5),
		TxProcessed:  &tx,
	}
	failed := model.BenchRecord{
		Timestamp:  "2025-11-02T10:05:00",
		Clients:    16,
		Jobs:       4,
		DurationS:  60,
		ReturnCode: 1,
		Error:      "FATAL: connection refused",
	}

	require.NoError(t, AppendBenchRecord(path, full))
	require.NoError(t, AppendBenchRecord(path, failed))

	out, err := ReadBenchRecords(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, full, out[0])
	assert.Equal(t, failed, out[1])
	// Unparsed metrics stay absent, not zero.
	assert.Nil(t, out[1].TPSExcluding)
	assert.Nil(t, out[1].TxProcessed)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadSummaries(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLatestMatching(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "RabbitMQ_perftest_summary_20251101_100000.csv")
	newer := filepath.Join(dir, "RabbitMQ_perftest_summary_20251102_100000.csv")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, newer, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	got, err := LatestMatching(dir, "*_perftest_summary_*.csv")
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	got, err = LatestMatching(dir, "*_kbbench_results_*.csv")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestComponentFromFilename(t *testing.T) {
	tests := []struct {
		name      string
		component string
		ok        bool
	}{
		{name: "KingbaseES_kbbench_results_20251102_153000.csv", component: "KingbaseES", ok: true},
		{name: "RabbitMQ_perftest_summary_20251102_153000.csv", component: "RabbitMQ", ok: true},
		{name: "/data/runs/RabbitMQ_perftest_summary_20251102.csv", component: "RabbitMQ", ok: true},
		{name: "results.csv", ok: false},
		{name: "_kbbench_results_20251102.csv", ok: false},
		{name: "KingbaseES_kbbench_results_20251102.txt", ok: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			component, ok := ComponentFromFilename(test.name)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.component, component)
		})
	}
}
