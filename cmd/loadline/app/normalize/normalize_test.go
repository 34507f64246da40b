// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loadline/loadline/internal/csvio"
	"github.com/loadline/loadline/internal/model"
)

func ptrF(v float64) *float64 { return &v }

func writeArtifacts(t *testing.T, dir string) {
	require.NoError(t, csvio.AppendBenchRecord(
		filepath.Join(dir, "KingbaseES_kbbench_results_20251102_100000.csv"),
		model.BenchRecord{
			Timestamp:    "2025-11-02T10:00:00",
			Clients:      8,
			Jobs:         2,
			DurationS:    60,
			TPSExcluding: ptrF(1000),
			LatencyAvgMS: ptrF(12.5),
		},
	))
	require.NoError(t, csvio.WriteSummaries(
		filepath.Join(dir, "RabbitMQ_perftest_summary_20251102_100000.csv"),
		[]model.TrialSummary{{
			RunID: "auto-r20000", TargetRate: 20_000,
			AvgSent: 20_000, AvgReceived: 19_000, WorstP95MS: 42,
			Success: true, DurationS: 30, Producers: 4, Consumers: 2, SizeBytes: 1024,
		}},
	))
}

func runCommand(t *testing.T, args ...string) error {
	cmd := Command(viper.New(), zap.NewNop())
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)

	require.NoError(t, runCommand(t, "--normalize.data-dir="+dir))

	dbOut, err := csvio.LatestMatching(dir, "normalized_db_KingbaseES_*.csv")
	require.NoError(t, err)
	require.NotEmpty(t, dbOut)
	dbRows, err := csvio.ReadNormalizedDB(dbOut)
	require.NoError(t, err)
	require.Len(t, dbRows, 1)
	assert.InDelta(t, 250.0, dbRows[0].TPSPerCore, 1e-9)
	assert.Equal(t, "KingbaseES", dbRows[0].Component)

	mqOut, err := csvio.LatestMatching(dir, "normalized_mq_RabbitMQ_*.csv")
	require.NoError(t, err)
	require.NotEmpty(t, mqOut)
	mqRows, err := csvio.ReadNormalizedMQ(mqOut)
	require.NoError(t, err)
	require.Len(t, mqRows, 1)
	assert.InDelta(t, 4750.0, mqRows[0].MsgPerSecPerCore, 1e-9)
	assert.InDelta(t, 0.05, mqRows[0].LossRatio, 1e-9)
}

func TestNormalizeCommandCustomEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)

	require.NoError(t, runCommand(t,
		"--normalize.data-dir="+dir,
		"--normalize.cpu-cores=8",
		"--normalize.memory-gb=16",
	))

	dbOut, err := csvio.LatestMatching(dir, "normalized_db_*.csv")
	require.NoError(t, err)
	dbRows, err := csvio.ReadNormalizedDB(dbOut)
	require.NoError(t, err)
	require.Len(t, dbRows, 1)
	assert.InDelta(t, 125.0, dbRows[0].TPSPerCore, 1e-9)
	assert.InDelta(t, 62.5, dbRows[0].TPSPerGBMemory, 1e-9)
	assert.Equal(t, 8, dbRows[0].TestCPUCores)
}

func TestNormalizeCommandEmptyDir(t *testing.T) {
	err := runCommand(t, "--normalize.data-dir="+t.TempDir())
	require.ErrorIs(t, err, errNoArtifacts)
}

func TestNormalizeCommandInvalidEnvironment(t *testing.T) {
	err := runCommand(t, "--normalize.cpu-cores=0")
	require.Error(t, err)
}

func TestNormalizeCommandSeparateOutDir(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()
	writeArtifacts(t, dataDir)

	require.NoError(t, runCommand(t,
		"--normalize.data-dir="+dataDir,
		"--normalize.out-dir="+outDir,
	))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
