// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package benchparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchOutput = `
starting vacuum...end.
progress: 10.0 s, 812.3 tps, lat 9.8 ms stddev 2.1
transaction type: <builtin: TPC-B (sort of)>
scaling factor: 1
number of clients: 8
number of threads: 4
duration: 60 s
number of transactions actually processed: 48840
latency average = 9.823 ms
tps = 813.934528 (including connections establishing)
tps = 814.104461 (excluding connections establishing)
`

func TestBenchMatcherFullOutput(t *testing.T) {
	stats := NewBenchMatcher().Match(benchOutput)

	require.NotNil(t, stats.TPSIncluding)
	require.NotNil(t, stats.TPSExcluding)
	require.NotNil(t, stats.LatencyAvgMS)
	require.NotNil(t, stats.TxProcessed)

	assert.InDelta(t, 813.934528, *stats.TPSIncluding, 1e-9)
	assert.InDelta(t, 814.104461, *stats.TPSExcluding, 1e-9)
	assert.InDelta(t, 9.823, *stats.LatencyAvgMS, 1e-9)
	assert.EqualValues(t, 48840, *stats.TxProcessed)
}

func TestBenchMatcherPartialOutput(t *testing.T) {
	stats := NewBenchMatcher().Match("tps = 100.5 (excluding connections establishing)\n")

	assert.Nil(t, stats.TPSIncluding)
	require.NotNil(t, stats.TPSExcluding)
	assert.InDelta(t, 100.5, *stats.TPSExcluding, 1e-9)
	assert.Nil(t, stats.LatencyAvgMS)
	assert.Nil(t, stats.TxProcessed)
}

func TestBenchMatcherCaseInsensitive(t *testing.T) {
	stats := NewBenchMatcher().Match("TPS = 42.0 (Including connections establishing)")
	require.NotNil(t, stats.TPSIncluding)
	assert.InDelta(t, 42.0, *stats.TPSIncluding, 1e-9)
}

func TestBenchMatcherNoMatch(t *testing.T) {
	stats := NewBenchMatcher().Match("could not connect to server")
	assert.Equal(t, BenchStats{}, stats)
}
