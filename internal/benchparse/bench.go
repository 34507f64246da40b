// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package benchparse

import (
	"regexp"
	"strconv"
)

var (
	tpsIncludingRe = regexp.MustCompile(`(?i)tps\s*=\s*([0-9.]+)\s*\(including`)
	tpsExcludingRe = regexp.MustCompile(`(?i)tps\s*=\s*([0-9.]+)\s*\(excluding`)
	latencyAvgRe   = regexp.MustCompile(`(?i)latency\s+average\s*=\s*([0-9.]+)\s*ms`)
	txProcessedRe  = regexp.MustCompile(`(?i)number\s+of\s+transactions\s+actually\s+processed:\s*([0-9]+)`)
)

// BenchStats holds the scalar metrics scraped from a transactional benchmark
// run. Each field is nil when its summary line was not found; partial results
// are valid.
type BenchStats struct {
	TPSIncluding *float64
	TPSExcluding *float64
	LatencyAvgMS *float64
	TxProcessed  *int64
}

// BenchMatcher recognizes the transactional benchmark's summary lines.
type BenchMatcher struct {
	tpsIncluding *regexp.Regexp
	tpsExcluding *regexp.Regexp
	latencyAvg   *regexp.Regexp
	txProcessed  *regexp.Regexp
}

// NewBenchMatcher returns a matcher for transactional summary output.
func NewBenchMatcher() *BenchMatcher {
	return &BenchMatcher{
		tpsIncluding: tpsIncludingRe,
		tpsExcluding: tpsExcludingRe,
		latencyAvg:   latencyAvgRe,
		txProcessed:  txProcessedRe,
	}
}

// Match scrapes all recognized scalars from the full captured output.
// The summary lines are order-independent and each is optional.
func (m *BenchMatcher) Match(output string) BenchStats {
	var stats BenchStats
	stats.TPSIncluding = findFloat(m.tpsIncluding, output)
	stats.TPSExcluding = findFloat(m.tpsExcluding, output)
	stats.LatencyAvgMS = findFloat(m.latencyAvg, output)
	stats.TxProcessed = findInt(m.txProcessed, output)
	return stats
}

func findFloat(re *regexp.Regexp, text string) *float64 {
	groups := re.FindStringSubmatch(text)
	if groups == nil {
		return nil
	}
	v, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func findInt(re *regexp.Regexp, text string) *int64 {
	groups := re.FindStringSubmatch(text)
	if groups == nil {
		return nil
	}
	v, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
