// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package benchparse extracts structured samples from free-text benchmark
// output. Matchers are constructed once and are safe for concurrent use;
// a line that matches no grammar is not data and never an error.
package benchparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/loadline/loadline/internal/model"
)

// Example: "1.000s 173,920 msg/s 84,405 msg/s 1/25/189/312/331 ms"
var compactLineRe = regexp.MustCompile(
	`^\s*(\d+(?:\.\d+)?)s\s+([\d,]+)\s+msg/s\s+([\d,]+)\s+msg/s\s+([\d/]+)\s+(µs|μs|us|ms)\s*$`)

// CompactMatcher recognizes the load generator's periodic compact line.
type CompactMatcher struct {
	re *regexp.Regexp
}

// NewCompactMatcher returns a matcher for periodic rate/latency lines.
func NewCompactMatcher() *CompactMatcher {
	return &CompactMatcher{re: compactLineRe}
}

// Match parses one line of output. The second return value is false when the
// line is not a compact sample line.
func (m *CompactMatcher) Match(line string) (model.TimeSeriesSample, bool) {
	groups := m.re.FindStringSubmatch(line)
	if groups == nil {
		return model.TimeSeriesSample{}, false
	}

	timeS, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return model.TimeSeriesSample{}, false
	}
	sent, err := parseGroupedInt(groups[2])
	if err != nil {
		return model.TimeSeriesSample{}, false
	}
	recv, err := parseGroupedInt(groups[3])
	if err != nil {
		return model.TimeSeriesSample{}, false
	}

	sample := model.TimeSeriesSample{
		TimeS:        timeS,
		SentRate:     float64(sent),
		ReceivedRate: float64(recv),
		P50MS:        model.LatencyUnknown,
		P95MS:        model.LatencyUnknown,
		P99MS:        model.LatencyUnknown,
	}

	// The latency list is min/p50/p75/p95/p99. Anything other than five
	// entries leaves the latency fields unknown.
	parts := strings.Split(groups[4], "/")
	if len(parts) == 5 {
		factor := 1.0
		if groups[5] != "ms" {
			factor = 0.001 // microsecond variants
		}
		lat := make([]int64, 0, 5)
		ok := true
		for _, p := range parts {
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				ok = false
				break
			}
			lat = append(lat, v)
		}
		if ok {
			sample.P50MS = int(math.Round(float64(lat[1]) * factor))
			sample.P95MS = int(math.Round(float64(lat[3]) * factor))
			sample.P99MS = int(math.Round(float64(lat[4]) * factor))
		}
	}
	return sample, true
}

// parseGroupedInt converts an integer that may carry thousands separators.
func parseGroupedInt(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}
