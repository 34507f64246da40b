// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package benchparse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadline/loadline/internal/model"
)

func TestCompactMatcher(t *testing.T) {
	m := NewCompactMatcher()

	tests := []struct {
		name     string
		line     string
		expected model.TimeSeriesSample
	}{
		{
			name: "millisecond latencies",
			line: "1.000s 173,920 msg/s 84,405 msg/s 1/25/189/312/331 ms",
			expected: model.TimeSeriesSample{
				TimeS:        1.0,
				SentRate:     173920,
				ReceivedRate: 84405,
				P50MS:        25,
				P95MS:        312,
				P99MS:        331,
			},
		},
		{
			name: "microsecond latencies scaled to ms",
			line: "12.0s 1,000 msg/s 998 msg/s 100/2000/2500/4800/5200 µs",
			expected: model.TimeSeriesSample{
				TimeS:        12.0,
				SentRate:     1000,
				ReceivedRate: 998,
				P50MS:        2,
				P95MS:        5,
				P99MS:        5,
			},
		},
		{
			name: "ascii us unit",
			line: "3s 10 msg/s 10 msg/s 1/2/3/4/5 us",
			expected: model.TimeSeriesSample{
				TimeS:        3,
				SentRate:     10,
				ReceivedRate: 10,
				P50MS:        0,
				P95MS:        0,
				P99MS:        0,
			},
		},
		{
			name: "wrong latency cardinality keeps sentinel",
			line: "2.0s 500 msg/s 500 msg/s 1/2/3 ms",
			expected: model.TimeSeriesSample{
				TimeS:        2.0,
				SentRate:     500,
				ReceivedRate: 500,
				P50MS:        model.LatencyUnknown,
				P95MS:        model.LatencyUnknown,
				P99MS:        model.LatencyUnknown,
			},
		},
		{
			name: "leading whitespace",
			line: "  4.5s 7 msg/s 6 msg/s 1/1/1/1/2 ms",
			expected: model.TimeSeriesSample{
				TimeS:        4.5,
				SentRate:     7,
				ReceivedRate: 6,
				P50MS:        1,
				P95MS:        1,
				P99MS:        2,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sample, ok := m.Match(test.line)
			require.True(t, ok)
			assert.Equal(t, test.expected, sample)
		})
	}
}

func TestCompactMatcherRejectsNonDataLines(t *testing.T) {
	m := NewCompactMatcher()
	lines := []string{
		"",
		"starting consumer 1",
		"id: auto-r1000, time: 1.000s",
		"1.000s 173,920 msg/s", // truncated
		"1.000s 173,920 msg/s 84,405 msg/s 1/25/189/312/331 ns",
	}
	for _, line := range lines {
		_, ok := m.Match(line)
		assert.False(t, ok, "line %q must not match", line)
	}
}

// The five captured numeric fields must survive a parse/serialize round trip
// once the unit is normalized to milliseconds.
func TestCompactMatcherRoundTrip(t *testing.T) {
	m := NewCompactMatcher()
	original := model.TimeSeriesSample{
		TimeS:        7.0,
		SentRate:     25000,
		ReceivedRate: 24321,
		P50MS:        12,
		P95MS:        77,
		P99MS:        140,
	}
	line := fmt.Sprintf("%.3fs %d msg/s %d msg/s 3/%d/40/%d/%d ms",
		original.TimeS,
		int(original.SentRate), int(original.ReceivedRate),
		original.P50MS, original.P95MS, original.P99MS)

	parsed, ok := m.Match(line)
	require.True(t, ok)
	assert.Equal(t, original, parsed)
}
