// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package model

// LatencyUnknown marks a latency field whose source line did not carry a
// usable latency distribution.
const LatencyUnknown = -1

// TimeSeriesSample is one periodic measurement emitted by the load generator,
// typically one per second of a trial.
type TimeSeriesSample struct {
	TimeS        float64
	SentRate     float64
	ReceivedRate float64
	P50MS        int
	P95MS        int
	P99MS        int
}

// HasLatency reports whether the sample carries a usable latency distribution.
func (s TimeSeriesSample) HasLatency() bool {
	return s.P95MS != LatencyUnknown
}
