// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import "strings"

// Trial is the complete record of a single probe at a fixed target rate.
// It is created once by the trial runner and immutable afterwards.
// Success holds if and only if Reasons is empty.
type Trial struct {
	RunID      string
	TargetRate int

	// Samples are the periodic measurements in emission order.
	Samples []TimeSeriesSample

	AvgSent     float64
	AvgReceived float64
	// WorstP95MS is the maximum valid per-sample p95, or LatencyUnknown if
	// no sample carried a latency distribution.
	WorstP95MS int

	Success bool
	Reasons []string

	DurationS int
	Producers int
	Consumers int
	SizeBytes int
	Queue     string
}

// Note renders the failure reasons the way they appear in the summary CSV.
func (t *Trial) Note() string {
	return strings.Join(t.Reasons, ";")
}

// Summary flattens the trial into its tabular form.
func (t *Trial) Summary() TrialSummary {
	return TrialSummary{
		RunID:       t.RunID,
		TargetRate:  t.TargetRate,
		AvgSent:     t.AvgSent,
		AvgReceived: t.AvgReceived,
		WorstP95MS:  t.WorstP95MS,
		Success:     t.Success,
		Note:        t.Note(),
		DurationS:   t.DurationS,
		Producers:   t.Producers,
		Consumers:   t.Consumers,
		SizeBytes:   t.SizeBytes,
		Queue:       t.Queue,
	}
}

// TrialSummary is one row of the summary CSV. It is also the input shape for
// MQ normalization, which may be fed from a file rather than a live run.
type TrialSummary struct {
	RunID       string
	TargetRate  int
	AvgSent     float64
	AvgReceived float64
	WorstP95MS  int
	Success     bool
	Note        string
	DurationS   int
	Producers   int
	Consumers   int
	SizeBytes   int
	Queue       string
}
