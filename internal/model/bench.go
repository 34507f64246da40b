// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package model

// BenchRecord is one row of raw transactional benchmark output, one per
// bench invocation. The four parsed metrics are optional: each is nil when
// the corresponding summary line was absent from the tool's output.
type BenchRecord struct {
	Timestamp    string
	Clients      int
	Jobs         int
	DurationS    int
	TPSIncluding *float64
	TPSExcluding *float64
	LatencyAvgMS *float64
	TxProcessed  *int64
	ReturnCode   int
	// Error carries truncated raw output when ReturnCode != 0.
	Error string
}
