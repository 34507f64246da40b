// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package model

// DBRecommendation is a sizing estimate for a transactional component,
// derived from the best qualifying normalized baseline.
type DBRecommendation struct {
	Component    string
	TargetTPS    float64
	MaxLatencyMS float64

	RequiredCPUCores   int
	RequiredMemoryGB   int
	EstimatedLatencyMS float64

	BaselineTPSPerCore    float64
	BaselineTPSPerGB      float64
	BaselineTestTPS       float64
	BaselineTestLatencyMS float64
}

// MQRecommendation is a sizing estimate for a messaging component.
type MQRecommendation struct {
	Component       string
	TargetMsgPerSec float64
	MaxP95MS        float64

	RequiredCPUCores int
	RequiredMemoryGB int
	EstimatedP95MS   float64

	BaselineMsgPerSecPerCore float64
	BaselineMsgPerSecPerGB   float64
	BaselineTestMsgPerSec    float64
	BaselineTestP95MS        int
}
