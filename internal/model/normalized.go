// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package model

// ComponentType distinguishes the two benchmark families the pipeline knows.
type ComponentType string

const (
	ComponentDB ComponentType = "DB"
	ComponentMQ ComponentType = "MQ"
)

// NormalizedDB is a transactional benchmark row converted to
// resource-unit-independent metrics against a declared test environment.
// Derived fields with a zero denominator are zero, not an error.
type NormalizedDB struct {
	Component     string
	ComponentType ComponentType
	Timestamp     string
	Clients       int
	Jobs          int
	DurationS     int

	TPS         float64
	LatencyMS   float64
	TxProcessed int64

	TPSPerCore        float64
	LatencyMSPerCore  float64
	TPSPerClient      float64
	TPSPerJob         float64
	TPSPerGBMemory    float64
	LatencyPerTxMS    float64
	MemoryPerTxBytes  float64
	CPUUtilizationPct float64

	TestCPUCores int
	TestMemoryGB float64
}

// NormalizedMQ is a messaging trial summary converted to
// resource-unit-independent metrics against a declared test environment.
type NormalizedMQ struct {
	Component     string
	ComponentType ComponentType
	RunID         string
	TargetRate    int
	DurationS     int

	AvgSent     float64
	AvgReceived float64
	WorstP95MS  int
	Producers   int
	Consumers   int
	SizeBytes   int

	MsgPerSecPerCore     float64
	MsgPerSecPerProducer float64
	MsgPerSecPerConsumer float64
	MsgPerSecPerGBMemory float64
	MsgPerSecPerKB       float64
	LatencyPerMsgMS      float64
	MemoryPerMsgBytes    float64
	ThroughputMBps       float64
	CPUUtilizationPct    float64
	LossRatio            float64

	TestCPUCores int
	TestMemoryGB float64
}
