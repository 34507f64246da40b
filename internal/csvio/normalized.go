// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package csvio

import (
	"fmt"
	"strconv"

	"github.com/loadline/loadline/internal/model"
)

var normalizedDBHeader = []string{
	"component", "component_type", "timestamp", "clients", "jobs", "duration_s",
	"tps", "latency_ms", "tx_processed",
	"tps_per_core", "latency_ms_per_core",
	"tps_per_client", "tps_per_job", "tps_per_gb_memory",
	"latency_per_tx_ms", "memory_per_tx_bytes",
	"cpu_utilization_pct",
	"test_cpu_cores", "test_memory_gb",
}

var normalizedMQHeader = []string{
	"component", "component_type", "run_id", "target_rate_msg_s", "duration_s",
	"avg_sent_msg_s", "avg_received_msg_s", "worst_p95_ms",
	"producers", "consumers", "size_bytes",
	"msg_per_sec_per_core",
	"msg_per_sec_per_producer", "msg_per_sec_per_consumer",
	"msg_per_sec_per_gb_memory", "msg_per_sec_per_kb",
	"latency_per_msg_ms", "memory_per_msg_bytes",
	"throughput_mbps",
	"cpu_utilization_pct", "loss_ratio",
	"test_cpu_cores", "test_memory_gb",
}

var dbRecommendationHeader = []string{
	"component", "target_tps", "max_latency_ms",
	"required_cpu_cores", "required_memory_gb", "estimated_latency_ms",
	"baseline_tps_per_core", "baseline_tps_per_gb",
	"baseline_test_tps", "baseline_test_latency_ms",
}

var mqRecommendationHeader = []string{
	"component", "target_msg_per_sec", "max_p95_ms",
	"required_cpu_cores", "required_memory_gb", "estimated_p95_ms",
	"baseline_msg_per_sec_per_core", "baseline_msg_per_sec_per_gb",
	"baseline_test_msg_per_sec", "baseline_test_p95_ms",
}

func WriteNormalizedDB(path string, rows []model.NormalizedDB) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Component,
			string(r.ComponentType),
			r.Timestamp,
			strconv.Itoa(r.Clients),
			strconv.Itoa(r.Jobs),
			strconv.Itoa(r.DurationS),
			fmtFloat(r.TPS),
			fmtFloat(r.LatencyMS),
			strconv.FormatInt(r.TxProcessed, 10),
			fmtFloat(r.TPSPerCore),
			fmtFloat(r.LatencyMSPerCore),
			fmtFloat(r.TPSPerClient),
			fmtFloat(r.TPSPerJob),
			fmtFloat(r.TPSPerGBMemory),
			fmtFloat(r.LatencyPerTxMS),
			fmtFloat(r.MemoryPerTxBytes),
			fmtFloat(r.CPUUtilizationPct),
			strconv.Itoa(r.TestCPUCores),
			fmtFloat(r.TestMemoryGB),
		})
	}
	return writeAll(path, normalizedDBHeader, out)
}

func ReadNormalizedDB(path string) ([]model.NormalizedDB, error) {
	table, err := readAll(path)
	if err != nil {
		return nil, err
	}
	rows := make([]model.NormalizedDB, 0, len(table.rows))
	for i, row := range table.rows {
		r := model.NormalizedDB{
			Component:     table.field(row, "component"),
			ComponentType: model.ComponentType(table.field(row, "component_type")),
			Timestamp:     table.field(row, "timestamp"),
		}
		p := rowParser{table: table, row: row}
		r.Clients = p.intField("clients")
		r.Jobs = p.intField("jobs")
		r.DurationS = p.intField("duration_s")
		r.TPS = p.floatField("tps")
		r.LatencyMS = p.floatField("latency_ms")
		r.TxProcessed = int64(p.intField("tx_processed"))
		r.TPSPerCore = p.floatField("tps_per_core")
		r.LatencyMSPerCore = p.floatField("latency_ms_per_core")
		r.TPSPerClient = p.floatField("tps_per_client")
		r.TPSPerJob = p.floatField("tps_per_job")
		r.TPSPerGBMemory = p.floatField("tps_per_gb_memory")
		r.LatencyPerTxMS = p.floatField("latency_per_tx_ms")
		r.MemoryPerTxBytes = p.floatField("memory_per_tx_bytes")
		r.CPUUtilizationPct = p.floatField("cpu_utilization_pct")
		r.TestCPUCores = p.intField("test_cpu_cores")
		r.TestMemoryGB = p.floatField("test_memory_gb")
		if p.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, p.err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func WriteNormalizedMQ(path string, rows []model.NormalizedMQ) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Component,
			string(r.ComponentType),
			r.RunID,
			strconv.Itoa(r.TargetRate),
			strconv.Itoa(r.DurationS),
			fmtFloat(r.AvgSent),
			fmtFloat(r.AvgReceived),
			strconv.Itoa(r.WorstP95MS),
			strconv.Itoa(r.Producers),
			strconv.Itoa(r.Consumers),
			strconv.Itoa(r.SizeBytes),
			fmtFloat(r.MsgPerSecPerCore),
			fmtFloat(r.MsgPerSecPerProducer),
			fmtFloat(r.MsgPerSecPerConsumer),
			fmtFloat(r.MsgPerSecPerGBMemory),
			fmtFloat(r.MsgPerSecPerKB),
			fmtFloat(r.LatencyPerMsgMS),
			fmtFloat(r.MemoryPerMsgBytes),
			fmtFloat(r.ThroughputMBps),
			fmtFloat(r.CPUUtilizationPct),
			fmtFloat(r.LossRatio),
			strconv.Itoa(r.TestCPUCores),
			fmtFloat(r.TestMemoryGB),
		})
	}
	return writeAll(path, normalizedMQHeader, out)
}

func ReadNormalizedMQ(path string) ([]model.NormalizedMQ, error) {
	table, err := readAll(path)
	if err != nil {
		return nil, err
	}
	rows := make([]model.NormalizedMQ, 0, len(table.rows))
	for i, row := range table.rows {
		r := model.NormalizedMQ{
			Component:     table.field(row, "component"),
			ComponentType: model.ComponentType(table.field(row, "component_type")),
			RunID:         table.field(row, "run_id"),
		}
		p := rowParser{table: table, row: row}
		r.TargetRate = p.intField("target_rate_msg_s")
		r.DurationS = p.intField("duration_s")
		r.AvgSent = p.floatField("avg_sent_msg_s")
		r.AvgReceived = p.floatField("avg_received_msg_s")
		r.WorstP95MS = p.intField("worst_p95_ms")
		r.Producers = p.intField("producers")
		r.Consumers = p.intField("consumers")
		r.SizeBytes = p.intField("size_bytes")
		r.MsgPerSecPerCore = p.floatField("msg_per_sec_per_core")
		r.MsgPerSecPerProducer = p.floatField("msg_per_sec_per_producer")
		r.MsgPerSecPerConsumer = p.floatField("msg_per_sec_per_consumer")
		r.MsgPerSecPerGBMemory = p.floatField("msg_per_sec_per_gb_memory")
		r.MsgPerSecPerKB = p.floatField("msg_per_sec_per_kb")
		r.LatencyPerMsgMS = p.floatField("latency_per_msg_ms")
		r.MemoryPerMsgBytes = p.floatField("memory_per_msg_bytes")
		r.ThroughputMBps = p.floatField("throughput_mbps")
		r.CPUUtilizationPct = p.floatField("cpu_utilization_pct")
		r.LossRatio = p.floatField("loss_ratio")
		r.TestCPUCores = p.intField("test_cpu_cores")
		r.TestMemoryGB = p.floatField("test_memory_gb")
		if p.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, p.err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func WriteDBRecommendations(path string, recs []model.DBRecommendation) error {
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, []string{
			r.Component,
			fmtFloat(r.TargetTPS),
			fmtFloat(r.MaxLatencyMS),
			strconv.Itoa(r.RequiredCPUCores),
			strconv.Itoa(r.RequiredMemoryGB),
			fmtFloat(r.EstimatedLatencyMS),
			fmtFloat(r.BaselineTPSPerCore),
			fmtFloat(r.BaselineTPSPerGB),
			fmtFloat(r.BaselineTestTPS),
			fmtFloat(r.BaselineTestLatencyMS),
		})
	}
	return writeAll(path, dbRecommendationHeader, out)
}

func WriteMQRecommendations(path string, recs []model.MQRecommendation) error {
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, []string{
			r.Component,
			fmtFloat(r.TargetMsgPerSec),
			fmtFloat(r.MaxP95MS),
			strconv.Itoa(r.RequiredCPUCores),
			strconv.Itoa(r.RequiredMemoryGB),
			fmtFloat(r.EstimatedP95MS),
			fmtFloat(r.BaselineMsgPerSecPerCore),
			fmtFloat(r.BaselineMsgPerSecPerGB),
			fmtFloat(r.BaselineTestMsgPerSec),
			strconv.Itoa(r.BaselineTestP95MS),
		})
	}
	return writeAll(path, mqRecommendationHeader, out)
}
