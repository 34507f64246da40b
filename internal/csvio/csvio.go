// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package csvio reads and writes the tabular artifacts the pipeline
// exchanges between its stages. Every file starts with a header row and
// columns are addressed by name on the way back in, so stages can evolve
// independently of column order.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/loadline/loadline/internal/model"
)

var timeSeriesHeader = []string{
	"run_id", "target_rate_msg_s", "time_s",
	"sent_msg_s", "received_msg_s", "p50_ms", "p95_ms", "p99_ms",
}

var summaryHeader = []string{
	"run_id", "target_rate_msg_s", "avg_sent_msg_s", "avg_received_msg_s",
	"worst_p95_ms", "success", "note", "duration_s",
	"producers", "consumers", "size_bytes", "queue",
}

var benchHeader = []string{
	"timestamp", "clients", "jobs", "duration_s",
	"tps_including", "tps_excluding", "latency_ms_avg", "tx_processed",
	"return_code", "error",
}

// WriteTimeSeries writes the periodic samples of every trial, in trial
// order, one row per sample.
func WriteTimeSeries(path string, trials []*model.Trial) error {
	rows := make([][]string, 0, len(trials))
	for _, trial := range trials {
		for _, s := range trial.Samples {
			rows = append(rows, []string{
				trial.RunID,
				strconv.Itoa(trial.TargetRate),
				fmtFloat(s.TimeS),
				fmtFloat(s.SentRate),
				fmtFloat(s.ReceivedRate),
				strconv.Itoa(s.P50MS),
				strconv.Itoa(s.P95MS),
				strconv.Itoa(s.P99MS),
			})
		}
	}
	return writeAll(path, timeSeriesHeader, rows)
}

// WriteSummaries writes one row per trial.
func WriteSummaries(path string, summaries []model.TrialSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, summaryRow(s))
	}
	return writeAll(path, summaryHeader, rows)
}

// AppendSummary appends one trial row, creating the file with a header
// first when it does not exist or is empty.
func AppendSummary(path string, s model.TrialSummary) error {
	return appendRow(path, summaryHeader, summaryRow(s))
}

func summaryRow(s model.TrialSummary) []string {
	return []string{
		s.RunID,
		strconv.Itoa(s.TargetRate),
		fmtFloat(s.AvgSent),
		fmtFloat(s.AvgReceived),
		strconv.Itoa(s.WorstP95MS),
		strconv.FormatBool(s.Success),
		s.Note,
		strconv.Itoa(s.DurationS),
		strconv.Itoa(s.Producers),
		strconv.Itoa(s.Consumers),
		strconv.Itoa(s.SizeBytes),
		s.Queue,
	}
}

// ReadSummaries loads a summary file written by WriteSummaries, or by an
// earlier harness that spelled booleans with a capital letter.
func ReadSummaries(path string) ([]model.TrialSummary, error) {
	table, err := readAll(path)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.TrialSummary, 0, len(table.rows))
	for i, row := range table.rows {
		s := model.TrialSummary{
			RunID: table.field(row, "run_id"),
			Note:  table.field(row, "note"),
			Queue: table.field(row, "queue"),
		}
		p := rowParser{table: table, row: row}
		s.TargetRate = p.intField("target_rate_msg_s")
		s.AvgSent = p.floatField("avg_sent_msg_s")
		s.AvgReceived = p.floatField("avg_received_msg_s")
		s.WorstP95MS = p.intField("worst_p95_ms")
		s.Success = p.boolField("success")
		s.DurationS = p.intField("duration_s")
		s.Producers = p.intField("producers")
		s.Consumers = p.intField("consumers")
		s.SizeBytes = p.intField("size_bytes")
		if p.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, p.err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// AppendBenchRecord appends one raw benchmark row, creating the file with a
// header first when needed. Sweeps append after every invocation so a killed
// sweep keeps the rows it already produced.
func AppendBenchRecord(path string, rec model.BenchRecord) error {
	return appendRow(path, benchHeader, []string{
		rec.Timestamp,
		strconv.Itoa(rec.Clients),
		strconv.Itoa(rec.Jobs),
		strconv.Itoa(rec.DurationS),
		fmtFloatPtr(rec.TPSIncluding),
		fmtFloatPtr(rec.TPSExcluding),
		fmtFloatPtr(rec.LatencyAvgMS),
		fmtIntPtr(rec.TxProcessed),
		strconv.Itoa(rec.ReturnCode),
		rec.Error,
	})
}

// ReadBenchRecords loads a raw benchmark file. Empty metric cells become
// nil pointers, matching rows from invocations whose output never matched.
func ReadBenchRecords(path string) ([]model.BenchRecord, error) {
	table, err := readAll(path)
	if err != nil {
		return nil, err
	}
	records := make([]model.BenchRecord, 0, len(table.rows))
	for i, row := range table.rows {
		rec := model.BenchRecord{
			Timestamp: table.field(row, "timestamp"),
			Error:     table.field(row, "error"),
		}
		p := rowParser{table: table, row: row}
		rec.Clients = p.intField("clients")
		rec.Jobs = p.intField("jobs")
		rec.DurationS = p.intField("duration_s")
		rec.TPSIncluding = p.floatPtrField("tps_including")
		rec.TPSExcluding = p.floatPtrField("tps_excluding")
		rec.LatencyAvgMS = p.floatPtrField("latency_ms_avg")
		rec.TxProcessed = p.intPtrField("tx_processed")
		rec.ReturnCode = p.intField("return_code")
		if p.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, p.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtIntPtr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) field(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// rowParser accumulates the first conversion error so callers check once
// per row instead of after every field.
type rowParser struct {
	table *table
	row   []string
	err   error
}

func (p *rowParser) intField(name string) int {
	cell := p.table.field(p.row, name)
	if cell == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (p *rowParser) floatField(name string) float64 {
	cell := p.table.field(p.row, name)
	if cell == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
	}
	return v
}

func (p *rowParser) boolField(name string) bool {
	cell := p.table.field(p.row, name)
	return strings.EqualFold(cell, "true")
}

func (p *rowParser) floatPtrField(name string) *float64 {
	cell := p.table.field(p.row, name)
	if cell == "" || p.err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
		return nil
	}
	return &v
}

func (p *rowParser) intPtrField(name string) *int64 {
	cell := p.table.field(p.row, name)
	if cell == "" || p.err != nil {
		return nil
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
		return nil
	}
	return &v
}

func readAll(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	t := &table{index: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		t.index[strings.TrimSpace(name)] = i
	}
	return t, nil
}

func writeAll(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func appendRow(path string, header, row []string) error {
	needHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needHeader = true
	} else if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
