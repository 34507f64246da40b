// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package metricstest provides a local metrics factory with snapshot
// assertions for tests.
package metricstest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loadline/loadline/internal/metrics"
)

// Factory is a metrics factory that accumulates values in memory.
type Factory struct {
	*metrics.LocalFactory
}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{LocalFactory: metrics.NewLocalFactory()}
}

// Snapshot returns the current counter and gauge values.
func (f *Factory) Snapshot() (counters, gauges map[string]int64) {
	return f.Backend().Snapshot()
}

// ExpectedMetric contains metrics under test.
type ExpectedMetric struct {
	Name  string
	Tags  map[string]string
	Value int
}

// AssertCounterMetrics checks if counter metrics exist with expected values.
func (f *Factory) AssertCounterMetrics(t *testing.T, expectedMetrics ...ExpectedMetric) {
	counters, _ := f.Snapshot()
	assertMetrics(t, counters, expectedMetrics...)
}

// AssertGaugeMetrics checks if gauge metrics exist with expected values.
func (f *Factory) AssertGaugeMetrics(t *testing.T, expectedMetrics ...ExpectedMetric) {
	_, gauges := f.Snapshot()
	assertMetrics(t, gauges, expectedMetrics...)
}

func assertMetrics(t *testing.T, actual map[string]int64, expectedMetrics ...ExpectedMetric) {
	for _, expected := range expectedMetrics {
		key := metrics.GetKey(expected.Name, expected.Tags, "|", "=")
		assert.EqualValues(t,
			expected.Value,
			actual[key],
			"expected metric name=%s tags=%+v; got: %+v",
			expected.Name, expected.Tags, actual,
		)
	}
}
