// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadline/loadline/internal/metrics"
)

func TestCounter(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()
	f := New(WithRegisterer(registry))

	c := f.Counter(metrics.Options{
		Name: "probe_trials",
		Tags: map[string]string{"result": "stable"},
		Help: "Number of trials executed",
	})
	c.Inc(3)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	mf := families[0]
	assert.Equal(t, "probe_trials_total", mf.GetName())
	require.Len(t, mf.GetMetric(), 1)
	assert.InDelta(t, 3.0, mf.GetMetric()[0].GetCounter().GetValue(), 1e-9)
	require.Len(t, mf.GetMetric()[0].GetLabel(), 1)
	assert.Equal(t, "result", mf.GetMetric()[0].GetLabel()[0].GetName())
	assert.Equal(t, "stable", mf.GetMetric()[0].GetLabel()[0].GetValue())
}

func TestGaugeAndNamespace(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()
	f := New(WithRegisterer(registry))

	g := f.Namespace(metrics.NSOptions{Name: "search"}).Gauge(metrics.Options{Name: "last-stable.rate"})
	g.Update(4000)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "search_last_stable_rate", families[0].GetName())
	assert.InDelta(t, 4000.0, families[0].GetMetric()[0].GetGauge().GetValue(), 1e-9)
}

func TestTimerObservesSeconds(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()
	f := New(WithRegisterer(registry))

	f.Timer(metrics.TimerOptions{Name: "trial_duration"}).Record(1500 * time.Millisecond)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	mf := families[0]
	assert.Equal(t, "trial_duration_seconds", mf.GetName())
	h := mf.GetMetric()[0].GetHistogram()
	assert.EqualValues(t, 1, h.GetSampleCount())
	assert.InDelta(t, 1.5, h.GetSampleSum(), 1e-9)
}

func TestDuplicateMetricsDoNotPanic(t *testing.T) {
	registry := prometheus.NewPedanticRegistry()
	f := New(WithRegisterer(registry))

	assert.NotPanics(t, func() {
		f.Counter(metrics.Options{Name: "dup"}).Inc(1)
		f.Counter(metrics.Options{Name: "dup"}).Inc(1)
	})
}
