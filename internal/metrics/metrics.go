// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines a minimal metrics facade so that components do not
// depend on a concrete metrics backend.
package metrics

import "time"

// Counter tracks the number of times an event has occurred.
type Counter interface {
	// Inc adds the given value to the counter.
	Inc(int64)
}

// Gauge returns instantaneous measurements of something as an int64 value.
type Gauge interface {
	// Update the gauge to the value passed in.
	Update(int64)
}

// Timer accumulates observations about how long some operation took.
type Timer interface {
	// Record saves the time passed in.
	Record(time.Duration)
}

// NSOptions defines the name and tags map associated with a factory namespace.
type NSOptions struct {
	Name string
	Tags map[string]string
}

// Options defines the information associated with a metric.
type Options struct {
	Name string
	Tags map[string]string
	Help string
}

// TimerOptions defines the information associated with a timer metric.
type TimerOptions struct {
	Name string
	Tags map[string]string
	Help string
}

// Factory creates new metrics.
type Factory interface {
	Counter(metric Options) Counter
	Gauge(metric Options) Gauge
	Timer(metric TimerOptions) Timer

	// Namespace returns a nested metrics factory.
	Namespace(scope NSOptions) Factory
}

var (
	// NullCounter counter that does nothing.
	NullCounter Counter = nullCounter{}
	// NullGauge gauge that does nothing.
	NullGauge Gauge = nullGauge{}
	// NullTimer timer that does nothing.
	NullTimer Timer = nullTimer{}
	// NullFactory factory that returns only null metrics.
	NullFactory Factory = nullFactory{}
)

type nullCounter struct{}

func (nullCounter) Inc(int64) {}

type nullGauge struct{}

func (nullGauge) Update(int64) {}

type nullTimer struct{}

func (nullTimer) Record(time.Duration) {}

type nullFactory struct{}

func (nullFactory) Counter(Options) Counter     { return NullCounter }
func (nullFactory) Gauge(Options) Gauge         { return NullGauge }
func (nullFactory) Timer(TimerOptions) Timer    { return NullTimer }
func (nullFactory) Namespace(NSOptions) Factory { return NullFactory }
