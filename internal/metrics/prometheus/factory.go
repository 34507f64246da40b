// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

// Package prometheus implements the metrics facade on top of a Prometheus
// registry, so long-running probe and sweep sessions can expose progress on
// an admin /metrics endpoint.
package prometheus

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loadline/loadline/internal/metrics"
)

// Factory implements metrics.Factory.
type Factory struct {
	scope      string
	tags       map[string]string
	cache      *vectorCache
	registerer prometheus.Registerer
}

type options struct {
	registerer prometheus.Registerer
}

// Option is a configuration option for the factory.
type Option func(*options)

// WithRegisterer registers all metrics with the given registerer instead of
// the default one.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(opts *options) {
		opts.registerer = registerer
	}
}

// New creates a Factory backed by Prometheus.
func New(opts ...Option) *Factory {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory{
		cache:      newVectorCache(o.registerer),
		registerer: o.registerer,
	}
}

func (f *Factory) Counter(opts metrics.Options) metrics.Counter {
	name := counterNamingConvention(f.subScope(opts.Name))
	tags := metrics.GetKey("", mergeTags(f.tags, opts.Tags), ",", "=")
	labelNames, labelValues := tagsToLabels(mergeTags(f.tags, opts.Tags))
	cv := f.cache.getOrMakeCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help(name, opts.Help),
	}, labelNames, tags)
	return &counter{counter: cv.WithLabelValues(labelValues...)}
}

func (f *Factory) Gauge(opts metrics.Options) metrics.Gauge {
	name := f.subScope(opts.Name)
	tags := metrics.GetKey("", mergeTags(f.tags, opts.Tags), ",", "=")
	labelNames, labelValues := tagsToLabels(mergeTags(f.tags, opts.Tags))
	gv := f.cache.getOrMakeGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help(name, opts.Help),
	}, labelNames, tags)
	return &gauge{gauge: gv.WithLabelValues(labelValues...)}
}

func (f *Factory) Timer(opts metrics.TimerOptions) metrics.Timer {
	name := f.subScope(opts.Name) + "_seconds"
	tags := metrics.GetKey("", mergeTags(f.tags, opts.Tags), ",", "=")
	labelNames, labelValues := tagsToLabels(mergeTags(f.tags, opts.Tags))
	hv := f.cache.getOrMakeHistogramVec(prometheus.HistogramOpts{
		Name: name,
		Help: help(name, opts.Help),
	}, labelNames, tags)
	return &timer{histogram: hv.WithLabelValues(labelValues...)}
}

func (f *Factory) Namespace(scope metrics.NSOptions) metrics.Factory {
	return &Factory{
		scope:      f.subScope(scope.Name),
		tags:       mergeTags(f.tags, scope.Tags),
		cache:      f.cache,
		registerer: f.registerer,
	}
}

func (f *Factory) subScope(name string) string {
	if f.scope == "" {
		return normalize(name)
	}
	if name == "" {
		return normalize(f.scope)
	}
	return normalize(f.scope + "_" + name)
}

func normalize(v string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(v)
}

func help(name, h string) string {
	if h != "" {
		return h
	}
	return name
}

func counterNamingConvention(name string) string {
	if !strings.HasSuffix(name, "_total") {
		name += "_total"
	}
	return name
}

func mergeTags(a, b map[string]string) map[string]string {
	merged := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

func tagsToLabels(tags map[string]string) (names []string, values []string) {
	names = make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)
	values = make([]string, 0, len(names))
	for _, k := range names {
		values = append(values, tags[k])
	}
	return names, values
}

type counter struct {
	counter prometheus.Counter
}

func (c *counter) Inc(v int64) {
	c.counter.Add(float64(v))
}

type gauge struct {
	gauge prometheus.Gauge
}

func (g *gauge) Update(v int64) {
	g.gauge.Set(float64(v))
}

type timer struct {
	histogram prometheus.Observer
}

func (t *timer) Record(v time.Duration) {
	t.histogram.Observe(v.Seconds())
}

// vectorCache deduplicates metric vectors: prometheus panics on double
// registration of the same fully-qualified name.
type vectorCache struct {
	registerer prometheus.Registerer
	lock       sync.Mutex
	cVecs      map[string]*prometheus.CounterVec
	gVecs      map[string]*prometheus.GaugeVec
	hVecs      map[string]*prometheus.HistogramVec
}

func newVectorCache(registerer prometheus.Registerer) *vectorCache {
	return &vectorCache{
		registerer: registerer,
		cVecs:      make(map[string]*prometheus.CounterVec),
		gVecs:      make(map[string]*prometheus.GaugeVec),
		hVecs:      make(map[string]*prometheus.HistogramVec),
	}
}

func (c *vectorCache) getOrMakeCounterVec(opts prometheus.CounterOpts, labelNames []string, tags string) *prometheus.CounterVec {
	c.lock.Lock()
	defer c.lock.Unlock()
	key := opts.Name + "|" + tags
	cv, ok := c.cVecs[key]
	if !ok {
		cv = prometheus.NewCounterVec(opts, labelNames)
		c.registerer.MustRegister(cv)
		c.cVecs[key] = cv
	}
	return cv
}

func (c *vectorCache) getOrMakeGaugeVec(opts prometheus.GaugeOpts, labelNames []string, tags string) *prometheus.GaugeVec {
	c.lock.Lock()
	defer c.lock.Unlock()
	key := opts.Name + "|" + tags
	gv, ok := c.gVecs[key]
	if !ok {
		gv = prometheus.NewGaugeVec(opts, labelNames)
		c.registerer.MustRegister(gv)
		c.gVecs[key] = gv
	}
	return gv
}

func (c *vectorCache) getOrMakeHistogramVec(opts prometheus.HistogramOpts, labelNames []string, tags string) *prometheus.HistogramVec {
	c.lock.Lock()
	defer c.lock.Unlock()
	key := opts.Name + "|" + tags
	hv, ok := c.hVecs[key]
	if !ok {
		hv = prometheus.NewHistogramVec(opts, labelNames)
		c.registerer.MustRegister(hv)
		c.hVecs[key] = hv
	}
	return hv
}
