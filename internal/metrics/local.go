// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// A LocalBackend is a metrics provider that aggregates data in-process and
// exports snapshots on demand. Counters and gauges are scoped to the backend
// rather than being global, to facilitate testing.
type LocalBackend struct {
	cm       sync.RWMutex
	gm       sync.RWMutex
	tm       sync.RWMutex
	counters map[string]*int64
	gauges   map[string]*int64
	timers   map[string]*localBackendTimer
}

// NewLocalBackend returns a new LocalBackend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		counters: make(map[string]*int64),
		gauges:   make(map[string]*int64),
		timers:   make(map[string]*localBackendTimer),
	}
}

// IncCounter increments a counter value.
func (b *LocalBackend) IncCounter(name string, tags map[string]string, delta int64) {
	key := GetKey(name, tags, "|", "=")
	b.cm.RLock()
	counter := b.counters[key]
	b.cm.RUnlock()

	if counter != nil {
		atomic.AddInt64(counter, delta)
		return
	}

	b.cm.Lock()
	counter = b.counters[key]
	if counter == nil {
		value := delta
		b.counters[key] = &value
	} else {
		atomic.AddInt64(counter, delta)
	}
	b.cm.Unlock()
}

// UpdateGauge updates the value of a gauge.
func (b *LocalBackend) UpdateGauge(name string, tags map[string]string, value int64) {
	key := GetKey(name, tags, "|", "=")
	b.gm.RLock()
	gauge := b.gauges[key]
	b.gm.RUnlock()

	if gauge != nil {
		atomic.StoreInt64(gauge, value)
		return
	}

	b.gm.Lock()
	gauge = b.gauges[key]
	if gauge == nil {
		v := value
		b.gauges[key] = &v
	} else {
		atomic.StoreInt64(gauge, value)
	}
	b.gm.Unlock()
}

// RecordTimer records a timing duration.
func (b *LocalBackend) RecordTimer(name string, tags map[string]string, d time.Duration) {
	timer := b.findOrCreateTimer(GetKey(name, tags, "|", "="))
	timer.Lock()
	timer.hist.Current.RecordValue(int64(d / time.Millisecond))
	timer.Unlock()
}

func (b *LocalBackend) findOrCreateTimer(key string) *localBackendTimer {
	b.tm.RLock()
	t := b.timers[key]
	b.tm.RUnlock()
	if t != nil {
		return t
	}

	b.tm.Lock()
	defer b.tm.Unlock()
	if t := b.timers[key]; t != nil {
		return t
	}
	t = &localBackendTimer{
		hist: hdrhistogram.NewWindowed(5, 0, int64((5*time.Minute)/time.Millisecond), 1),
	}
	b.timers[key] = t
	return t
}

type localBackendTimer struct {
	sync.Mutex
	hist *hdrhistogram.WindowedHistogram
}

var percentiles = map[string]float64{
	"P50":  50,
	"P75":  75,
	"P90":  90,
	"P95":  95,
	"P99":  99,
	"P999": 99.9,
}

// Snapshot captures the current counter and gauge values. Timer percentiles
// are exported as gauges keyed "<timer>.<P..>".
func (b *LocalBackend) Snapshot() (counters, gauges map[string]int64) {
	b.cm.RLock()
	counters = make(map[string]int64, len(b.counters))
	for name, value := range b.counters {
		counters[name] = atomic.LoadInt64(value)
	}
	b.cm.RUnlock()

	b.gm.RLock()
	gauges = make(map[string]int64, len(b.gauges))
	for name, value := range b.gauges {
		gauges[name] = atomic.LoadInt64(value)
	}
	b.gm.RUnlock()

	b.tm.RLock()
	timers := make(map[string]*localBackendTimer, len(b.timers))
	for name, timer := range b.timers {
		timers[name] = timer
	}
	b.tm.RUnlock()

	for name, timer := range timers {
		timer.Lock()
		hist := timer.hist.Merge()
		timer.Unlock()
		for p, q := range percentiles {
			gauges[name+"."+p] = hist.ValueAtQuantile(q)
		}
	}
	return counters, gauges
}

type localStats struct {
	name    string
	tags    map[string]string
	backend *LocalBackend
}

type localCounter struct{ localStats }

func (c *localCounter) Inc(delta int64) {
	c.backend.IncCounter(c.name, c.tags, delta)
}

type localGauge struct{ localStats }

func (g *localGauge) Update(value int64) {
	g.backend.UpdateGauge(g.name, g.tags, value)
}

type localTimer struct{ localStats }

func (t *localTimer) Record(d time.Duration) {
	t.backend.RecordTimer(t.name, t.tags, d)
}

// LocalFactory is a factory that creates metrics stored in a LocalBackend.
type LocalFactory struct {
	backend *LocalBackend
	scope   string
	tags    map[string]string
}

// NewLocalFactory returns a Factory backed by a fresh LocalBackend.
func NewLocalFactory() *LocalFactory {
	return &LocalFactory{backend: NewLocalBackend()}
}

// Backend exposes the underlying store, mainly for snapshot assertions.
func (f *LocalFactory) Backend() *LocalBackend { return f.backend }

func (f *LocalFactory) Counter(options Options) Counter {
	return &localCounter{localStats{
		name:    scopedName(f.scope, options.Name),
		tags:    mergeTags(f.tags, options.Tags),
		backend: f.backend,
	}}
}

func (f *LocalFactory) Gauge(options Options) Gauge {
	return &localGauge{localStats{
		name:    scopedName(f.scope, options.Name),
		tags:    mergeTags(f.tags, options.Tags),
		backend: f.backend,
	}}
}

func (f *LocalFactory) Timer(options TimerOptions) Timer {
	return &localTimer{localStats{
		name:    scopedName(f.scope, options.Name),
		tags:    mergeTags(f.tags, options.Tags),
		backend: f.backend,
	}}
}

func (f *LocalFactory) Namespace(scope NSOptions) Factory {
	return &LocalFactory{
		backend: f.backend,
		scope:   scopedName(f.scope, scope.Name),
		tags:    mergeTags(f.tags, scope.Tags),
	}
}
