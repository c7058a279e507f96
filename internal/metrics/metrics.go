// Package metrics is a small, backend-agnostic facade for the pipeline's
// operational metrics: per-stage timings, record counts, field defects and
// rows written per sink.
//
// A global backend defaults to a no-op so instrumentation is always safe to
// call. Concrete systems (Prometheus Pushgateway, Datadog) live in
// subpackages and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal        = "steametl_step_total"
	StepDuration     = "steametl_step_duration_seconds"
	RecordsTotal     = "steametl_records_total"
	DefectsTotal     = "steametl_defects_total"
	RowsWrittenTotal = "steametl_rows_written_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

// NopBackend returns the backend installed at startup, which drops everything.
func NopBackend() Backend { return nopBackend{} }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter. Kinds used by the pipeline:
// "read", "duplicate", "processed", "degraded", "genre_rows".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordDefects counts field defects by field and reason code.
func RecordDefects(job, field, reason string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(DefectsTotal, float64(delta), Labels{"job": job, "field": field, "reason": reason})
}

// RecordWritten counts rows materialized into a sink ("csv", "db") table.
func RecordWritten(job, sink, table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsWrittenTotal, float64(delta), Labels{"job": job, "sink": sink, "table": table})
}
