// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch run is short-lived, so metrics are pushed once at
// the end instead of being scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"steametl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter    *prometheus.CounterVec
	stepDuration   *prometheus.SummaryVec
	recordCounter  *prometheus.CounterVec
	defectCounter  *prometheus.CounterVec
	writtenCounter *prometheus.CounterVec
}

// NewBackend constructs a Prometheus Pushgateway backend. The job label of
// the facade is carried by the Pushgateway grouping key, not by the series.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "steametl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions, partitioned by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (read, duplicate, processed, degraded, genre_rows).",
		}, []string{"kind"}),
		defectCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.DefectsTotal,
			Help: "Field defects per field and reason code.",
		}, []string{"field", "reason"}),
		writtenCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsWrittenTotal,
			Help: "Rows written per sink and table.",
		}, []string{"sink", "table"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":    b.stepCounter,
		"step summary":    b.stepDuration,
		"record counter":  b.recordCounter,
		"defect counter":  b.defectCounter,
		"written counter": b.writtenCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.recordCounter != nil {
			b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.DefectsTotal:
		if b.defectCounter != nil {
			b.defectCounter.WithLabelValues(labels["field"], labels["reason"]).Add(delta)
		}
	case metrics.RowsWrittenTotal:
		if b.writtenCounter != nil {
			b.writtenCounter.WithLabelValues(labels["sink"], labels["table"]).Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
