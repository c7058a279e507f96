// Package quality is the data-quality side channel: it counts field defects
// by (field, reason), keeps the first N samples, and renders both as tables.
package quality

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"steametl/internal/catalog"
	"steametl/internal/table"
)

// Artifact names.
const (
	ReportName  = "quality"
	DefectsName = "defects"
)

// Count is the number of defects for one field and reason.
type Count struct {
	Field  string
	Reason string
	N      int
}

// Sample is one recorded defect.
type Sample struct {
	GameID string
	Field  string
	Reason string
	Raw    string
}

type key struct{ field, reason string }

// Report is safe for concurrent use.
type Report struct {
	mu         sync.Mutex
	runID      string
	limit      int
	rows       int
	degraded   int
	duplicates int
	buckets    map[key]int
	first      []Sample
}

// New returns a Report keeping at most sampleLimit samples.
func New(runID string, sampleLimit int) *Report {
	if sampleLimit < 0 {
		sampleLimit = 0
	}
	return &Report{runID: runID, limit: sampleLimit, buckets: make(map[key]int)}
}

// Observe records every defect of g and counts g as processed.
func (r *Report) Observe(g *catalog.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows++
	if len(g.Defects) > 0 {
		r.degraded++
	}
	for _, d := range g.Defects {
		r.buckets[key{d.Field, d.Reason}]++
		if len(r.first) < r.limit {
			r.first = append(r.first, Sample{GameID: g.ID, Field: d.Field, Reason: d.Reason, Raw: d.Raw})
		}
	}
}

// AddDuplicates counts raw records dropped as duplicates.
func (r *Report) AddDuplicates(n int) {
	r.mu.Lock()
	r.duplicates += n
	r.mu.Unlock()
}

// Rows is the number of observed games.
func (r *Report) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Degraded is the number of games with at least one defect.
func (r *Report) Degraded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Duplicates is the number of raw records dropped before flattening.
func (r *Report) Duplicates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duplicates
}

// Total is the number of defects across all fields.
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.buckets {
		n += c
	}
	return n
}

// Counts returns per (field, reason) counts, largest first.
func (r *Report) Counts() []Count {
	r.mu.Lock()
	out := make([]Count, 0, len(r.buckets))
	for k, n := range r.buckets {
		out = append(out, Count{Field: k.field, Reason: k.reason, N: n})
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Samples returns the retained samples in arrival order.
func (r *Report) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.first...)
}

// Table renders the counts. share_pct is relative to observed games.
func (r *Report) Table() table.Table {
	counts := r.Counts()
	rows := r.Rows()
	t := table.Table{
		Name: ReportName,
		Columns: []table.Column{
			{Name: "run_id", Type: table.Text},
			{Name: "field", Type: table.Text},
			{Name: "reason", Type: table.Text},
			{Name: "count", Type: table.Int},
			{Name: "share_pct", Type: table.Float, Nullable: true},
		},
		Rows: make([][]any, 0, len(counts)),
	}
	for _, c := range counts {
		var share any
		if rows > 0 {
			share = float64(c.N) * 100 / float64(rows)
		}
		t.Rows = append(t.Rows, []any{r.runID, c.Field, c.Reason, int64(c.N), share})
	}
	return t
}

// DefectsTable lists every defect of games, one row each.
func DefectsTable(games []catalog.Game) table.Table {
	t := table.Table{
		Name: DefectsName,
		Columns: []table.Column{
			{Name: "id", Type: table.Text},
			{Name: "app_id", Type: table.Int, Nullable: true},
			{Name: "field", Type: table.Text},
			{Name: "reason", Type: table.Text},
			{Name: "raw", Type: table.Text, Nullable: true},
		},
	}
	for i := range games {
		g := &games[i]
		var app any
		if g.AppID != nil {
			app = *g.AppID
		}
		for _, d := range g.Defects {
			var raw any
			if d.Raw != "" {
				raw = d.Raw
			}
			t.Rows = append(t.Rows, []any{g.ID, app, d.Field, d.Reason, raw})
		}
	}
	return t
}

// Log writes a summary line plus one line per counted bucket and sample.
func (r *Report) Log(logger *zap.Logger) {
	counts := r.Counts()
	logger.Info("data quality",
		zap.String("run_id", r.runID),
		zap.Int("rows", r.Rows()),
		zap.Int("degraded_rows", r.Degraded()),
		zap.Int("defects", r.Total()),
		zap.Int("duplicates", r.Duplicates()),
	)
	for _, c := range counts {
		logger.Info("defect bucket",
			zap.String("field", c.Field),
			zap.String("reason", c.Reason),
			zap.Int("count", c.N),
		)
	}
	for i, s := range r.Samples() {
		logger.Debug("defect sample",
			zap.Int("n", i+1),
			zap.String("id", s.GameID),
			zap.String("field", s.Field),
			zap.String("reason", s.Reason),
			zap.String("raw", s.Raw),
		)
	}
}
