// Package metrics exposes encoding run statistics as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/go-spm-encode/internal/pipeline"
)

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	rows      prometheus.Counter
	written   prometheus.Counter
	empty     prometheus.Counter
	filtered  prometheus.Counter
	discarded prometheus.Counter
	duration  prometheus.Gauge
}

// NewRecorder creates a Recorder. format is attached to every metric as a
// constant label.
func NewRecorder(format pipeline.Format) *Recorder {
	labels := prometheus.Labels{"format": format.String()}

	r := &Recorder{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "spmencode_rows_total",
			Help:        "Rows read from the aligned inputs",
			ConstLabels: labels,
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "spmencode_rows_written_total",
			Help:        "Rows written to every output",
			ConstLabels: labels,
		}),
		empty: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "spmencode_columns_empty_total",
			Help:        "Columns skipped because the line was empty",
			ConstLabels: labels,
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "spmencode_columns_filtered_total",
			Help:        "Columns whose token count fell outside the length bounds",
			ConstLabels: labels,
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "spmencode_columns_discarded_total",
			Help:        "Valid columns dropped with an invalid sibling column",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "spmencode_run_duration_seconds",
			Help:        "Wall-clock duration of the last encoding run",
			ConstLabels: labels,
		}),
	}

	r.reg.MustRegister(r.rows, r.written, r.empty, r.filtered, r.discarded, r.duration)

	return r
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe adds the counts of one run and records its duration.
func (r *Recorder) Observe(s pipeline.Stats, d time.Duration) {
	r.rows.Add(float64(s.Rows))
	r.written.Add(float64(s.Written))
	r.empty.Add(float64(s.Empty))
	r.filtered.Add(float64(s.Filtered))
	r.discarded.Add(float64(s.Discarded))
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}

	return nil
}
