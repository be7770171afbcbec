// Package metrics exposes run statistics as Prometheus gauges. The checker
// is a batch job, so the registry is pushed to a Pushgateway at the end of
// each run instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pfrederiksen/handicap-check/internal/classify"
)

// Metric naming
const (
	namespace = "handicap_check"
	JobName   = "handicap_check"
)

// Recorder holds the gauges for one run
type Recorder struct {
	registry *prometheus.Registry

	golfers      *prometheus.GaugeVec
	duplicates   prometheus.Gauge
	singletons   prometheus.Gauge
	excluded     prometheus.Gauge
	stepFailures prometheus.Gauge
	duration     prometheus.Gauge
	lastSuccess  prometheus.Gauge
	teeSheetRows prometheus.Gauge
}

// NewRecorder registers the run gauges on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		golfers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "golfers",
			Help:      "Distinct golfers classified in the last run, by status.",
		}, []string{"status"}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicate_entries",
			Help:      "Tee-sheet entries skipped as duplicates.",
		}),
		singletons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "single_golfer_slots",
			Help:      "Entries skipped because they were alone in their tee time.",
		}),
		excluded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "excluded_entries",
			Help:      "Entries skipped by the exclusion calendar.",
		}),
		stepFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_failures",
			Help:      "Non-fatal run steps that failed.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		}),
		teeSheetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tee_sheet_entries",
			Help:      "Entries read from the tee sheet.",
		}),
	}

	reg.MustRegister(
		r.golfers, r.duplicates, r.singletons, r.excluded,
		r.stepFailures, r.duration, r.lastSuccess, r.teeSheetRows,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOutcome records classification counts
func (r *Recorder) ObserveOutcome(entries int, o *classify.Outcome) {
	r.teeSheetRows.Set(float64(entries))
	if o == nil {
		return
	}
	r.golfers.WithLabelValues(string(classify.StatusPosted)).Set(float64(len(o.Posted)))
	r.golfers.WithLabelValues(string(classify.StatusNoPost)).Set(float64(len(o.NoPost)))
	r.golfers.WithLabelValues(string(classify.StatusNoIdentifier)).Set(float64(len(o.NoIdentifier)))
	r.duplicates.Set(float64(o.Duplicates))
	r.singletons.Set(float64(o.Singletons))
	r.excluded.Set(float64(o.Excluded))
}

// ObserveRun records how the run ended
func (r *Recorder) ObserveRun(started, finished time.Time, failures int) {
	r.duration.Set(finished.Sub(started).Seconds())
	r.stepFailures.Set(float64(failures))
	r.lastSuccess.Set(float64(finished.Unix()))
}

// Push sends the registry to a Pushgateway, replacing the job's metrics
func (r *Recorder) Push(ctx context.Context, gatewayURL string) error {
	if err := push.New(gatewayURL, JobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
