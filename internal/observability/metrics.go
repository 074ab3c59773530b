package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seaice_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the granule pipeline.
type Metrics struct {
	JobsAttempted   prometheus.Counter
	JobsSucceeded   prometheus.Counter
	JobsFailed      *prometheus.CounterVec // labels: reason (see domain.Classify)
	PipelineRunning prometheus.Gauge

	JobDuration   prometheus.Histogram
	StageDuration *prometheus.HistogramVec // labels: stage={render,compile,inject,decode}

	GranulesPublished prometheus.Counter
	PublishErrors     prometheus.Counter
}

var (
	jobBuckets   = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	stageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

func newMetrics() *Metrics {
	return &Metrics{
		JobsAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_attempted_total",
			Help:      "Total (date, hemisphere) jobs started.",
		}),
		JobsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_succeeded_total",
			Help:      "Total jobs that produced a granule.",
		}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total failed jobs by failure reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of one granule job from input lookup to close.",
			Buckets:   jobBuckets,
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each job stage.",
			Buckets:   stageBuckets,
		}, []string{"stage"}),
		GranulesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "granules_published_total",
			Help:      "Granule events written to the notification topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Granule events that could not be published.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.JobsAttempted,
		m.JobsSucceeded,
		m.JobsFailed,
		m.PipelineRunning,
		m.JobDuration,
		m.StageDuration,
		m.GranulesPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
