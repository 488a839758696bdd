package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "judge"

var (
	admissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "admissions_total",
			Help:      "Count of submission admission decisions by outcome.",
		},
		[]string{"outcome"},
	)
	dispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "jobs_dispatched_total",
			Help:      "Count of jobs handed to the execution engine.",
		},
		[]string{"reason"},
	)
	resultCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "job_results_total",
			Help:      "Count of execution results applied to jobs, by verdict.",
		},
		[]string{"result"},
	)
	staleResultCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "stale_results_total",
			Help:      "Count of execution results discarded because the job was rejudged meanwhile.",
		},
	)
	ranklistLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "ranklist_duration_seconds",
			Help:      "Time spent computing a contest ranklist.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
)

// Registry holds every judge metric; it is served on /metrics.
var Registry = prometheus.NewRegistry()

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(admissionCounter)
		Registry.MustRegister(dispatchCounter)
		Registry.MustRegister(resultCounter)
		Registry.MustRegister(staleResultCounter)
		Registry.MustRegister(ranklistLatency)
	})
}

// RecordAdmission records an admission decision; outcome is "Admitted" or an error kind.
func RecordAdmission(outcome string) {
	admissionCounter.WithLabelValues(outcome).Inc()
}

// RecordDispatch records a job sent for execution; reason is "submit" or "rejudge".
func RecordDispatch(reason string) {
	dispatchCounter.WithLabelValues(reason).Inc()
}

func RecordResult(result string) {
	resultCounter.WithLabelValues(result).Inc()
}

func RecordStaleResult() {
	staleResultCounter.Inc()
}

func RecordRanklistLatency(d time.Duration) {
	ranklistLatency.Observe(d.Seconds())
}
