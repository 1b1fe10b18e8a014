package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type jobMetrics struct {
	runs      *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var (
	jobMetricsOnce sync.Once
	jobMetricsInst *jobMetrics
)

func globalJobMetrics() *jobMetrics {
	jobMetricsOnce.Do(func() {
		jobMetricsInst = newJobMetrics()
	})
	return jobMetricsInst
}

func newJobMetrics() *jobMetrics {
	return &jobMetrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions, labeled by job and result",
		}, []string{"job", "result"}),
		durations: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "support",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

func (m *jobMetrics) recordRun(job string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	timer := prometheus.NewTimer(m.durations.WithLabelValues(job))
	return func(err error) {
		timer.ObserveDuration()
		result := "success"
		if err != nil {
			result = "failure"
		}
		m.runs.WithLabelValues(job, result).Inc()
	}
}
