package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type supportMetrics struct {
	tickets         *prometheus.CounterVec
	classifications *prometheus.CounterVec
	followUps       *prometheus.CounterVec
	sweepDuration   prometheus.Observer
}

var (
	supportMetricsOnce sync.Once
	supportMetricsInst *supportMetrics
)

func globalSupportMetrics() *supportMetrics {
	supportMetricsOnce.Do(func() {
		supportMetricsInst = newSupportMetrics()
	})
	return supportMetricsInst
}

func newSupportMetrics() *supportMetrics {
	return &supportMetrics{
		tickets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "tickets",
			Name:      "resolved_total",
			Help:      "Tickets written by inbound handling, labeled by channel and action",
		}, []string{"channel", "action"}),
		classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "classifier",
			Name:      "results_total",
			Help:      "Classifier calls, labeled by channel and outcome",
		}, []string{"channel", "outcome"}),
		followUps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support",
			Subsystem: "followup",
			Name:      "tickets_total",
			Help:      "Follow-up sweep per-ticket outcomes",
		}, []string{"result"}),
		sweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "support",
			Subsystem: "followup",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of follow-up sweeps",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *supportMetrics) recordTicket(channel string, action Action) {
	if m == nil {
		return
	}
	m.tickets.WithLabelValues(channel, string(action)).Inc()
}

func (m *supportMetrics) recordClassification(channel, outcome string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(channel, outcome).Inc()
}

func (m *supportMetrics) recordFollowUp(result string) {
	if m == nil {
		return
	}
	m.followUps.WithLabelValues(result).Inc()
}

func (m *supportMetrics) recordSweep() func() {
	if m == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(m.sweepDuration)
	return func() {
		timer.ObserveDuration()
	}
}
