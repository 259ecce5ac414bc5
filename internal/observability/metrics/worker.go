package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	taskTotal       *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	taskInFlight    prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	claimsExtracted *prometheus.HistogramVec
	judgmentsTotal  *prometheus.CounterVec
	claimFailures   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	taskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "worker",
			Name:      "task_total",
			Help:      "Total processed worker tasks by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Worker task duration in seconds by kind and status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "kind", "status"},
	)
	taskInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ra",
			Subsystem: "worker",
			Name:      "task_in_flight",
			Help:      "Number of in-flight worker tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	claimsExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ra",
			Subsystem: "analysis",
			Name:      "claims_extracted",
			Help:      "Distribution of claims extracted per run.",
			Buckets:   []float64{0, 4, 8, 12, 16, 20, 25, 30},
		},
		[]string{"service"},
	)
	judgmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "analysis",
			Name:      "judgments_total",
			Help:      "Total claim judgments by coverage verdict.",
		},
		[]string{"service", "coverage"},
	)
	claimFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ra",
			Subsystem: "analysis",
			Name:      "claim_failures_total",
			Help:      "Total degraded claim analyses by failure kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		taskTotal,
		taskDuration,
		taskInFlight,
		queueLag,
		claimsExtracted,
		judgmentsTotal,
		claimFailures,
	)

	return &WorkerMetrics{
		registry:        registry,
		taskTotal:       taskTotal,
		taskDuration:    taskDuration,
		taskInFlight:    taskInFlight,
		queueLag:        queueLag,
		claimsExtracted: claimsExtracted,
		judgmentsTotal:  judgmentsTotal,
		claimFailures:   claimFailures,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.taskInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service, kind string, duration time.Duration, err error) {
	m.taskInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.taskTotal.WithLabelValues(service, kind, status).Inc()
	m.taskDuration.WithLabelValues(service, kind, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveClaimsExtracted(service string, count int) {
	m.claimsExtracted.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) RecordJudgment(service, coverage string) {
	if coverage == "" {
		coverage = "unknown"
	}
	m.judgmentsTotal.WithLabelValues(service, coverage).Inc()
}

func (m *WorkerMetrics) RecordClaimFailure(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.claimFailures.WithLabelValues(service, kind).Inc()
}
