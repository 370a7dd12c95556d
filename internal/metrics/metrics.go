package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry of the planner
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolverIterations counts search iterations by acceptance outcome
	SolverIterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_iterations_total", Help: "ALNS iterations by outcome."},
		[]string{"outcome"},
	)
	// SolverOperatorSelects counts destroy and repair operator picks
	SolverOperatorSelects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_operator_selects_total", Help: "Operator selections by kind and name."},
		[]string{"kind", "operator"},
	)
	// SolverRestarts counts extreme restarts by strategy
	SolverRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_restarts_total", Help: "Extreme restarts by strategy."},
		[]string{"strategy"},
	)
	// SolverBestWeight is the best solution weight of the latest run
	SolverBestWeight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "planner_best_weight", Help: "Best solution weight of the latest run."},
	)
	// SolverUnassigned is the number of unassigned shipments in the latest best solution
	SolverUnassigned = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "planner_unassigned_shipments", Help: "Unassigned shipments in the best solution."},
	)
	// SolverRunDuration records run wall time in seconds by termination reason
	SolverRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "planner_run_duration_seconds", Help: "Solver run duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300}},
		[]string{"termination"},
	)

	// WebhookDeliveries counts report delivery outcomes by status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Report webhook deliveries by status."},
		[]string{"status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"status"},
	)
)

// RegisterDefault registers collectors to the planner registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolverIterations)
		Registry.MustRegister(SolverOperatorSelects)
		Registry.MustRegister(SolverRestarts)
		Registry.MustRegister(SolverBestWeight)
		Registry.MustRegister(SolverUnassigned)
		Registry.MustRegister(SolverRunDuration)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
