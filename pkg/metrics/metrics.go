package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resource metrics
	CPUUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_cpu_usage_percent",
			Help: "Host CPU utilization in percent",
		},
	)

	RAMUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_ram_usage_percent",
			Help: "Host RAM utilization in percent",
		},
	)

	ThrottlingLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_throttling_level",
			Help: "Pipeline throttling level (0 = normal, 3 = severe)",
		},
	)

	// Readiness metrics
	AWSReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_aws_ready",
			Help: "Search engine readiness (1 = ready, 0 = not ready)",
		},
	)

	RedisReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_redis_ready",
			Help: "Queue service readiness (1 = ready, 0 = not ready)",
		},
	)

	PipelineOK = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_pipeline_ok",
			Help: "Overall pipeline verdict (1 = OK, 0 = degraded)",
		},
	)

	VectorHealth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_vector_health",
			Help: "Log shipper health (1 = healthy, 0 = unhealthy)",
		},
	)

	DockerHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_docker_healthy",
			Help: "Container stack health (1 = healthy, 0 = unhealthy)",
		},
	)

	RedisQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ids2_redis_queue_depth",
			Help: "Depth of the redis fallback queue",
		},
	)

	// Throughput counters, incremented by the producing components and only
	// mirrored (never recomputed) by the exporter.
	IngestionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ids2_ingestion_rate_total",
			Help: "Total number of log documents ingested",
		},
	)

	ErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ids2_error_total",
			Help: "Total number of errors encountered",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(CPUUsage)
	prometheus.MustRegister(RAMUsage)
	prometheus.MustRegister(ThrottlingLevel)
	prometheus.MustRegister(AWSReady)
	prometheus.MustRegister(RedisReady)
	prometheus.MustRegister(PipelineOK)
	prometheus.MustRegister(VectorHealth)
	prometheus.MustRegister(DockerHealthy)
	prometheus.MustRegister(RedisQueueDepth)
	prometheus.MustRegister(IngestionTotal)
	prometheus.MustRegister(ErrorsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe serves /metrics on the given port. It blocks.
func ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
