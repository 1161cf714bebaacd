/*
Package metrics exposes the pipeline's observable state in Prometheus
format.

The field-to-metric mapping is fixed: every store key mirrored here has one
gauge (levels, percentages and booleans as 0/1), and the throughput
counters are owned by the producing components; the exporter copies gauge
values on its cadence but never increments a counter itself.

	store key          metric
	cpu_usage        → ids2_cpu_usage_percent
	ram_usage        → ids2_ram_usage_percent
	throttling_level → ids2_throttling_level
	aws_ready        → ids2_aws_ready
	redis_ready      → ids2_redis_ready
	pipeline_ok      → ids2_pipeline_ok
	vector_healthy   → ids2_vector_health
	docker_healthy   → ids2_docker_healthy
	redis_queue_depth→ ids2_redis_queue_depth
*/
package metrics
