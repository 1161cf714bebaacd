package metrics

import (
	"time"

	"github.com/edgesoc/sentinel/pkg/state"
)

// Exporter mirrors the state store into the Prometheus gauges on its own
// cadence. It is strictly read-only: it never writes back to the store, and
// repeated scrapes with no intervening probe writes return identical
// values.
type Exporter struct {
	store    *state.Store
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewExporter creates an exporter reading from store.
func NewExporter(store *state.Store, interval time.Duration) *Exporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Exporter{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the export loop.
func (e *Exporter) Start() {
	go func() {
		defer close(e.doneCh)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		// Export immediately on start
		e.Collect()
		for {
			select {
			case <-ticker.C:
				e.Collect()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop stops the export loop.
func (e *Exporter) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

// Collect copies every mirrored store field into its gauge. Absent keys
// fall back to zero values, matching the store's "unknown" semantics for
// scrape purposes.
func (e *Exporter) Collect() {
	CPUUsage.Set(e.store.Float(state.KeyCPUUsage, 0))
	RAMUsage.Set(e.store.Float(state.KeyRAMUsage, 0))
	ThrottlingLevel.Set(e.store.Float(state.KeyThrottlingLevel, 0))
	RedisQueueDepth.Set(e.store.Float(state.KeyRedisQueueDepth, 0))

	AWSReady.Set(boolToFloat(e.store.Bool(state.KeyAWSReady, false)))
	RedisReady.Set(boolToFloat(e.store.Bool(state.KeyRedisReady, false)))
	PipelineOK.Set(boolToFloat(e.store.Bool(state.KeyPipelineOK, false)))
	VectorHealth.Set(boolToFloat(e.store.Bool(state.KeyVectorHealthy, false)))
	DockerHealthy.Set(boolToFloat(e.store.Bool(state.KeyDockerHealthy, false)))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
