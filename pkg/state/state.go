package state

import (
	"sync"
	"time"
)

// Well-known store keys. Probes write these; the metrics exporter and the
// checkpoint writer read them. Keys are flat strings with no nesting.
const (
	KeyCPUUsage        = "cpu_usage"
	KeyRAMUsage        = "ram_usage"
	KeyThrottlingLevel = "throttling_level"
	KeyAWSReady        = "aws_ready"
	KeyRedisReady      = "redis_ready"
	KeyRedisQueueDepth = "redis_queue_depth"
	KeyDockerHealthy   = "docker_healthy"
	KeyVectorHealthy   = "vector_healthy"
	KeyPipelineOK      = "pipeline_ok"
	KeyLastError       = "last_error"
)

// Observation is a single named fact published by a probe.
type Observation struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the shared state store: a concurrently accessed flat key/value
// table holding the latest observation from every probe. It is the only
// shared mutable object in the process; all cross-component communication
// goes through it.
//
// Operations never fail and never block beyond the internal mutex. A key
// that has not been written yet is "unknown" (Get reports ok=false), not
// false or zero.
type Store struct {
	mu  sync.RWMutex
	obs map[string]Observation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		obs: make(map[string]Observation),
	}
}

// Set overwrites the observation for key and stamps it with the current time.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.obs[key] = Observation{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	s.mu.Unlock()
}

// SetError records a failure description under the last_error key.
// Concurrent probes may race on this key; last writer wins, and the mutex
// guarantees the stored string is never torn.
func (s *Store) SetError(msg string) {
	s.Set(KeyLastError, msg)
}

// Get returns the observation for key. ok is false when the key has never
// been written.
func (s *Store) Get(key string) (Observation, bool) {
	s.mu.RLock()
	o, ok := s.obs[key]
	s.mu.RUnlock()
	return o, ok
}

// Bool returns the boolean value stored under key, or def when the key is
// absent or holds a non-boolean.
func (s *Store) Bool(key string, def bool) bool {
	o, ok := s.Get(key)
	if !ok {
		return def
	}
	if b, ok := o.Value.(bool); ok {
		return b
	}
	return def
}

// Float returns the numeric value stored under key as a float64, or def
// when the key is absent or non-numeric.
func (s *Store) Float(key string, def float64) float64 {
	o, ok := s.Get(key)
	if !ok {
		return def
	}
	switch v := o.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// String returns the string value stored under key, or def when the key is
// absent or holds a non-string.
func (s *Store) String(key string, def string) string {
	o, ok := s.Get(key)
	if !ok {
		return def
	}
	if str, ok := o.Value.(string); ok {
		return str
	}
	return def
}

// Snapshot returns a point-in-time copy of every observation. Each key is
// read atomically; the snapshot as a whole is only eventually consistent
// across keys written by different probes on different cadences.
func (s *Store) Snapshot() map[string]Observation {
	s.mu.RLock()
	snap := make(map[string]Observation, len(s.obs))
	for k, v := range s.obs {
		snap[k] = v
	}
	s.mu.RUnlock()
	return snap
}
