package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleConfig = `
search:
  endpoint: "https://search.example.eu-west-1.es.amazonaws.com"
  region: "eu-west-1"
redis:
  host: "redis"
  port: 6380
limits:
  cpu_limit_percent: 80
intervals:
  connectivity_check_interval: 5
prometheus:
  port: 9200
`

func TestLoad_AppliesDefaultsUnderOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, "https://search.example.eu-west-1.es.amazonaws.com", cfg.Search.Endpoint)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr())
	assert.Equal(t, 80.0, cfg.Limits.CPULimitPercent)
	assert.Equal(t, 5*time.Second, cfg.Intervals.ConnectivityCheck())
	assert.Equal(t, 9200, cfg.Prometheus.Port)

	// Defaults for everything absent.
	assert.Equal(t, 70.0, cfg.Limits.RAMLimitPercent)
	assert.Equal(t, 0.0, cfg.Limits.HysteresisPercent)
	assert.Equal(t, time.Second, cfg.Intervals.ResourceSample())
	assert.Equal(t, 5*time.Second, cfg.Intervals.MetricsUpdate())
	assert.Equal(t, "vector_logs", cfg.Redis.QueueKey)
	assert.Equal(t, []string{"vector", "redis", "prometheus", "grafana"}, cfg.Stack.Services)
	assert.Equal(t, "oi-", cfg.Stack.NamePrefix)
	assert.Equal(t, "compose", cfg.Stack.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "search: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	_, err := Load(writeConfig(t, "prometheus:\n  port: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "stack:\n  backend: nomad\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "intervals:\n  connectivity_check_interval: 0\n"))
	assert.Error(t, err)
}

func TestManager_ReloadReplacesAtomically(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	m, err := NewManager(path)
	require.NoError(t, err)

	before := m.Current()
	assert.Equal(t, 80.0, before.Limits.CPULimitPercent)

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  cpu_limit_percent: 50\n"), 0o644))
	require.NoError(t, m.Reload())

	assert.Equal(t, 50.0, m.Current().Limits.CPULimitPercent)
	// The previously handed-out document is untouched.
	assert.Equal(t, 80.0, before.Limits.CPULimitPercent)
}

func TestManager_ReloadFailureKeepsPrevious(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(": not yaml"), 0o644))
	assert.Error(t, m.Reload())

	assert.Equal(t, 80.0, m.Current().Limits.CPULimitPercent)
}
