package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgesoc/sentinel/pkg/state"
)

func testConfig(dir string) Config {
	return Config{
		ConfigPath:     filepath.Join(dir, "vector", "vector.toml"),
		LogReadPath:    "/mnt/ram_logs/eve.json",
		SearchEndpoint: "https://search.example.eu-west-1.es.amazonaws.com",
		Region:         "eu-west-1",
		RedisAddr:      "redis:6379",
		QueueKey:       "vector_logs",
		IndexPattern:   "suricata-%Y.%m.%d",
	}
}

func TestRenderConfig(t *testing.T) {
	dir := t.TempDir()
	st := state.NewStore()
	m := NewManager(testConfig(dir), st, zerolog.Nop())

	require.NoError(t, m.RenderConfig())

	data, err := os.ReadFile(filepath.Join(dir, "vector", "vector.toml"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `include = ["/mnt/ram_logs/eve.json"]`)
	assert.Contains(t, content, `url = "redis://redis:6379"`)
	assert.Contains(t, content, `key = "vector_logs"`)
	assert.Contains(t, content, `endpoint = "https://search.example.eu-west-1.es.amazonaws.com"`)
	assert.Contains(t, content, `aws.region = "eu-west-1"`)
	assert.Contains(t, content, `bulk.index = "suricata-%Y.%m.%d"`)
}

func TestRenderConfig_Overwrite(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(testConfig(dir), state.NewStore(), zerolog.Nop())

	require.NoError(t, m.RenderConfig())
	require.NoError(t, m.RenderConfig())
}

func TestPublishHealth_ProxiesStackVerdict(t *testing.T) {
	st := state.NewStore()
	m := NewManager(Config{}, st, zerolog.Nop())

	// Unknown until first published.
	_, ok := st.Get(state.KeyVectorHealthy)
	assert.False(t, ok)

	m.PublishHealth(true)
	assert.True(t, st.Bool(state.KeyVectorHealthy, false))

	m.PublishHealth(false)
	assert.False(t, st.Bool(state.KeyVectorHealthy, true))
	assert.Equal(t, "vector container not healthy", st.String(state.KeyLastError, ""))
}
