package vector

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/edgesoc/sentinel/pkg/state"
)

// Config carries the settings rendered into vector.toml.
type Config struct {
	// ConfigPath is where the rendered vector.toml is written.
	ConfigPath string

	// LogReadPath is the Suricata eve.json location the file source tails.
	LogReadPath string

	// SearchEndpoint and Region configure the search-engine sink.
	SearchEndpoint string
	Region         string

	// RedisAddr and QueueKey configure the fallback redis sink.
	RedisAddr string
	QueueKey  string

	// IndexPattern is the sink's daily index pattern, e.g.
	// "suricata-%Y.%m.%d" (vector's own strftime syntax).
	IndexPattern string
}

// configTemplate is the write-only template target for the shipper; the
// rendered file is never read back by this process.
var configTemplate = template.Must(template.New("vector.toml").Parse(`# Vector configuration for the Suricata SOC pipeline.
# Generated by sentinel; do not edit by hand.

[sources.suricata_logs]
type = "file"
include = ["{{ .LogReadPath }}"]
read_from = "beginning"
fingerprint.strategy = "checksum"

[transforms.parse_json]
type = "remap"
inputs = ["suricata_logs"]
source = '''
  . = parse_json!(.message)
  .event.kind = "event"
  .event.category = "network"
  .source.ip = .src_ip
  .destination.ip = .dest_ip
  .source.port = .src_port
  .destination.port = .dest_port
  .network.protocol = .proto
  del(.src_ip)
  del(.dest_ip)
  del(.src_port)
  del(.dest_port)
  del(.proto)
'''

[sinks.redis_fallback]
type = "redis"
inputs = ["parse_json"]
url = "redis://{{ .RedisAddr }}"
key = "{{ .QueueKey }}"
encoding.codec = "json"
batch.max_events = 1000
batch.timeout_secs = 5
buffer.type = "disk"
buffer.max_size = 10737418240
buffer.when_full = "block"

[sinks.search_sink]
type = "elasticsearch"
inputs = ["parse_json"]
endpoint = "{{ .SearchEndpoint }}"
bulk.index = "{{ .IndexPattern }}"
auth.strategy = "aws"
aws.region = "{{ .Region }}"
compression = "gzip"
batch.max_events = 500
batch.timeout_secs = 2
request.timeout_secs = 30
buffer.type = "disk"
buffer.max_size = 53687091200
buffer.when_full = "block"
`))

// Manager owns the shipper's rendered configuration and its derived health.
type Manager struct {
	cfg    Config
	store  *state.Store
	logger zerolog.Logger
}

// NewManager creates a vector manager publishing into store.
func NewManager(cfg Config, store *state.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// RenderConfig writes vector.toml from the configured settings.
func (m *Manager) RenderConfig() error {
	if err := os.MkdirAll(filepath.Dir(m.cfg.ConfigPath), 0o755); err != nil {
		return fmt.Errorf("failed to create vector config dir: %w", err)
	}

	f, err := os.Create(m.cfg.ConfigPath)
	if err != nil {
		m.store.SetError(fmt.Sprintf("vector config write error: %v", err))
		return fmt.Errorf("failed to create vector config: %w", err)
	}
	defer f.Close()

	if err := configTemplate.Execute(f, m.cfg); err != nil {
		m.store.SetError(fmt.Sprintf("vector config render error: %v", err))
		return fmt.Errorf("failed to render vector config: %w", err)
	}

	m.logger.Info().Str("path", m.cfg.ConfigPath).Msg("vector config generated")
	return nil
}

// PublishHealth derives the shipper's health from the container stack
// verdict and publishes vector_healthy. This is a deliberate proxy, not a
// liveness check: vector runs inside the stack and its admin API is not
// exposed, so container health is the best signal available.
func (m *Manager) PublishHealth(stackHealthy bool) {
	m.store.Set(state.KeyVectorHealthy, stackHealthy)
	if !stackHealthy {
		m.store.SetError("vector container not healthy")
	}
}
