package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingSetting marks a required setting that is absent. Components
// wrap it at construction time; a missing setting is fatal for the
// component that needs it, not a runtime condition.
var ErrMissingSetting = errors.New("missing required setting")

// SearchConfig locates the search-engine collaborator.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Region     string `yaml:"region"`
	DomainName string `yaml:"domain_name"`
}

// RedisConfig locates the queue service.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	QueueKey string `yaml:"queue_key"`
}

// Addr returns the host:port of the queue service.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// LimitsConfig holds the resource thresholds.
type LimitsConfig struct {
	CPULimitPercent   float64 `yaml:"cpu_limit_percent"`
	RAMLimitPercent   float64 `yaml:"ram_limit_percent"`
	HysteresisPercent float64 `yaml:"hysteresis_percent"`
}

// IntervalsConfig holds the probe cadences in seconds, matching the flat
// numeric style of the YAML file.
type IntervalsConfig struct {
	ResourceSampleSeconds    int `yaml:"resource_sample"`
	ConnectivityCheckSeconds int `yaml:"connectivity_check_interval"`
	MetricsUpdateSeconds     int `yaml:"metrics_update"`
	StackProbeSeconds        int `yaml:"stack_probe"`
	CheckpointSeconds        int `yaml:"checkpoint"`
}

func (i IntervalsConfig) ResourceSample() time.Duration {
	return time.Duration(i.ResourceSampleSeconds) * time.Second
}

func (i IntervalsConfig) ConnectivityCheck() time.Duration {
	return time.Duration(i.ConnectivityCheckSeconds) * time.Second
}

func (i IntervalsConfig) MetricsUpdate() time.Duration {
	return time.Duration(i.MetricsUpdateSeconds) * time.Second
}

func (i IntervalsConfig) StackProbe() time.Duration {
	return time.Duration(i.StackProbeSeconds) * time.Second
}

func (i IntervalsConfig) Checkpoint() time.Duration {
	return time.Duration(i.CheckpointSeconds) * time.Second
}

// PrometheusConfig configures the metrics endpoint.
type PrometheusConfig struct {
	Port int `yaml:"port"`
}

// StackConfig configures the container stack collaborator.
type StackConfig struct {
	// Backend selects the orchestrator: "compose" (docker CLI) or
	// "containerd" (nerdctl-managed stacks).
	Backend          string   `yaml:"backend"`
	ComposeFile      string   `yaml:"compose_file"`
	ContainerdSocket string   `yaml:"containerd_socket"`
	Namespace        string   `yaml:"namespace"`
	Services         []string `yaml:"services"`
	NamePrefix       string   `yaml:"name_prefix"`
}

// VectorConfig configures the log-shipper config target.
type VectorConfig struct {
	ConfigPath   string `yaml:"config_path"`
	LogReadPath  string `yaml:"log_read_path"`
	IndexPattern string `yaml:"index_pattern"`
}

// CheckpointConfig configures state snapshot persistence.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// GitConfig configures the config-repo push collaborator.
type GitConfig struct {
	RepoPath string `yaml:"repo_path"`
	Remote   string `yaml:"remote"`
	Branch   string `yaml:"branch"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the process-wide configuration document. It is consumed
// read-only; Manager.Reload atomically replaces the whole document without
// restarting probes.
type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Redis      RedisConfig      `yaml:"redis"`
	Limits     LimitsConfig     `yaml:"limits"`
	Intervals  IntervalsConfig  `yaml:"intervals"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Stack      StackConfig      `yaml:"stack"`
	Vector     VectorConfig     `yaml:"vector"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Git        GitConfig        `yaml:"git"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the configuration defaults applied before the YAML file
// is unmarshalled over them.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			QueueKey: "vector_logs",
		},
		Limits: LimitsConfig{
			CPULimitPercent: 70,
			RAMLimitPercent: 70,
		},
		Intervals: IntervalsConfig{
			ResourceSampleSeconds:    1,
			ConnectivityCheckSeconds: 10,
			MetricsUpdateSeconds:     5,
			StackProbeSeconds:        15,
			CheckpointSeconds:        30,
		},
		Prometheus: PrometheusConfig{Port: 9100},
		Stack: StackConfig{
			Backend:     "compose",
			ComposeFile: "docker/docker-compose.yml",
			Services:    []string{"vector", "redis", "prometheus", "grafana"},
			NamePrefix:  "oi-",
		},
		Vector: VectorConfig{
			ConfigPath:   "vector/vector.toml",
			LogReadPath:  "/mnt/ram_logs/eve.json",
			IndexPattern: "suricata-%Y.%m.%d",
		},
		Checkpoint: CheckpointConfig{Path: "sentinel.db"},
		Git: GitConfig{
			Remote: "origin",
			Branch: "main",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses the YAML file at path, applying defaults for
// absent keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks document shape. Per-component required settings (search
// endpoint, region) are checked by the components that need them.
func (c *Config) validate() error {
	if c.Prometheus.Port <= 0 || c.Prometheus.Port > 65535 {
		return fmt.Errorf("prometheus.port out of range: %d", c.Prometheus.Port)
	}
	if c.Intervals.ConnectivityCheckSeconds <= 0 {
		return fmt.Errorf("intervals.connectivity_check_interval must be positive")
	}
	switch c.Stack.Backend {
	case "compose", "containerd":
	default:
		return fmt.Errorf("stack.backend must be compose or containerd, got %q", c.Stack.Backend)
	}
	return nil
}

// Manager hands out the current configuration and supports atomic reload.
type Manager struct {
	path string
	cur  atomic.Pointer[Config]
}

// NewManager loads path and returns a manager serving it.
func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cur.Store(cfg)
	return m, nil
}

// Current returns the active configuration. The returned value must be
// treated as read-only.
func (m *Manager) Current() *Config {
	return m.cur.Load()
}

// Reload re-reads the file and atomically replaces the active
// configuration. On error the previous configuration stays active.
func (m *Manager) Reload() error {
	cfg, err := Load(m.path)
	if err != nil {
		return err
	}
	m.cur.Store(cfg)
	return nil
}
