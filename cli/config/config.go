package config

import (
	"fmt"
	"time"
)

// Config represents a loom.yaml configuration file.
// All values are optional and act as defaults for loom command flags.
// CLI flags always override config values.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Storage  StorageConfig  `yaml:"storage"`
	Relay    RelayConfig    `yaml:"relay"`
	Runner   RunnerConfig   `yaml:"runner"`
	Server   ServerConfig   `yaml:"server"`
	Adapter  AdapterConfig  `yaml:"adapter"`
}

// ProviderConfig holds model provider defaults from the config file.
type ProviderConfig struct {
	// Name selects the provider: openai, anthropic, or ollama.
	Name string `yaml:"name"`
	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`
	// APIKey is the provider credential. Usually set via ${VAR} expansion.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the provider endpoint (proxies, ollama hosts).
	BaseURL string `yaml:"base_url"`
	// Retries bounds transport retries before the first chunk.
	Retries *int `yaml:"retries,omitempty"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	// Backend selects the storage backend: fs, s3, or mem.
	Backend string `yaml:"backend"`
	// Path is the FS root directory, or an s3://bucket/prefix URL.
	Path string `yaml:"path"`
	// Region is the S3 region.
	Region string `yaml:"region"`
	// Endpoint overrides the S3 endpoint (R2, MinIO).
	Endpoint string `yaml:"endpoint"`
	// S3PathStyle forces path-style addressing.
	S3PathStyle bool `yaml:"s3_path_style"`
}

// RelayConfig holds delivery defaults from the config file.
type RelayConfig struct {
	// Mode selects the relay: live or buffered.
	Mode string `yaml:"mode"`
	// FlushCount triggers a buffered flush at this many actions.
	FlushCount int `yaml:"flush_count"`
	// FlushInterval triggers a buffered flush on a timer.
	FlushInterval Duration `yaml:"flush_interval"`
}

// RunnerConfig holds command execution defaults from the config file.
type RunnerConfig struct {
	// Enabled turns on shell command execution. Off by default: extracted
	// commands are marked completed without running.
	Enabled bool `yaml:"enabled"`
	// Workdir is the directory files are mirrored to and commands run in.
	Workdir string `yaml:"workdir"`
	// Timeout bounds each command.
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig holds serve defaults from the config file.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
}

// AdapterConfig holds completion adapter defaults from the config file.
type AdapterConfig struct {
	// Type selects the adapter: webhook or redis. Empty disables it.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
