package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loom.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	t.Setenv("LOOM_TEST_API_KEY", "sk-from-env")

	path := writeConfig(t, `
provider:
  name: openai
  model: gpt-4o
  api_key: ${LOOM_TEST_API_KEY}
  retries: 2
storage:
  backend: s3
  path: s3://builds/loom
  region: us-east-1
  endpoint: http://localhost:9000
  s3_path_style: true
relay:
  mode: buffered
  flush_count: 10
  flush_interval: 2s
runner:
  enabled: true
  workdir: /tmp/loom-work
  timeout: 90s
server:
  addr: ":9090"
adapter:
  type: webhook
  url: https://hooks.example.com/loom
  headers:
    Authorization: Bearer t
  timeout: 15s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider.Name != "openai" || cfg.Provider.Model != "gpt-4o" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want env-expanded value", cfg.Provider.APIKey)
	}
	if cfg.Provider.Retries == nil || *cfg.Provider.Retries != 2 {
		t.Errorf("retries = %v", cfg.Provider.Retries)
	}
	if cfg.Storage.Backend != "s3" || !cfg.Storage.S3PathStyle {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Relay.Mode != "buffered" || cfg.Relay.FlushCount != 10 {
		t.Errorf("relay = %+v", cfg.Relay)
	}
	if cfg.Relay.FlushInterval.Duration != 2*time.Second {
		t.Errorf("flush_interval = %v", cfg.Relay.FlushInterval)
	}
	if !cfg.Runner.Enabled || cfg.Runner.Timeout.Duration != 90*time.Second {
		t.Errorf("runner = %+v", cfg.Runner)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Adapter.Type != "webhook" || cfg.Adapter.Headers["Authorization"] != "Bearer t" {
		t.Errorf("adapter = %+v", cfg.Adapter)
	}
}

func TestLoadEmptyConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider.Name != "" || cfg.Relay.Mode != "" {
		t.Errorf("empty config produced non-zero values: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() succeeded on a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "provider: [unclosed")); err == nil {
		t.Fatal("Load() accepted invalid YAML")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	if _, err := Load(writeConfig(t, "relay:\n  flush_interval: soon")); err == nil {
		t.Fatal("Load() accepted an invalid duration")
	}
}
