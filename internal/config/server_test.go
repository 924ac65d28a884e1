package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Default log level mismatch: got %s, want info", cfg.LogLevel)
	}

	if cfg.Engine != "FlinkSQL" {
		t.Errorf("Default engine mismatch: got %s, want FlinkSQL", cfg.Engine)
	}

	if len(cfg.AddonPaths) != 1 || cfg.AddonPaths[0] != "./addons" {
		t.Errorf("Default addon paths mismatch: got %v, want [./addons]", cfg.AddonPaths)
	}

	if cfg.Wasm.MemoryPages != 256 {
		t.Errorf("Default memory pages mismatch: got %d, want 256", cfg.Wasm.MemoryPages)
	}

	if cfg.Wasm.ExecutionTimeout != 30 {
		t.Errorf("Default execution timeout mismatch: got %d, want 30", cfg.Wasm.ExecutionTimeout)
	}
}

func TestLoadServerConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
log_level: debug
engine: FlinkSQL
addon_paths:
  - /opt/flink-addons
wasm:
  memory_pages: 128
  execution_timeout: 10
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServerConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Log level mismatch: got %s, want debug", cfg.LogLevel)
	}

	if len(cfg.AddonPaths) != 1 || cfg.AddonPaths[0] != "/opt/flink-addons" {
		t.Errorf("Addon paths mismatch: got %v", cfg.AddonPaths)
	}

	if cfg.Wasm.MemoryPages != 128 {
		t.Errorf("Memory pages mismatch: got %d, want 128", cfg.Wasm.MemoryPages)
	}

	if cfg.Wasm.ExecutionTimeout != 10 {
		t.Errorf("Execution timeout mismatch: got %d, want 10", cfg.Wasm.ExecutionTimeout)
	}

	// Unset keys keep their defaults.
	if cfg.Wasm.MaxInstances != 100 {
		t.Errorf("Max instances mismatch: got %d, want 100", cfg.Wasm.MaxInstances)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	_, err := LoadServerConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("LoadServerConfig() should fail for a missing config file")
	}
}
