package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Path != "data/model.json" {
		t.Errorf("expected Path=data/model.json, got %s", cfg.Model.Path)
	}
	if cfg.Model.TimeoutSecs != 10 {
		t.Errorf("expected TimeoutSecs=10, got %d", cfg.Model.TimeoutSecs)
	}
	if !cfg.State.Enabled {
		t.Error("expected state enabled by default")
	}
	if cfg.Cache.MaxPlans != 8 {
		t.Errorf("expected MaxPlans=8, got %d", cfg.Cache.MaxPlans)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", cfg.Batch.Workers)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "clusterform.yaml")

	content := `
model:
  path: models/customers.yaml
state:
  enabled: false
batch:
  workers: 2
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model.Path != "models/customers.yaml" {
		t.Errorf("expected Path=models/customers.yaml, got %s", cfg.Model.Path)
	}
	if cfg.State.Enabled {
		t.Error("expected state disabled")
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("expected Workers=2, got %d", cfg.Batch.Workers)
	}
	if cfg.Cache.MaxPlans != 8 {
		t.Errorf("expected untouched MaxPlans=8, got %d", cfg.Cache.MaxPlans)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "clusterform.yaml")
	if err := os.WriteFile(configPath, []byte("model: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".clusterform"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".clusterform", "config.yaml")

	content := `
cache:
  max_plans: 32
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Cache.MaxPlans != 32 {
		t.Errorf("expected MaxPlans=32, got %d", cfg.Cache.MaxPlans)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusterform.yaml")
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", loaded.Logging.Level)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CLUSTERFORM_MODEL_PATH", "https://example.com/model.json")
	t.Setenv("CLUSTERFORM_STATE_ENABLED", "false")
	t.Setenv("CLUSTERFORM_BATCH_WORKERS", "9")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.Model.Path != "https://example.com/model.json" {
		t.Errorf("expected URL model path, got %s", cfg.Model.Path)
	}
	if cfg.State.Enabled {
		t.Error("expected state disabled from env")
	}
	if cfg.Batch.Workers != 9 {
		t.Errorf("expected Workers=9, got %d", cfg.Batch.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected untouched Level=info, got %s", cfg.Logging.Level)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("CLUSTERFORM_BATCH_WORKERS", "many")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric workers")
	}
}

func TestStateDBPath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StateDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".clusterform", "state.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.State.Path = "/tmp/custom.db"
	if got := cfg.StateDBPath("/home/user/project"); got != "/tmp/custom.db" {
		t.Errorf("expected custom path, got %s", got)
	}
}

func TestModelRef(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ModelRef("/proj"); got != filepath.Join("/proj", "data", "model.json") {
		t.Errorf("unexpected relative resolution %s", got)
	}
	cfg.Model.Path = "http://host/model.json"
	if got := cfg.ModelRef("/proj"); got != "http://host/model.json" {
		t.Errorf("expected URL unchanged, got %s", got)
	}
}
