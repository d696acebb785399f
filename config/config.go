package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. CLUSTERFORM_MODEL_PATH.
const EnvPrefix = "CLUSTERFORM"

// Config holds all configuration for the classifier tool.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	State   StateConfig   `yaml:"state"`
	Cache   CacheConfig   `yaml:"cache"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig holds where model definitions come from.
type ModelConfig struct {
	Path        string   `yaml:"path"` // file path or http(s) URL
	Includes    []string `yaml:"includes"`
	Excludes    []string `yaml:"excludes"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// StateConfig holds persistence of last values and history.
type StateConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"` // empty = .clusterform/state.db under the root dir
	HistoryLimit int    `yaml:"history_limit"`
}

// CacheConfig holds compiled plan cache settings.
type CacheConfig struct {
	MaxPlans int `yaml:"max_plans"`
}

// BatchConfig holds batch classification settings.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envOverrides lists the settings that may come from the environment.
type envOverrides struct {
	ModelPath    string `envconfig:"MODEL_PATH"`
	StateEnabled *bool  `envconfig:"STATE_ENABLED"`
	StatePath    string `envconfig:"STATE_PATH"`
	Workers      int    `envconfig:"BATCH_WORKERS"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Path:        "data/model.json",
			Includes:    []string{"**/*.json", "**/*.yaml", "**/*.yml"},
			Excludes:    []string{"**/node_modules/**", "**/.git/**", "**/vendor/**", ".clusterform/**"},
			TimeoutSecs: 10,
		},
		State: StateConfig{
			Enabled:      true,
			HistoryLimit: 200,
		},
		Cache: CacheConfig{
			MaxPlans: 8,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for clusterform.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "clusterform.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".clusterform", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides settings from CLUSTERFORM_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if env.ModelPath != "" {
		c.Model.Path = env.ModelPath
	}
	if env.StateEnabled != nil {
		c.State.Enabled = *env.StateEnabled
	}
	if env.StatePath != "" {
		c.State.Path = env.StatePath
	}
	if env.Workers > 0 {
		c.Batch.Workers = env.Workers
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StateDBPath returns the path to the state database.
func (c *Config) StateDBPath(dir string) string {
	if c.State.Path != "" {
		return c.State.Path
	}
	return filepath.Join(dir, ".clusterform", "state.db")
}

// ModelRef resolves the configured model path against dir. URLs and
// absolute paths are returned unchanged.
func (c *Config) ModelRef(dir string) string {
	p := c.Model.Path
	if p == "" || filepath.IsAbs(p) || hasScheme(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// EnsureStateDir ensures the directory holding the state database exists.
func (c *Config) EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.StateDBPath(dir)), 0755)
}

func hasScheme(p string) bool {
	for _, s := range []string{"http://", "https://"} {
		if len(p) >= len(s) && p[:len(s)] == s {
			return true
		}
	}
	return false
}
