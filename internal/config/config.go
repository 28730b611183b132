// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/flowtrace/internal/log"
)

// GlobalConfig represents the top-level static configuration.
// Maps to the `flowtrace:` root key in YAML; env vars use the FLOWTRACE_
// prefix (e.g. FLOWTRACE_LOG_LEVEL).
type GlobalConfig struct {
	Log       *log.LoggerConfig `mapstructure:"log"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Engine    EngineConfig      `mapstructure:"engine"`
	Pipelines []PipelineConfig  `mapstructure:"pipelines"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// EngineConfig contains demo host settings.
type EngineConfig struct {
	// BufferSize is the per-channel ring buffer capacity in bytes.
	BufferSize int `mapstructure:"buffer_size"`
}

// PipelineConfig declares one pipeline and its ordered filter lines. Each
// filter line is a whitespace-separated declaration starting with a
// registered filter keyword, e.g. `trace name edge random-parsing hexdump`.
type PipelineConfig struct {
	ID      string   `mapstructure:"id" yaml:"id"`
	Mode    string   `mapstructure:"mode" yaml:"mode"`
	Filters []string `mapstructure:"filters" yaml:"filters"`
}

// Tokens splits a filter line into its declaration tokens.
func Tokens(filterLine string) []string {
	return strings.Fields(filterLine)
}

// configRoot is the top-level wrapper matching the YAML structure `flowtrace: ...`.
type configRoot struct {
	FlowTrace GlobalConfig `mapstructure:"flowtrace"`
}

// Load loads configuration from file.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `flowtrace.` key prefix maps to FLOWTRACE_ env vars via the key
	// replacer (key "flowtrace.log.level" -> env "FLOWTRACE_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.FlowTrace

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("flowtrace.log.level", "info")
	v.SetDefault("flowtrace.log.pattern", "%time [%level] %caller: %msg%n")
	v.SetDefault("flowtrace.log.time", "2006-01-02 15:04:05")

	v.SetDefault("flowtrace.metrics.enabled", false)
	v.SetDefault("flowtrace.metrics.listen", ":9091")
	v.SetDefault("flowtrace.metrics.path", "/metrics")

	v.SetDefault("flowtrace.engine.buffer_size", 16384)
}

// Validate checks pipeline declarations for the mistakes a parser cannot
// catch per-line.
func (cfg *GlobalConfig) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.Log != nil && !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}

	if cfg.Engine.BufferSize <= 0 {
		return fmt.Errorf("engine.buffer_size must be positive")
	}

	return ValidatePipelines(cfg.Pipelines)
}

// ValidatePipelines checks pipeline declarations for duplicate ids and
// unknown modes.
func ValidatePipelines(pipelines []PipelineConfig) error {
	seen := make(map[string]bool)
	for i, p := range pipelines {
		if p.ID == "" {
			return fmt.Errorf("pipeline #%d has no id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate pipeline id: %s", p.ID)
		}
		seen[p.ID] = true
		switch p.Mode {
		case "", "tcp", "message", "msg":
		default:
			return fmt.Errorf("pipeline %s: invalid mode %q (must be tcp or message)", p.ID, p.Mode)
		}
	}
	return nil
}
