package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (WORKFLOWD_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: WORKFLOWD_DATA_DIR -> data_dir, etc.
	if err := k.Load(env.Provider("WORKFLOWD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "WORKFLOWD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.ScreenshotIntervalSeconds <= 0 {
		return fmt.Errorf("screenshot_interval_seconds must be positive")
	}
	if c.MaxQuestionsPerHour <= 0 {
		return fmt.Errorf("max_questions_per_hour must be positive")
	}
	if c.MinTimeBetweenQuestionsSeconds < 0 {
		return fmt.Errorf("min_time_between_questions_seconds must be non-negative")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1]")
	}
	if c.IdleThresholdSeconds <= 0 {
		return fmt.Errorf("idle_threshold_seconds must be positive")
	}
	if c.MinTaskDurationSeconds < 0 {
		return fmt.Errorf("min_task_duration_seconds must be non-negative")
	}
	if c.AppSwitchDebounceSeconds < 0 {
		return fmt.Errorf("app_switch_debounce_seconds must be non-negative")
	}
	if c.ImmediateBufferSize <= 0 {
		return fmt.Errorf("immediate_buffer_size must be positive")
	}
	if c.SessionBudget <= 0 || c.HistoricalBudget <= 0 || c.BaselineBudget <= 0 {
		return fmt.Errorf("tier budgets must be positive")
	}

	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q: must be one of openai, ollama", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	for i, p := range c.Boundary.SameTaskPairs {
		if p.From == "" || p.To == "" {
			return fmt.Errorf("boundary.same_task_pairs[%d]: from and to are required", i)
		}
		if p.MaxDwellSeconds < 0 {
			return fmt.Errorf("boundary.same_task_pairs[%d]: max_dwell_seconds must be non-negative", i)
		}
	}
	for i, t := range c.Boundary.BoundaryTimes {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("boundary.boundary_times[%d]: %q is not HH:MM", i, t)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider. Ollama needs no key.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
