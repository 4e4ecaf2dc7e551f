package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxQuestionsPerHour != 5 {
		t.Errorf("expected default max_questions_per_hour 5, got %d", cfg.MaxQuestionsPerHour)
	}
	if cfg.IdleThresholdSeconds != 300 {
		t.Errorf("expected default idle_threshold_seconds 300, got %d", cfg.IdleThresholdSeconds)
	}
	if cfg.AppSwitchDebounceSeconds != 30 {
		t.Errorf("expected default app_switch_debounce_seconds 30, got %d", cfg.AppSwitchDebounceSeconds)
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Errorf("expected default confidence_threshold 0.7, got %f", cfg.ConfidenceThreshold)
	}
	if cfg.ImmediateBufferSize != 6 {
		t.Errorf("expected default immediate_buffer_size 6, got %d", cfg.ImmediateBufferSize)
	}
	if len(cfg.Boundary.SameTaskPairs) == 0 {
		t.Error("expected default same-task pairs to be populated")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.workflowd.yml")

	original := DefaultConfig()
	original.LLM.Provider = ProviderOllama
	original.LLM.Model = "llama3"
	original.MaxQuestionsPerHour = 3
	original.IdleThresholdSeconds = 600
	original.Boundary.SameTaskPairs = []AppPair{
		{From: "*", To: "*slack*", MaxDwellSeconds: 90},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Provider != original.LLM.Provider {
		t.Errorf("llm.provider: got %q, want %q", loaded.LLM.Provider, original.LLM.Provider)
	}
	if loaded.LLM.Model != original.LLM.Model {
		t.Errorf("llm.model: got %q, want %q", loaded.LLM.Model, original.LLM.Model)
	}
	if loaded.MaxQuestionsPerHour != 3 {
		t.Errorf("max_questions_per_hour: got %d, want 3", loaded.MaxQuestionsPerHour)
	}
	if loaded.IdleThresholdSeconds != 600 {
		t.Errorf("idle_threshold_seconds: got %d, want 600", loaded.IdleThresholdSeconds)
	}
	if len(loaded.Boundary.SameTaskPairs) != 1 {
		t.Fatalf("same_task_pairs length: got %d, want 1", len(loaded.Boundary.SameTaskPairs))
	}
	if loaded.Boundary.SameTaskPairs[0].To != "*slack*" {
		t.Errorf("same_task_pairs[0].to: got %q", loaded.Boundary.SameTaskPairs[0].To)
	}
	if loaded.Boundary.SameTaskPairs[0].MaxDwellSeconds != 90 {
		t.Errorf("same_task_pairs[0].max_dwell_seconds: got %d, want 90", loaded.Boundary.SameTaskPairs[0].MaxDwellSeconds)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxQuestionsPerHour != 5 {
		t.Errorf("expected default max_questions_per_hour, got %d", cfg.MaxQuestionsPerHour)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("WORKFLOWD_MAX_QUESTIONS_PER_HOUR", "2")
	defer os.Unsetenv("WORKFLOWD_MAX_QUESTIONS_PER_HOUR")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxQuestionsPerHour != 2 {
		t.Errorf("env override not applied: got %d, want 2", cfg.MaxQuestionsPerHour)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.LLM.Provider = "cohere" }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"zero interval", func(c *Config) { c.ScreenshotIntervalSeconds = 0 }},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"negative debounce", func(c *Config) { c.AppSwitchDebounceSeconds = -1 }},
		{"bad boundary time", func(c *Config) { c.Boundary.BoundaryTimes = []string{"25:99"} }},
		{"pair missing to", func(c *Config) {
			c.Boundary.SameTaskPairs = []AppPair{{From: "*"}}
		}},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
