package config

// ProviderType identifies an LLM provider used for reasoning calls.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// AppPair is one entry in the same-task exception table. It suppresses a
// task boundary when the active application changes from a window matching
// From to one matching To. Patterns are doublestar globs matched
// case-insensitively against application names ("*" matches any app).
//
// Pairs are directional: {From: "*", To: "Slack"} does not imply that
// switching out of Slack is also exempt. MaxDwellSeconds bounds how long
// the dip into To stays exempt; past it the switch becomes a real boundary
// candidate again. Zero means no dwell override.
type AppPair struct {
	From            string `yaml:"from" koanf:"from"`
	To              string `yaml:"to" koanf:"to"`
	MaxDwellSeconds int    `yaml:"max_dwell_seconds" koanf:"max_dwell_seconds"`
}

// BoundaryPolicy holds the tunable heuristics of the task boundary
// detector, kept as data so the policy can be swapped or tuned without
// touching the state machine.
type BoundaryPolicy struct {
	SameTaskPairs []AppPair `yaml:"same_task_pairs" koanf:"same_task_pairs"`
	// NewTaskApps are app patterns whose appearance always opens a new
	// task regardless of the debounce window.
	NewTaskApps []string `yaml:"new_task_apps" koanf:"new_task_apps"`
	// BoundaryTimes are local times of day ("15:04"). An idle gap that
	// spans one of them completes the task instead of interrupting it.
	BoundaryTimes []string `yaml:"boundary_times" koanf:"boundary_times"`
}

// LLMConfig selects and tunes the reasoning provider.
type LLMConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
}

// ServerConfig holds the UI-facing HTTP surface settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level workflowd configuration, corresponding to
// .workflowd.yml.
type Config struct {
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	ScreenshotIntervalSeconds      int     `yaml:"screenshot_interval_seconds" koanf:"screenshot_interval_seconds"`
	MaxQuestionsPerHour            int     `yaml:"max_questions_per_hour" koanf:"max_questions_per_hour"`
	MinTimeBetweenQuestionsSeconds int     `yaml:"min_time_between_questions_seconds" koanf:"min_time_between_questions_seconds"`
	ConfidenceThreshold            float64 `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	IdleThresholdSeconds           int     `yaml:"idle_threshold_seconds" koanf:"idle_threshold_seconds"`
	MinTaskDurationSeconds         int     `yaml:"min_task_duration_seconds" koanf:"min_task_duration_seconds"`
	AppSwitchDebounceSeconds       int     `yaml:"app_switch_debounce_seconds" koanf:"app_switch_debounce_seconds"`

	// ImmediateBufferSize is the capacity of the rolling observation
	// window kept by the immediate context tracker.
	ImmediateBufferSize int `yaml:"immediate_buffer_size" koanf:"immediate_buffer_size"`

	// Per-tier unit budgets for context assembly.
	SessionBudget    int `yaml:"session_budget" koanf:"session_budget"`
	HistoricalBudget int `yaml:"historical_budget" koanf:"historical_budget"`
	BaselineBudget   int `yaml:"baseline_budget" koanf:"baseline_budget"`

	Boundary BoundaryPolicy `yaml:"boundary" koanf:"boundary"`
	LLM      LLMConfig      `yaml:"llm" koanf:"llm"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
}
