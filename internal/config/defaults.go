package config

// DefaultSameTaskPairs is the built-in same-task exception table. Dipping
// from any app into a browser, a quick-reference app, or a messaging app
// is not by itself a boundary; dwelling there past the override is.
var DefaultSameTaskPairs = []AppPair{
	{From: "*", To: "*chrome*", MaxDwellSeconds: 180},
	{From: "*", To: "*firefox*", MaxDwellSeconds: 180},
	{From: "*", To: "*safari*", MaxDwellSeconds: 180},
	{From: "*", To: "*edge*", MaxDwellSeconds: 180},
	{From: "*", To: "*slack*", MaxDwellSeconds: 120},
	{From: "*", To: "*teams*", MaxDwellSeconds: 120},
	{From: "*", To: "*notes*", MaxDwellSeconds: 120},
	{From: "*", To: "*notion*", MaxDwellSeconds: 180},
	{From: "*", To: "*calculator*", MaxDwellSeconds: 60},
	{From: "*", To: "*finder*", MaxDwellSeconds: 60},
	{From: "*", To: "*explorer*", MaxDwellSeconds: 60},
}

// DefaultBoundaryTimes are times of day that commonly separate work blocks.
var DefaultBoundaryTimes = []string{"12:30", "17:30"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".workflowd",

		ScreenshotIntervalSeconds:      30,
		MaxQuestionsPerHour:            5,
		MinTimeBetweenQuestionsSeconds: 300,
		ConfidenceThreshold:            0.7,
		IdleThresholdSeconds:           300,
		MinTaskDurationSeconds:         60,
		AppSwitchDebounceSeconds:       30,

		ImmediateBufferSize: 6,

		SessionBudget:    500,
		HistoricalBudget: 1000,
		BaselineBudget:   500,

		Boundary: BoundaryPolicy{
			SameTaskPairs: DefaultSameTaskPairs,
			BoundaryTimes: DefaultBoundaryTimes,
		},
		LLM: LLMConfig{
			Provider:          ProviderOpenAI,
			Model:             "gpt-4o",
			RequestsPerMinute: 20,
			MaxTokens:         1024,
		},
		Server: ServerConfig{
			Port: 8793,
		},
	}
}
