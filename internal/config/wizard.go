package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive first-run wizard and returns the resulting
// Config. It also saves the config to .workflowd.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to workflowd! Let's configure observation.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select reasoning provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LLM.Provider = ProviderType(providerStr)

	defaultModel := "gpt-4o"
	if cfg.LLM.Provider == ProviderOllama {
		defaultModel = "llama3"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModel,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model prompt: %w", err)
	}
	cfg.LLM.Model = model

	intervalPrompt := promptui.Prompt{
		Label:   "Screenshot interval in seconds",
		Default: strconv.Itoa(cfg.ScreenshotIntervalSeconds),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	intervalStr, err := intervalPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("interval prompt: %w", err)
	}
	cfg.ScreenshotIntervalSeconds, _ = strconv.Atoi(intervalStr)

	questionsPrompt := promptui.Prompt{
		Label:   "Max clarifying questions per hour",
		Default: strconv.Itoa(cfg.MaxQuestionsPerHour),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	questionsStr, err := questionsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("questions prompt: %w", err)
	}
	cfg.MaxQuestionsPerHour, _ = strconv.Atoi(questionsStr)

	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir prompt: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(".workflowd.yml"); err != nil {
		return nil, err
	}
	fmt.Println()
	fmt.Println("Configuration saved to .workflowd.yml")

	if envVar := APIKeyEnvVar(cfg.LLM.Provider); envVar != "" {
		fmt.Printf("Remember to set %s before running `workflowd run`.\n", envVar)
	}

	return cfg, nil
}
