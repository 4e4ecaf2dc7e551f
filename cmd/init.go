package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mabouzeid04/workflow-daddy/internal/config"
	"github.com/mabouzeid04/workflow-daddy/internal/history"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize workflowd configuration with an interactive wizard",
	Long: `Runs an interactive wizard to configure workflowd, generates a
.workflowd.yml file, and records the baseline interview (role, work
description, recurring tasks) that seeds future sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		return runBaselineInterview(cfg)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runBaselineInterview records the slow-moving facts every session loads
// at start. Empty answers skip the fact.
func runBaselineInterview(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("A few questions about your work, so sessions start with context.")
	fmt.Println("Press enter to skip any of them.")
	fmt.Println()

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	facts := history.NewFactStore(database)
	ctx := context.Background()

	role, err := (&promptui.Prompt{Label: "Your role (e.g. accounts payable specialist)"}).Run()
	if err != nil {
		return fmt.Errorf("role prompt: %w", err)
	}
	if role != "" {
		if err := facts.Set(ctx, history.FactRole, role); err != nil {
			return err
		}
	}

	summary, err := (&promptui.Prompt{Label: "Describe your typical work in a sentence or two"}).Run()
	if err != nil {
		return fmt.Errorf("work description prompt: %w", err)
	}
	if summary != "" {
		if err := facts.Set(ctx, history.FactInterviewSummary, summary); err != nil {
			return err
		}
	}

	tasksAnswer, err := (&promptui.Prompt{Label: "Recurring tasks, comma separated"}).Run()
	if err != nil {
		return fmt.Errorf("recurring tasks prompt: %w", err)
	}
	for _, label := range strings.Split(tasksAnswer, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if err := facts.AddKnownTask(ctx, label); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Baseline saved. Start observing with `workflowd run`.")
	return nil
}
