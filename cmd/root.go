package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "workflowd",
	Short: "Workflow memory engine for screen observations",
	Long: `Workflowd consumes a stream of screen observations, detects task
boundaries, accumulates layered context about the current work session,
and raises sparse clarifying questions when it cannot explain what it
sees. Sessions compress into summaries that feed future sessions.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".workflowd.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
