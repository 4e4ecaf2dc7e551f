package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mabouzeid04/workflow-daddy/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve workflow memory to agents over MCP stdio",
	Long: `Exposes stored sessions, tasks, questions and baseline facts as MCP
tools on stdin/stdout. Point an MCP-capable agent at this command to let
it query what the user has been working on. All diagnostics go to
stderr; stdout carries only the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	stores, facts := buildStores(database)
	srv := mcp.NewServer(stores.Sessions, stores.Tasks, stores.Questions, stores.Summaries, facts)
	return srv.Serve()
}
