package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mabouzeid04/workflow-daddy/internal/config"
	"github.com/mabouzeid04/workflow-daddy/internal/db"
	"github.com/mabouzeid04/workflow-daddy/internal/history"
	"github.com/mabouzeid04/workflow-daddy/internal/llm"
	"github.com/mabouzeid04/workflow-daddy/internal/pipeline"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/reason"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// loadConfig reads and validates the config file from the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openDatabase opens the SQLite database under the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "workflowd.db"))
}

// buildStores wires all persistence surfaces over one database.
func buildStores(database *db.DB) (pipeline.Stores, *history.FactStore) {
	stores := pipeline.Stores{
		Sessions:  session.NewStore(database),
		Tasks:     task.NewStore(database),
		Questions: question.NewStore(database),
		Summaries: summarize.NewStore(database),
	}
	return stores, history.NewFactStore(database)
}

// buildReasoner creates the reasoning collaborator from the configured
// provider.
func buildReasoner(cfg *config.Config) (*reason.Reasoner, error) {
	provider, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return reason.New(provider, cfg.LLM.Model, cfg.LLM.MaxTokens), nil
}

// loadHistory assembles the historical tier for a new session.
func loadHistory(ctx context.Context, stores pipeline.Stores, facts *history.FactStore) (*history.HistoricalContext, error) {
	loader := history.NewLoader(facts, stores.Summaries, stores.Questions)
	return loader.Load(ctx)
}
