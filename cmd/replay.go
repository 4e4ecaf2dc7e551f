package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mabouzeid04/workflow-daddy/internal/observe"
	"github.com/mabouzeid04/workflow-daddy/internal/pipeline"
	"github.com/mabouzeid04/workflow-daddy/internal/progress"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay <observations.jsonl>",
	Short: "Replay a recorded observation log through a fresh session",
	Long: `Reads a JSON-lines observation log and feeds it through the full
pipeline as a new session, persisting tasks, questions and the session
summary exactly as a live run would. Useful for reprocessing a capture
after tuning thresholds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(args[0])
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	observations, err := readObservationLog(path)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return fmt.Errorf("no observations in %s", path)
	}

	stores, facts := buildStores(database)
	reasoner, err := buildReasoner(cfg)
	if err != nil {
		return err
	}
	hist, err := loadHistory(context.Background(), stores, facts)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "workflowd: ", log.LstdFlags)
	sess := session.New(uuid.New().String(), observations[0].Timestamp)
	engine := pipeline.NewEngine(cfg, reasoner, stores, hist, sess, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- engine.Run(ctx) }()

	// Drain events so the engine never stalls on a full channel.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range engine.Events() {
			if !verbose {
				continue
			}
			switch ev.Type {
			case pipeline.EventTaskBoundary:
				fmt.Fprintf(os.Stderr, "[%s] boundary: %s\n", ev.At.Format("15:04:05"), ev.Boundary.Type)
			case pipeline.EventQuestionRaised:
				fmt.Fprintf(os.Stderr, "[%s] question: %s\n", ev.At.Format("15:04:05"), ev.Question.Question)
			}
		}
	}()

	reporter := progress.NewReporter()
	reporter.Start(len(observations))
	for i, obs := range observations {
		if err := engine.Submit(ctx, obs); err != nil {
			return fmt.Errorf("submitting observation %d: %w", i+1, err)
		}
		reporter.Update(i+1, obs.ActiveApp)
	}
	reporter.Finish()

	cancel()
	if err := <-runDone; err != nil {
		return err
	}
	<-drained

	return printReplayResult(context.Background(), stores, sess.SessionID)
}

func readObservationLog(path string) ([]*observe.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening observation log: %w", err)
	}
	defer f.Close()

	var observations []*observe.Observation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var obs observe.Observation
		if err := json.Unmarshal(raw, &obs); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", line, err)
		}
		if obs.ID == "" {
			obs.ID = uuid.New().String()
		}
		observations = append(observations, &obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading observation log: %w", err)
	}
	return observations, nil
}

func printReplayResult(ctx context.Context, stores pipeline.Stores, sessionID string) error {
	tasks, err := stores.Tasks.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	fmt.Printf("\nSession %s: %d task(s)\n", sessionID, len(tasks))
	for _, t := range tasks {
		name := t.Name
		if name == "" {
			name = "unnamed task in " + t.DominantApp()
		}
		span := "ongoing"
		if !t.EndedAt.IsZero() {
			span = t.Duration().Round(time.Second).String()
		}
		fmt.Printf("  - %s (%s, %s)\n", name, t.DominantApp(), span)
	}

	summary, err := stores.Summaries.LatestForSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading summary: %w", err)
	}
	if summary != nil {
		fmt.Printf("\nSummary: %s\n", summary.Brief)
	}
	return nil
}
