package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mabouzeid04/workflow-daddy/internal/observe"
	"github.com/mabouzeid04/workflow-daddy/internal/pipeline"
	"github.com/mabouzeid04/workflow-daddy/internal/server"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a live session, reading observations from stdin",
	Long: `Starts a session and processes observations delivered as JSON lines on
stdin, one object per line:

  {"active_app": "Excel", "window_title": "Book1", "image_ref": "..."}

Missing ids and timestamps are filled in on arrival. The session ends
when stdin closes or on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSession() error {
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
	reasoner, err := buildReasoner(cfg)
	if err != nil {
		return err
	}
	hist, err := loadHistory(context.Background(), stores, facts)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "workflowd: ", log.LstdFlags)
	sess := session.New(uuid.New().String(), time.Now())
	engine := pipeline.NewEngine(cfg, reasoner, stores, hist, sess, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, engine, stores.Sessions, stores.Tasks, stores.Questions, stores.Summaries)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Printf("server stopped: %v", err)
		}
	}()

	runDone := make(chan error, 1)
	go func() { runDone <- engine.Run(ctx) }()

	go func() {
		defer stop()
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var obs observe.Observation
			if err := json.Unmarshal(line, &obs); err != nil {
				logger.Printf("skipping malformed observation: %v", err)
				continue
			}
			if obs.ID == "" {
				obs.ID = uuid.New().String()
			}
			if obs.Timestamp.IsZero() {
				obs.Timestamp = time.Now()
			}
			if err := engine.Submit(ctx, &obs); err != nil {
				return
			}
		}
	}()

	logger.Printf("session %s started", sess.SessionID)
	err = <-runDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Printf("server shutdown: %v", serr)
	}
	logger.Printf("session %s ended", sess.SessionID)
	return err
}
