package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

// Store manages the append-only session summary history.
type Store struct {
	db *db.DB
}

// NewStore creates a new summary store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create appends a summary record.
func (s *Store) Create(ctx context.Context, sum SessionSummary) (*SessionSummary, error) {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now().UTC()
	}

	apps, err := json.Marshal(sum.AppsUsed)
	if err != nil {
		return nil, fmt.Errorf("marshalling apps: %w", err)
	}
	observations, err := json.Marshal(sum.NewObservations)
	if err != nil {
		return nil, fmt.Errorf("marshalling observations: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_summaries (id, session_id, date, duration_seconds, tasks_completed, apps_used, questions_answered, new_observations, brief, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.SessionID, sum.Date, int64(sum.Duration.Seconds()), sum.TasksCompleted,
		string(apps), sum.QuestionsAnswered, string(observations), sum.Brief, sum.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting summary: %w", err)
	}
	return &sum, nil
}

// ListRecent returns the most recent summaries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, date, duration_seconds, tasks_completed, apps_used, questions_answered, new_observations, brief, created_at
		 FROM session_summaries ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var seconds int64
		var apps, observations string
		if err := rows.Scan(&sum.ID, &sum.SessionID, &sum.Date, &seconds, &sum.TasksCompleted,
			&apps, &sum.QuestionsAnswered, &observations, &sum.Brief, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.Duration = time.Duration(seconds) * time.Second
		if err := json.Unmarshal([]byte(apps), &sum.AppsUsed); err != nil {
			return nil, fmt.Errorf("parsing apps: %w", err)
		}
		if err := json.Unmarshal([]byte(observations), &sum.NewObservations); err != nil {
			return nil, fmt.Errorf("parsing observations: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// LatestForSession returns the newest summary of one session, nil if none.
func (s *Store) LatestForSession(ctx context.Context, sessionID string) (*SessionSummary, error) {
	summaries, err := s.listForSession(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return &summaries[0], nil
}

func (s *Store) listForSession(ctx context.Context, sessionID string, limit int) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, date, duration_seconds, tasks_completed, apps_used, questions_answered, new_observations, brief, created_at
		 FROM session_summaries WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing session summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var seconds int64
		var apps, observations string
		if err := rows.Scan(&sum.ID, &sum.SessionID, &sum.Date, &seconds, &sum.TasksCompleted,
			&apps, &sum.QuestionsAnswered, &observations, &sum.Brief, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.Duration = time.Duration(seconds) * time.Second
		if err := json.Unmarshal([]byte(apps), &sum.AppsUsed); err != nil {
			return nil, fmt.Errorf("parsing apps: %w", err)
		}
		if err := json.Unmarshal([]byte(observations), &sum.NewObservations); err != nil {
			return nil, fmt.Errorf("parsing observations: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
