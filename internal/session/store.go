package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

// Store persists session records.
type Store struct {
	db *db.DB
}

// NewStore creates a new session store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new session row at session start.
func (s *Store) Create(ctx context.Context, sessionID string, start time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		sessionID, start.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Save writes the session's mutable state: task theory and the app time
// accumulator (stored as a JSON object of seconds).
func (s *Store) Save(ctx context.Context, c *Context) error {
	appSeconds := make(map[string]float64)
	for app, d := range c.AppTime() {
		appSeconds[app] = d.Seconds()
	}
	blob, err := json.Marshal(appSeconds)
	if err != nil {
		return fmt.Errorf("marshalling app time: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET task_theory = ?, app_time = ? WHERE id = ?`,
		c.TaskTheory(), string(blob), c.SessionID,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// End stamps the session's end time.
func (s *Store) End(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		at.UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return nil
}

// Record is a persisted session row.
type Record struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	TaskTheory string
}

// GetByID retrieves one session record.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	var r Record
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, task_theory FROM sessions WHERE id = ?`, id,
	).Scan(&r.ID, &r.StartedAt, &endedAt, &r.TaskTheory)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if endedAt.Valid {
		r.EndedAt = endedAt.Time
	}
	return &r, nil
}
