// Package history loads the slow-moving memory tiers at session start:
// the interview baseline, known recurring tasks, prior session summaries,
// and previously answered clarifications. Everything here is read-shaped;
// the stores own mutation.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

// Well-known baseline fact keys.
const (
	FactInterviewSummary = "interview_summary"
	FactRole             = "role"
	factKnownTaskPrefix  = "known_task:"
)

// FactStore persists baseline facts as key/value pairs.
type FactStore struct {
	db *db.DB
}

func NewFactStore(database *db.DB) *FactStore {
	return &FactStore{db: database}
}

// Set upserts a fact by key.
func (s *FactStore) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baseline_facts (id, key, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		uuid.New().String(), key, value, now, now,
	)
	if err != nil {
		return fmt.Errorf("setting baseline fact %q: %w", key, err)
	}
	return nil
}

// Get returns a fact value, or "" if the key is unknown.
func (s *FactStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM baseline_facts WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading baseline fact %q: %w", key, err)
	}
	return value, nil
}

// AddKnownTask records a recurring task label. Re-adding the same label
// refreshes its timestamp rather than duplicating it.
func (s *FactStore) AddKnownTask(ctx context.Context, label string) error {
	return s.Set(ctx, factKnownTaskPrefix+label, label)
}

// KnownTasks returns the recorded recurring task labels, oldest first.
func (s *FactStore) KnownTasks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM baseline_facts WHERE key LIKE ? ORDER BY created_at ASC`,
		factKnownTaskPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing known tasks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scanning known task: %w", err)
		}
		out = append(out, label)
	}
	return out, rows.Err()
}
