package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

// Store manages persistence of tasks and their app segments.
type Store struct {
	db *db.DB
}

// NewStore creates a new task store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save upserts a task and rewrites its segments. The pipeline calls this
// on every boundary event, so segment rows always mirror the in-memory
// task.
func (s *Store) Save(ctx context.Context, t *Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning task save: %w", err)
	}
	defer tx.Rollback()

	var endedAt sql.NullTime
	if !t.EndedAt.IsZero() {
		endedAt = sql.NullTime{Time: t.EndedAt.UTC(), Valid: true}
	}
	var explanation sql.NullString
	if t.UserExplanation != "" {
		explanation = sql.NullString{String: t.UserExplanation, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, session_id, name, status, started_at, ended_at, user_explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   status = excluded.status,
		   ended_at = excluded.ended_at,
		   user_explanation = excluded.user_explanation`,
		t.ID, t.SessionID, t.Name, t.Status, t.StartedAt.UTC(), endedAt, explanation,
	)
	if err != nil {
		return fmt.Errorf("upserting task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM app_segments WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing segments: %w", err)
	}
	for _, seg := range t.Segments {
		var segEnd sql.NullTime
		if !seg.EndedAt.IsZero() {
			segEnd = sql.NullTime{Time: seg.EndedAt.UTC(), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO app_segments (id, task_id, app, window_title, started_at, ended_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), t.ID, seg.App, seg.WindowTitle, seg.StartedAt.UTC(), segEnd,
		)
		if err != nil {
			return fmt.Errorf("inserting segment: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes a task and its segments. Used when a short task is
// merged backward so the discarded id is never persisted as orphaned.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning task delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM app_segments WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return tx.Commit()
}

// GetByID retrieves one task with its segments.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, name, status, started_at, ended_at, user_explanation
		 FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	if err := s.loadSegments(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListBySession returns all tasks of a session in start order.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, name, status, started_at, ended_at, user_explanation
		 FROM tasks WHERE session_id = ? ORDER BY started_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	for _, t := range tasks {
		if err := s.loadSegments(ctx, t); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*Task, error) {
	var t Task
	var endedAt sql.NullTime
	var explanation sql.NullString
	if err := row.Scan(&t.ID, &t.SessionID, &t.Name, &t.Status, &t.StartedAt, &endedAt, &explanation); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t.EndedAt = endedAt.Time
	}
	t.UserExplanation = explanation.String
	return &t, nil
}

func (s *Store) loadSegments(ctx context.Context, t *Task) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app, window_title, started_at, ended_at
		 FROM app_segments WHERE task_id = ? ORDER BY started_at`, t.ID)
	if err != nil {
		return fmt.Errorf("loading segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seg AppSegment
		var endedAt sql.NullTime
		if err := rows.Scan(&seg.App, &seg.WindowTitle, &seg.StartedAt, &endedAt); err != nil {
			return fmt.Errorf("scanning segment: %w", err)
		}
		if endedAt.Valid {
			seg.EndedAt = endedAt.Time
		}
		t.Segments = append(t.Segments, seg)
	}
	return rows.Err()
}

// AppTimeTotals recomputes per-app time for a session from stored
// segments. Used to cross-check the in-memory accumulator.
func (s *Store) AppTimeTotals(ctx context.Context, sessionID string) (map[string]time.Duration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seg.app, seg.started_at, seg.ended_at
		 FROM app_segments seg JOIN tasks t ON t.id = seg.task_id
		 WHERE t.session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying segment totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]time.Duration)
	for rows.Next() {
		var app string
		var start time.Time
		var end sql.NullTime
		if err := rows.Scan(&app, &start, &end); err != nil {
			return nil, fmt.Errorf("scanning segment total: %w", err)
		}
		if end.Valid && end.Time.After(start) {
			totals[app] += end.Time.Sub(start)
		}
	}
	return totals, rows.Err()
}
