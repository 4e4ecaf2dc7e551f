package question

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

// Store persists clarification questions.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a raised question.
func (s *Store) Create(ctx context.Context, q *ClarificationQuestion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clarification_questions (id, session_id, raised_at, trigger_context, question, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.SessionID, q.RaisedAt.UTC(), q.TriggerContext, q.Question, q.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

// GetByID returns a question, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*ClarificationQuestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, raised_at, trigger_context, question, status, answer, answered_at
		 FROM clarification_questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading question: %w", err)
	}
	return q, nil
}

// List returns questions for a session, newest first. An empty status
// returns all of them.
func (s *Store) List(ctx context.Context, sessionID string, status Status) ([]*ClarificationQuestion, error) {
	query := `SELECT id, session_id, raised_at, trigger_context, question, status, answer, answered_at
		 FROM clarification_questions WHERE session_id = ?`
	args := []any{sessionID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY raised_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var out []*ClarificationQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Answer records the user's answer and marks the question answered.
func (s *Store) Answer(ctx context.Context, id, answer string, at time.Time) error {
	return s.transition(ctx, id, StatusAnswered, answer, &at)
}

// Dismiss marks the question dismissed without an answer.
func (s *Store) Dismiss(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusDismissed, "", nil)
}

// Defer marks the question deferred so it can be re-surfaced later.
// Deferral never resets the raise time used for rate limiting.
func (s *Store) Defer(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusDeferred, "", nil)
}

func (s *Store) transition(ctx context.Context, id string, status Status, answer string, at *time.Time) error {
	var answeredAt sql.NullTime
	if at != nil {
		answeredAt = sql.NullTime{Time: at.UTC(), Valid: true}
	}
	var answerVal sql.NullString
	if answer != "" {
		answerVal = sql.NullString{String: answer, Valid: true}
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE clarification_questions SET status = ?, answer = ?, answered_at = ? WHERE id = ?`,
		status, answerVal, answeredAt, id,
	)
	if err != nil {
		return fmt.Errorf("updating question: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating question: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("question %s not found", id)
	}
	return nil
}

// CountAnswered returns how many questions for a session were answered.
func (s *Store) CountAnswered(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clarification_questions WHERE session_id = ? AND status = ?`,
		sessionID, StatusAnswered).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting answered questions: %w", err)
	}
	return n, nil
}

// QA is one answered question/answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnsweredPairs returns question/answer pairs for a session, oldest
// first, for use as historical context.
func (s *Store) AnsweredPairs(ctx context.Context, sessionID string) ([]QA, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer FROM clarification_questions
		 WHERE session_id = ? AND status = ? ORDER BY answered_at ASC`,
		sessionID, StatusAnswered)
	if err != nil {
		return nil, fmt.Errorf("listing answered questions: %w", err)
	}
	defer rows.Close()

	var out []QA
	for rows.Next() {
		var qa QA
		if err := rows.Scan(&qa.Question, &qa.Answer); err != nil {
			return nil, fmt.Errorf("scanning answered question: %w", err)
		}
		out = append(out, qa)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*ClarificationQuestion, error) {
	var q ClarificationQuestion
	var answer sql.NullString
	var answeredAt sql.NullTime
	if err := row.Scan(&q.ID, &q.SessionID, &q.RaisedAt, &q.TriggerContext, &q.Question, &q.Status, &answer, &answeredAt); err != nil {
		return nil, err
	}
	q.Answer = answer.String
	if answeredAt.Valid {
		at := answeredAt.Time
		q.AnsweredAt = &at
	}
	return &q, nil
}
