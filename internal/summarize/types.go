// Package summarize periodically compresses the live session into short
// summaries that become historical context for future sessions.
package summarize

import "time"

// SessionSummary is one append-only compression of a session.
type SessionSummary struct {
	ID                string        `json:"id"`
	SessionID         string        `json:"session_id"`
	Date              string        `json:"date"`
	Duration          time.Duration `json:"duration"`
	TasksCompleted    int           `json:"tasks_completed"`
	AppsUsed          []string      `json:"apps_used"`
	QuestionsAnswered int           `json:"questions_answered"`
	NewObservations   []string      `json:"new_observations,omitempty"`
	Brief             string        `json:"brief"`
	CreatedAt         time.Time     `json:"created_at"`
}
