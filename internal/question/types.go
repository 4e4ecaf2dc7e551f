// Package question turns confusion signals from the reasoning collaborator
// into rate-limited, deduplicated clarifying questions.
package question

import (
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/reason"
)

// Status is the lifecycle state of a clarification question. answered and
// dismissed are terminal; deferred may resurface.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnswered  Status = "answered"
	StatusDismissed Status = "dismissed"
	StatusDeferred  Status = "deferred"
)

// Signal is one confusion claim from the reasoning collaborator. It lives
// for a single evaluation cycle; only the ClarificationQuestion derived
// from an accepted signal is persisted.
type Signal struct {
	Type              reason.ConfusionType `json:"type"`
	Confidence        float64              `json:"confidence"`
	TriggerContext    string               `json:"trigger_context"`
	SuggestedQuestion string               `json:"suggested_question"`
}

// ClarificationQuestion is a throttled, persisted surfacing of a signal.
// The UI collaborator is the sole driver of answer/dismiss/defer.
type ClarificationQuestion struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	RaisedAt       time.Time  `json:"raised_at"`
	TriggerContext string     `json:"trigger_context,omitempty"`
	Question       string     `json:"question"`
	Status         Status     `json:"status"`
	Answer         string     `json:"answer,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
}
