// Package pipeline runs the event-driven engine: observations enter in
// strict order, reasoning calls run single-flight per concern, and every
// state change fans out as a discrete event for storage and the UI.
package pipeline

import (
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// EventType identifies an engine event.
type EventType string

const (
	EventObservation    EventType = "observation"
	EventTaskBoundary   EventType = "task_boundary"
	EventTaskRenamed    EventType = "task_renamed"
	EventQuestionRaised EventType = "question_raised"
	EventTheoryUpdated  EventType = "theory_updated"
	EventSummaryCreated EventType = "summary_created"
	EventSessionEnded   EventType = "session_ended"
)

// Event is one discrete engine occurrence. Exactly one payload field is
// set, matching the type.
type Event struct {
	Type      EventType                       `json:"type"`
	At        time.Time                       `json:"at"`
	SessionID string                          `json:"session_id"`
	Boundary  *task.BoundaryEvent             `json:"boundary,omitempty"`
	Task      *task.Task                      `json:"task,omitempty"`
	Question  *question.ClarificationQuestion `json:"question,omitempty"`
	Summary   *summarize.SessionSummary       `json:"summary,omitempty"`
	Theory    string                          `json:"theory,omitempty"`
}
