// Package task segments the observation stream into discrete units of
// work. The Detector is the state machine deciding where one task ends and
// the next begins; Policy holds its tunable heuristics as data.
package task

import "time"

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
)

// AppSegment is a contiguous stretch of time a Task spent in one
// application. Segments are owned exclusively by their Task and never
// overlap within it.
type AppSegment struct {
	App         string    `json:"app"`
	WindowTitle string    `json:"window_title"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Duration returns the segment's length.
func (s AppSegment) Duration() time.Duration {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Task is one detected unit of work.
type Task struct {
	ID              string       `json:"id"`
	SessionID       string       `json:"session_id"`
	Name            string       `json:"name"`
	Status          Status       `json:"status"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         time.Time    `json:"ended_at,omitzero"`
	Segments        []AppSegment `json:"segments"`
	ObservationIDs  []string     `json:"observation_ids,omitempty"`
	UserExplanation string       `json:"user_explanation,omitempty"`
}

// Duration returns the task's total span. For a still-open task it is zero.
func (t *Task) Duration() time.Duration {
	if t.EndedAt.IsZero() || t.EndedAt.Before(t.StartedAt) {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// DominantApp returns the application with the most accumulated segment
// time, breaking ties toward the earlier segment.
func (t *Task) DominantApp() string {
	totals := make(map[string]time.Duration)
	order := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if _, seen := totals[seg.App]; !seen {
			order = append(order, seg.App)
		}
		end := seg.EndedAt
		if end.IsZero() {
			continue
		}
		totals[seg.App] += seg.Duration()
	}
	var best string
	var bestTotal time.Duration = -1
	for _, app := range order {
		if totals[app] > bestTotal {
			best = app
			bestTotal = totals[app]
		}
	}
	return best
}

// AppTime returns per-app accumulated segment durations.
func (t *Task) AppTime() map[string]time.Duration {
	totals := make(map[string]time.Duration)
	for _, seg := range t.Segments {
		if seg.EndedAt.IsZero() {
			continue
		}
		totals[seg.App] += seg.Duration()
	}
	return totals
}

// BoundaryEventType identifies what the detector decided.
type BoundaryEventType string

const (
	EventTaskStarted     BoundaryEventType = "task_started"
	EventTaskEnded       BoundaryEventType = "task_ended"
	EventTaskInterrupted BoundaryEventType = "task_interrupted"
	EventTaskResumed     BoundaryEventType = "task_resumed"
	EventTaskMerged      BoundaryEventType = "task_merged"
)

// BoundaryEvent is emitted by the Detector whenever a task's lifecycle
// changes. For EventTaskMerged, Task is the surviving task and MergedID
// the discarded one.
type BoundaryEvent struct {
	Type     BoundaryEventType `json:"type"`
	Task     *Task             `json:"task"`
	MergedID string            `json:"merged_id,omitempty"`
	At       time.Time         `json:"at"`
}
