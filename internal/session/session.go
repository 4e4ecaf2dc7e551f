// Package session accumulates per-session facts: the task list, per-app
// time, questions already asked, and the current task theory.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// Context is the live per-session state. One instance exists per active
// session; it is created at session start and passed explicitly to every
// component that needs it. Updates within a session are additive or
// overwriting, never deleting.
type Context struct {
	mu sync.RWMutex

	SessionID string
	StartTime time.Time

	tasks             []*task.Task
	appTime           map[string]time.Duration
	questionsAsked    map[string]string // normalized -> original text
	currentTaskTheory string
	lastSummaryUpdate time.Time
}

// New creates the context for a freshly started session.
func New(sessionID string, start time.Time) *Context {
	return &Context{
		SessionID:      sessionID,
		StartTime:      start,
		appTime:        make(map[string]time.Duration),
		questionsAsked: make(map[string]string),
	}
}

// OnTaskBoundary records a boundary event. Started tasks are appended;
// merged tasks drop the discarded id from the list.
func (c *Context) OnTaskBoundary(event task.BoundaryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case task.EventTaskStarted:
		c.tasks = append(c.tasks, event.Task)
	case task.EventTaskMerged:
		kept := c.tasks[:0]
		for _, t := range c.tasks {
			if t.ID != event.MergedID {
				kept = append(kept, t)
			}
		}
		c.tasks = kept
	}
}

// OnAppTime adds observed time for an app.
func (c *Context) OnAppTime(app string, delta time.Duration) {
	if delta <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appTime[app] += delta
}

// RecordQuestionAsked remembers that a question was surfaced. The set only
// grows within a session.
func (c *Context) RecordQuestionAsked(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questionsAsked[normalizeQuestion(text)] = text
}

// WasAsked reports whether a near-identical question was already asked.
func (c *Context) WasAsked(text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.questionsAsked[normalizeQuestion(text)]
	return ok
}

// QuestionsAsked returns the asked-question texts in sorted order.
func (c *Context) QuestionsAsked() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.questionsAsked))
	for _, text := range c.questionsAsked {
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}

// SetTaskTheory overwrites the current working theory of what the user is
// doing.
func (c *Context) SetTaskTheory(theory string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTaskTheory = theory
}

// TaskTheory returns the current task theory.
func (c *Context) TaskTheory() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTaskTheory
}

// Tasks returns a snapshot of the session's task list.
func (c *Context) Tasks() []*task.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*task.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// AppTime returns a copy of the per-app time accumulator.
func (c *Context) AppTime() map[string]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]time.Duration, len(c.appTime))
	for app, d := range c.appTime {
		out[app] = d
	}
	return out
}

// MarkSummarized records when the session was last summarized.
func (c *Context) MarkSummarized(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSummaryUpdate = at
}

// LastSummaryUpdate returns the time of the last summary, zero if none.
func (c *Context) LastSummaryUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSummaryUpdate
}

// SegmentAppTime recomputes per-app time from the task list's segments.
// The accumulator must equal this at any inspection point; tests rely on
// the equality.
func (c *Context) SegmentAppTime() map[string]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	totals := make(map[string]time.Duration)
	for _, t := range c.tasks {
		for app, d := range t.AppTime() {
			totals[app] += d
		}
	}
	return totals
}

func normalizeQuestion(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
