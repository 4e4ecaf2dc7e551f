package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/mabouzeid04/workflow-daddy/internal/observe"
)

type state int

const (
	stateNoTask state = iota
	stateActive
	stateInterrupted
)

// Detector is the task boundary state machine. It consumes the observation
// stream plus external signals (context-change results, answered
// clarifications) and emits BoundaryEvents.
//
// The single `current` slot makes two simultaneously active tasks
// impossible by construction. The detector is not safe for concurrent use;
// the pipeline drives it from one goroutine.
type Detector struct {
	policy    *Policy
	sessionID string

	state      state
	current    *Task
	lastClosed *Task

	lastObsTime    time.Time
	lastSwitchTime time.Time

	// Dip tracking for same-task exceptions: set when the user switches
	// into an exempt app, cleared on the next switch or dwell expiry.
	inDip        bool
	dipReturnApp string
	dipDeadline  time.Time
}

// NewDetector creates a detector for one session.
func NewDetector(policy *Policy, sessionID string) *Detector {
	return &Detector{policy: policy, sessionID: sessionID}
}

// Current returns the task currently in the active or interrupted slot,
// or nil.
func (d *Detector) Current() *Task {
	return d.current
}

// Observe advances the state machine with one observation and returns the
// boundary events it produced, in order.
func (d *Detector) Observe(obs *observe.Observation) []BoundaryEvent {
	defer func() { d.lastObsTime = obs.Timestamp }()

	switch d.state {
	case stateNoTask:
		return []BoundaryEvent{d.startTask(obs, "")}
	case stateInterrupted:
		return d.observeInterrupted(obs)
	default:
		return d.observeActive(obs)
	}
}

func (d *Detector) observeActive(obs *observe.Observation) []BoundaryEvent {
	gap := obs.Timestamp.Sub(d.lastObsTime)
	if gap > d.policy.IdleThreshold {
		return d.handleIdleGap(obs, gap)
	}

	seg := &d.current.Segments[len(d.current.Segments)-1]
	if obs.ActiveApp == seg.App {
		seg.EndedAt = obs.Timestamp
		if obs.WindowTitle != "" {
			seg.WindowTitle = obs.WindowTitle
		}
		d.current.ObservationIDs = append(d.current.ObservationIDs, obs.ID)

		// A dip that turned into a dwell closes the task after all.
		if d.inDip && !d.dipDeadline.IsZero() && obs.Timestamp.After(d.dipDeadline) {
			d.clearDip()
			return d.boundary(obs, "")
		}
		return nil
	}

	return d.handleAppSwitch(obs, seg.App)
}

func (d *Detector) handleAppSwitch(obs *observe.Observation, prevApp string) []BoundaryEvent {
	returning := d.inDip && obs.ActiveApp == d.dipReturnApp
	d.clearDip()

	if returning {
		d.openSegment(obs)
		d.current.ObservationIDs = append(d.current.ObservationIDs, obs.ID)
		return nil
	}

	if d.policy.IsNewTaskApp(obs.ActiveApp) {
		return d.boundary(obs, "")
	}

	if exempt, dwell := d.policy.SameTaskException(prevApp, obs.ActiveApp); exempt {
		d.inDip = true
		d.dipReturnApp = prevApp
		if dwell > 0 {
			d.dipDeadline = obs.Timestamp.Add(dwell)
		}
		d.openSegment(obs)
		d.current.ObservationIDs = append(d.current.ObservationIDs, obs.ID)
		return nil
	}

	sinceSwitch := obs.Timestamp.Sub(d.lastSwitchTime)
	if obs.ActiveApp != d.current.DominantApp() && sinceSwitch > d.policy.Debounce {
		return d.boundary(obs, "")
	}

	// Quick switch inside the debounce window stays in the task.
	d.openSegment(obs)
	d.current.ObservationIDs = append(d.current.ObservationIDs, obs.ID)
	return nil
}

// handleIdleGap interrupts the task as of the last observation. A gap that
// spans a configured boundary time completes it instead. The observation
// that revealed the gap is then resolved as a resume or a fresh task.
func (d *Detector) handleIdleGap(obs *observe.Observation, gap time.Duration) []BoundaryEvent {
	d.clearDip()
	d.closeSegmentAt(d.lastObsTime)

	if d.policy.CrossesBoundaryTime(d.lastObsTime, obs.Timestamp) {
		closed, events := d.closeCurrent(StatusCompleted, d.lastObsTime)
		d.retireClosed(closed)
		events = append(events, d.startTask(obs, ""))
		return events
	}

	d.current.Status = StatusInterrupted
	d.current.EndedAt = d.lastObsTime
	d.state = stateInterrupted
	events := []BoundaryEvent{{Type: EventTaskInterrupted, Task: d.current, At: d.lastObsTime}}

	return append(events, d.observeInterrupted(obs)...)
}

// observeInterrupted decides whether the next observation resumes the
// interrupted task or abandons it. Resuming requires the same dominant app
// and arrival within the merge-gap window past the idle threshold.
func (d *Detector) observeInterrupted(obs *observe.Observation) []BoundaryEvent {
	gap := obs.Timestamp.Sub(d.current.EndedAt)
	if obs.ActiveApp == d.current.DominantApp() && gap <= d.policy.IdleThreshold+d.policy.MergeGap {
		d.current.Status = StatusActive
		d.current.EndedAt = time.Time{}
		// The pre-gap segment keeps its interrupt-time end; idle time
		// belongs to no segment.
		d.appendSegment(obs)
		d.current.ObservationIDs = append(d.current.ObservationIDs, obs.ID)
		d.state = stateActive
		return []BoundaryEvent{{Type: EventTaskResumed, Task: d.current, At: obs.Timestamp}}
	}

	d.retireClosed(d.current)
	return []BoundaryEvent{d.startTask(obs, "")}
}

// OnContextChange applies an external context-change evaluation. It is
// deliberately conservative: only a confident sameTask:false, against a
// task old enough to matter, forces a boundary.
func (d *Detector) OnContextChange(sameTask bool, confidence, threshold float64, at time.Time) []BoundaryEvent {
	if sameTask || confidence < threshold {
		return nil
	}
	if d.state != stateActive || d.current == nil {
		return nil
	}
	if at.Sub(d.current.StartedAt) < d.policy.MinTaskDuration {
		return nil
	}

	// A verdict can land after newer observations extended the segment;
	// the boundary never predates observed time.
	last := d.current.Segments[len(d.current.Segments)-1]
	if last.EndedAt.After(at) {
		at = last.EndedAt
	}
	return d.boundary(&observe.Observation{
		Timestamp:   at,
		ActiveApp:   last.App,
		WindowTitle: last.WindowTitle,
	}, "")
}

// OnUserIndication forces a boundary because an answered clarification said
// a new task started. The explanation is attached to the new task.
func (d *Detector) OnUserIndication(explanation string, at time.Time) []BoundaryEvent {
	if d.state != stateActive || d.current == nil {
		return nil
	}
	last := d.current.Segments[len(d.current.Segments)-1]
	if last.EndedAt.After(at) {
		at = last.EndedAt
	}
	return d.boundary(&observe.Observation{
		Timestamp:   at,
		ActiveApp:   last.App,
		WindowTitle: last.WindowTitle,
	}, explanation)
}

// Close ends the session: an active task completes as of the last
// observation, an interrupted one stays interrupted.
func (d *Detector) Close() []BoundaryEvent {
	if d.current == nil || d.state == stateNoTask {
		return nil
	}
	if d.state == stateInterrupted {
		d.retireClosed(d.current)
		d.current = nil
		d.state = stateNoTask
		return nil
	}
	d.closeSegmentAt(d.lastObsTime)
	closed, events := d.closeCurrent(StatusCompleted, d.lastObsTime)
	d.retireClosed(closed)
	d.state = stateNoTask
	return events
}

// boundary closes the current task at the observation's timestamp, applies
// the minimum-duration backward merge, and opens the next task.
func (d *Detector) boundary(obs *observe.Observation, explanation string) []BoundaryEvent {
	d.closeSegmentAt(obs.Timestamp)
	closed, events := d.closeCurrent(StatusCompleted, obs.Timestamp)

	if closed.Duration() < d.policy.MinTaskDuration && d.lastClosed != nil && d.shouldMergeTasks(d.lastClosed, closed) {
		merged := MergeTasks(d.lastClosed, closed)
		*d.lastClosed = *merged
		events = append(events, BoundaryEvent{
			Type:     EventTaskMerged,
			Task:     d.lastClosed,
			MergedID: closed.ID,
			At:       obs.Timestamp,
		})
	} else {
		d.retireClosed(closed)
	}

	events = append(events, d.startTask(obs, explanation))
	return events
}

// shouldMergeTasks reports whether b, closed immediately after a, belongs
// to the same unit of work: a small gap, the same dominant app, and no
// idle interruption between them.
func (d *Detector) shouldMergeTasks(a, b *Task) bool {
	if a.Status == StatusInterrupted || b.Status == StatusInterrupted {
		return false
	}
	if a.EndedAt.IsZero() || b.StartedAt.Before(a.EndedAt) {
		return false
	}
	if b.StartedAt.Sub(a.EndedAt) > d.policy.MergeGap {
		return false
	}
	return a.DominantApp() == b.DominantApp()
}

// MergeTasks folds b into a, keeping a's identity. The later task's id is
// discarded by the caller, never persisted as orphaned.
func MergeTasks(a, b *Task) *Task {
	merged := *a
	merged.Segments = append(append([]AppSegment{}, a.Segments...), b.Segments...)
	merged.EndedAt = b.EndedAt
	merged.ObservationIDs = append(append([]string{}, a.ObservationIDs...), b.ObservationIDs...)
	if merged.UserExplanation == "" {
		merged.UserExplanation = b.UserExplanation
	}
	return &merged
}

func (d *Detector) startTask(obs *observe.Observation, explanation string) BoundaryEvent {
	t := &Task{
		ID:              uuid.New().String(),
		SessionID:       d.sessionID,
		Status:          StatusActive,
		StartedAt:       obs.Timestamp,
		UserExplanation: explanation,
		Segments: []AppSegment{{
			App:         obs.ActiveApp,
			WindowTitle: obs.WindowTitle,
			StartedAt:   obs.Timestamp,
			EndedAt:     obs.Timestamp,
		}},
	}
	if obs.ID != "" {
		t.ObservationIDs = append(t.ObservationIDs, obs.ID)
	}
	d.current = t
	d.state = stateActive
	d.lastSwitchTime = obs.Timestamp
	d.clearDip()
	return BoundaryEvent{Type: EventTaskStarted, Task: t, At: obs.Timestamp}
}

func (d *Detector) closeCurrent(status Status, at time.Time) (*Task, []BoundaryEvent) {
	closed := d.current
	closed.Status = status
	closed.EndedAt = at
	d.current = nil
	d.state = stateNoTask
	return closed, []BoundaryEvent{{Type: EventTaskEnded, Task: closed, At: at}}
}

func (d *Detector) retireClosed(t *Task) {
	d.lastClosed = t
}

func (d *Detector) openSegment(obs *observe.Observation) {
	d.closeSegmentAt(obs.Timestamp)
	d.appendSegment(obs)
}

func (d *Detector) appendSegment(obs *observe.Observation) {
	d.current.Segments = append(d.current.Segments, AppSegment{
		App:         obs.ActiveApp,
		WindowTitle: obs.WindowTitle,
		StartedAt:   obs.Timestamp,
		EndedAt:     obs.Timestamp,
	})
	d.lastSwitchTime = obs.Timestamp
}

func (d *Detector) closeSegmentAt(at time.Time) {
	if d.current == nil || len(d.current.Segments) == 0 {
		return
	}
	seg := &d.current.Segments[len(d.current.Segments)-1]
	if at.After(seg.EndedAt) {
		seg.EndedAt = at
	}
}

func (d *Detector) clearDip() {
	d.inDip = false
	d.dipReturnApp = ""
	d.dipDeadline = time.Time{}
}
