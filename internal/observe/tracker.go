package observe

import "fmt"

// Tracker maintains the ImmediateContext for one session. It is a pure
// state transform: Update never fails and has no side effects beyond the
// tracker's own state.
type Tracker struct {
	capacity int
	ctx      ImmediateContext
}

// NewTracker creates a tracker with the given buffer capacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = 6
	}
	return &Tracker{capacity: capacity}
}

// Update appends the observation to the FIFO buffer, evicting the oldest
// entry beyond capacity, and recomputes the change description against the
// previous head. It returns a snapshot of the updated context.
func (t *Tracker) Update(obs *Observation) ImmediateContext {
	prev := t.ctx.Head()

	t.ctx.Buffer = append(t.ctx.Buffer, obs)
	if len(t.ctx.Buffer) > t.capacity {
		t.ctx.Buffer = t.ctx.Buffer[len(t.ctx.Buffer)-t.capacity:]
	}

	if prev != nil && (prev.ActiveApp != obs.ActiveApp || prev.WindowTitle != obs.WindowTitle) {
		if prev.ActiveApp != obs.ActiveApp {
			t.ctx.LastChangeDescription = fmt.Sprintf("switched from %s to %s", prev.ActiveApp, obs.ActiveApp)
			t.ctx.LastAppSwitchTime = obs.Timestamp
		} else {
			t.ctx.LastChangeDescription = fmt.Sprintf("changed window in %s to %q", obs.ActiveApp, obs.WindowTitle)
		}
	}

	t.ctx.CurrentApp = obs.ActiveApp
	t.ctx.CurrentWindowTitle = obs.WindowTitle

	return t.snapshot()
}

// Context returns a snapshot of the current immediate context.
func (t *Tracker) Context() ImmediateContext {
	return t.snapshot()
}

func (t *Tracker) snapshot() ImmediateContext {
	snap := t.ctx
	snap.Buffer = make([]*Observation, len(t.ctx.Buffer))
	copy(snap.Buffer, t.ctx.Buffer)
	return snap
}
