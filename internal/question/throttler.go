package question

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mabouzeid04/workflow-daddy/internal/session"
)

// duplicateOverlap is the token-overlap ratio above which two questions
// count as near-duplicates.
const duplicateOverlap = 0.8

// Throttler gates confusion signals so the user is interrupted at a
// bounded, predictable rate. It tracks raise times in memory for the
// rolling-hour window; deferred questions count from their first raise,
// not from any later re-surfacing.
type Throttler struct {
	maxPerHour  int
	minSpacing  time.Duration
	raiseTimes  []time.Time
	lastRaiseAt time.Time
}

// NewThrottler creates a throttler with the configured hourly cap and
// minimum spacing between raised questions.
func NewThrottler(maxPerHour int, minSpacing time.Duration) *Throttler {
	return &Throttler{maxPerHour: maxPerHour, minSpacing: minSpacing}
}

// ShouldAsk reports whether a signal is allowed through right now. It
// never mutates state; callers that surface the question must follow up
// with Accept.
func (t *Throttler) ShouldAsk(sig *Signal, sess *session.Context, now time.Time) bool {
	if sig == nil {
		return false
	}
	if t.countInWindow(now) >= t.maxPerHour {
		return false
	}
	if !t.lastRaiseAt.IsZero() && now.Sub(t.lastRaiseAt) < t.minSpacing {
		return false
	}
	if sess.WasAsked(sig.SuggestedQuestion) {
		return false
	}
	for _, prior := range sess.QuestionsAsked() {
		if tokenOverlap(prior, sig.SuggestedQuestion) >= duplicateOverlap {
			return false
		}
	}
	return true
}

// Accept records the raise and materializes the clarification question in
// pending state. The session's asked set grows so near-duplicates are
// rejected for the rest of the session even if this question is later
// dismissed.
func (t *Throttler) Accept(sig *Signal, sess *session.Context, now time.Time) *ClarificationQuestion {
	t.raiseTimes = append(t.raiseTimes, now)
	t.lastRaiseAt = now
	sess.RecordQuestionAsked(sig.SuggestedQuestion)

	return &ClarificationQuestion{
		ID:             uuid.New().String(),
		SessionID:      sess.SessionID,
		RaisedAt:       now,
		TriggerContext: sig.TriggerContext,
		Question:       sig.SuggestedQuestion,
		Status:         StatusPending,
	}
}

func (t *Throttler) countInWindow(now time.Time) int {
	cutoff := now.Add(-time.Hour)
	kept := t.raiseTimes[:0]
	for _, at := range t.raiseTimes {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.raiseTimes = kept
	return len(kept)
}

// tokenOverlap computes the Jaccard overlap of the lowercased word sets
// of two questions.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if setB[w] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		out[strings.Trim(w, ".,!?\"'")] = true
	}
	return out
}
