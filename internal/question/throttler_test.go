package question

import (
	"fmt"
	"testing"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/reason"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
)

func testSignal(text string) *Signal {
	return &Signal{
		Type:              reason.ConfusionUnclearPurpose,
		Confidence:        0.9,
		TriggerContext:    "test",
		SuggestedQuestion: text,
	}
}

func TestThrottlerHourlyCap(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, 300*time.Second)
	sess := session.New("sess-1", base)

	// Five distinct questions spaced out over the hour are all allowed.
	for i := 0; i < 5; i++ {
		now := base.Add(time.Duration(i) * 10 * time.Minute)
		sig := testSignal(fmt.Sprintf("What is step %d of this process for?", i))
		if !th.ShouldAsk(sig, sess, now) {
			t.Fatalf("question %d should be allowed", i)
		}
		th.Accept(sig, sess, now)
	}

	// A sixth qualifying signal inside the same rolling hour is rejected.
	sixth := testSignal("Why did you open the vendor portal?")
	if th.ShouldAsk(sixth, sess, base.Add(50*time.Minute)) {
		t.Error("sixth question within the rolling hour should be rejected")
	}

	// Once the earliest raise falls out of the window it is allowed again.
	if !th.ShouldAsk(sixth, sess, base.Add(61*time.Minute)) {
		t.Error("question should be allowed after the oldest raise ages out")
	}
}

func TestThrottlerMinSpacing(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, 300*time.Second)
	sess := session.New("sess-1", base)

	first := testSignal("What does this macro do?")
	th.Accept(first, sess, base)

	second := testSignal("Which account are these entries for?")
	if th.ShouldAsk(second, sess, base.Add(120*time.Second)) {
		t.Error("question 120s after the last raise should be rejected")
	}
	if !th.ShouldAsk(second, sess, base.Add(301*time.Second)) {
		t.Error("question past the minimum spacing should be allowed")
	}
}

func TestThrottlerRejectsExactDuplicate(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, time.Second)
	sess := session.New("sess-1", base)

	sig := testSignal("What are you reconciling in Excel?")
	th.Accept(sig, sess, base)

	// Same text modulo case and whitespace.
	dup := testSignal("  what are you   reconciling in excel?")
	if th.ShouldAsk(dup, sess, base.Add(10*time.Minute)) {
		t.Error("normalized duplicate should be rejected")
	}
}

func TestThrottlerRejectsNearDuplicate(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, time.Second)
	sess := session.New("sess-1", base)

	th.Accept(testSignal("What are you reconciling in the Excel sheet?"), sess, base)

	near := testSignal("What are you reconciling in the Excel sheet today?")
	if th.ShouldAsk(near, sess, base.Add(10*time.Minute)) {
		t.Error("near-duplicate with high token overlap should be rejected")
	}

	different := testSignal("Why does the SAP export fail with an error?")
	if !th.ShouldAsk(different, sess, base.Add(10*time.Minute)) {
		t.Error("an unrelated question should pass the duplicate check")
	}
}

func TestThrottlerDuplicateSurvivesDismissal(t *testing.T) {
	// The asked-set is session scoped; dismissing a question does not make
	// the same question askable again.
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, time.Second)
	sess := session.New("sess-1", base)

	sig := testSignal("What is this terminal window for?")
	q := th.Accept(sig, sess, base)
	if q.Status != StatusPending {
		t.Fatalf("accepted question status = %q, want pending", q.Status)
	}

	// Nothing in the throttler or session reacts to a dismissal, so the
	// duplicate is still blocked.
	if th.ShouldAsk(sig, sess, base.Add(20*time.Minute)) {
		t.Error("question remains blocked for the rest of the session")
	}
}

func TestAcceptFieldsAndRaiseTime(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	th := NewThrottler(5, time.Second)
	sess := session.New("sess-9", base)

	sig := testSignal("Which supplier does this invoice belong to?")
	q := th.Accept(sig, sess, base)

	if q.ID == "" {
		t.Error("accepted question should have an id")
	}
	if q.SessionID != "sess-9" {
		t.Errorf("session id = %q", q.SessionID)
	}
	if !q.RaisedAt.Equal(base) {
		t.Errorf("raised at = %v, want %v", q.RaisedAt, base)
	}
	if q.Question != sig.SuggestedQuestion {
		t.Errorf("question text = %q", q.Question)
	}
	if !sess.WasAsked(sig.SuggestedQuestion) {
		t.Error("session should remember the raised question")
	}
}
