package question

import (
	"context"
	"testing"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(`INSERT INTO sessions (id, started_at) VALUES ('sess-1', ?)`, time.Now().UTC())
	if err != nil {
		t.Fatalf("inserting session: %v", err)
	}
	return NewStore(database)
}

func sampleQuestion(id string, raisedAt time.Time) *ClarificationQuestion {
	return &ClarificationQuestion{
		ID:             id,
		SessionID:      "sess-1",
		RaisedAt:       raisedAt,
		TriggerContext: "unfamiliar SAP transaction screen",
		Question:       "What are you doing in SAP right now?",
		Status:         StatusPending,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	raisedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	if err := store.Create(ctx, sampleQuestion("q-1", raisedAt)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByID(ctx, "q-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected question, got nil")
	}
	if got.Question != "What are you doing in SAP right now?" {
		t.Errorf("question = %q", got.Question)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if !got.RaisedAt.Equal(raisedAt) {
		t.Errorf("raised at = %v, want %v", got.RaisedAt, raisedAt)
	}
	if got.AnsweredAt != nil {
		t.Error("fresh question should have no answered_at")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := setupTestStore(t)
	got, err := store.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing question, got %+v", got)
	}
}

func TestAnswerTransition(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	raisedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	answeredAt := raisedAt.Add(5 * time.Minute)

	if err := store.Create(ctx, sampleQuestion("q-1", raisedAt)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Answer(ctx, "q-1", "Booking the Acme invoices", answeredAt); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	got, err := store.GetByID(ctx, "q-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusAnswered {
		t.Errorf("status = %q, want answered", got.Status)
	}
	if got.Answer != "Booking the Acme invoices" {
		t.Errorf("answer = %q", got.Answer)
	}
	if got.AnsweredAt == nil || !got.AnsweredAt.Equal(answeredAt) {
		t.Errorf("answered at = %v, want %v", got.AnsweredAt, answeredAt)
	}
}

func TestDismissAndDefer(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	raisedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	if err := store.Create(ctx, sampleQuestion("q-1", raisedAt)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Dismiss(ctx, "q-1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	got, _ := store.GetByID(ctx, "q-1")
	if got.Status != StatusDismissed {
		t.Errorf("status = %q, want dismissed", got.Status)
	}

	if err := store.Create(ctx, sampleQuestion("q-2", raisedAt.Add(time.Minute))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Defer(ctx, "q-2"); err != nil {
		t.Fatalf("Defer: %v", err)
	}
	got, _ = store.GetByID(ctx, "q-2")
	if got.Status != StatusDeferred {
		t.Errorf("status = %q, want deferred", got.Status)
	}
}

func TestTransitionMissingErrors(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Dismiss(context.Background(), "nope"); err == nil {
		t.Error("expected error for transitioning a missing question")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"q-1", "q-2", "q-3"} {
		q := sampleQuestion(id, base.Add(time.Duration(i)*10*time.Minute))
		q.Question = q.Question + " " + id
		if err := store.Create(ctx, q); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if err := store.Answer(ctx, "q-2", "reconciling", base.Add(time.Hour)); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	all, err := store.List(ctx, "sess-1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].ID != "q-3" || all[2].ID != "q-1" {
		t.Errorf("expected newest-first order, got %s..%s", all[0].ID, all[2].ID)
	}

	pending, err := store.List(ctx, "sess-1", StatusPending)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("len(pending) = %d, want 2", len(pending))
	}

	n, err := store.CountAnswered(ctx, "sess-1")
	if err != nil {
		t.Fatalf("CountAnswered: %v", err)
	}
	if n != 1 {
		t.Errorf("answered count = %d, want 1", n)
	}
}

func TestAnsweredPairs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	q1 := sampleQuestion("q-1", base)
	q1.Question = "What is the terminal for?"
	q2 := sampleQuestion("q-2", base.Add(time.Minute))
	q2.Question = "Which client is this report for?"
	for _, q := range []*ClarificationQuestion{q1, q2} {
		if err := store.Create(ctx, q); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Answer(ctx, "q-2", "Acme Corp", base.Add(2*time.Minute)); err != nil {
		t.Fatalf("Answer q-2: %v", err)
	}
	if err := store.Answer(ctx, "q-1", "Deploying the invoice sync", base.Add(3*time.Minute)); err != nil {
		t.Fatalf("Answer q-1: %v", err)
	}

	pairs, err := store.AnsweredPairs(ctx, "sess-1")
	if err != nil {
		t.Fatalf("AnsweredPairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(pairs))
	}
	if pairs[0].Question != "Which client is this report for?" {
		t.Errorf("pairs should be ordered by answer time, got %q first", pairs[0].Question)
	}
	if pairs[1].Answer != "Deploying the invoice sync" {
		t.Errorf("answer = %q", pairs[1].Answer)
	}
}
