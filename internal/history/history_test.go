package history

import (
	"context"
	"testing"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestFactStoreSetGetUpsert(t *testing.T) {
	database := setupTestDB(t)
	facts := NewFactStore(database)
	ctx := context.Background()

	if err := facts.Set(ctx, FactInterviewSummary, "Accountant handling AP reconciliation"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := facts.Get(ctx, FactInterviewSummary)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Accountant handling AP reconciliation" {
		t.Errorf("value = %q", got)
	}

	if err := facts.Set(ctx, FactInterviewSummary, "Accountant, AP and month-end close"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	got, _ = facts.Get(ctx, FactInterviewSummary)
	if got != "Accountant, AP and month-end close" {
		t.Errorf("upsert did not replace, got %q", got)
	}
}

func TestFactStoreGetMissing(t *testing.T) {
	facts := NewFactStore(setupTestDB(t))
	got, err := facts.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty value for missing key, got %q", got)
	}
}

func TestKnownTasks(t *testing.T) {
	facts := NewFactStore(setupTestDB(t))
	ctx := context.Background()

	for _, label := range []string{"invoice reconciliation", "weekly report", "invoice reconciliation"} {
		if err := facts.AddKnownTask(ctx, label); err != nil {
			t.Fatalf("AddKnownTask: %v", err)
		}
	}

	tasks, err := facts.KnownTasks(ctx)
	if err != nil {
		t.Fatalf("KnownTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2 (re-adding must not duplicate)", len(tasks))
	}
}

func seedSession(t *testing.T, database *db.DB, id string, start time.Time) {
	t.Helper()
	_, err := database.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?)`, id, start.UTC())
	if err != nil {
		t.Fatalf("inserting session %s: %v", id, err)
	}
}

func TestLoaderAssemblesAllTiers(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	facts := NewFactStore(database)
	facts.Set(ctx, FactInterviewSummary, "Accountant handling AP reconciliation")
	facts.Set(ctx, FactRole, "Accounts payable specialist")
	facts.AddKnownTask(ctx, "invoice reconciliation")

	summaries := summarize.NewStore(database)
	questions := question.NewStore(database)

	seedSession(t, database, "sess-old", base)
	if _, err := summaries.Create(ctx, summarize.SessionSummary{
		SessionID:      "sess-old",
		Date:           "2026-03-09",
		Duration:       2 * time.Hour,
		TasksCompleted: 3,
		AppsUsed:       []string{"Excel", "SAP"},
		Brief:          "Reconciled supplier invoices in Excel and posted them to SAP",
		CreatedAt:      base.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("creating summary: %v", err)
	}
	if err := questions.Create(ctx, &question.ClarificationQuestion{
		ID: "q-1", SessionID: "sess-old", RaisedAt: base.Add(time.Hour),
		Question: "Which supplier are these invoices from?", Status: question.StatusPending,
	}); err != nil {
		t.Fatalf("creating question: %v", err)
	}
	if err := questions.Answer(ctx, "q-1", "Acme Corp", base.Add(time.Hour+time.Minute)); err != nil {
		t.Fatalf("answering question: %v", err)
	}

	loader := NewLoader(facts, summaries, questions)
	hist, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if hist.InterviewSummary != "Accountant handling AP reconciliation" {
		t.Errorf("interview summary = %q", hist.InterviewSummary)
	}
	if hist.Role != "Accounts payable specialist" {
		t.Errorf("role = %q", hist.Role)
	}
	if len(hist.KnownTasks) != 1 || hist.KnownTasks[0] != "invoice reconciliation" {
		t.Errorf("known tasks = %v", hist.KnownTasks)
	}
	if len(hist.PreviousSessionSummaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(hist.PreviousSessionSummaries))
	}
	if len(hist.RelevantQA) != 1 || hist.RelevantQA[0].Answer != "Acme Corp" {
		t.Errorf("relevant QA = %v", hist.RelevantQA)
	}
}

func TestLoaderEmptyStores(t *testing.T) {
	database := setupTestDB(t)
	loader := NewLoader(NewFactStore(database), summarize.NewStore(database), question.NewStore(database))

	hist, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hist.InterviewSummary != "" || len(hist.PreviousSessionSummaries) != 0 || len(hist.RelevantQA) != 0 {
		t.Errorf("expected empty tiers, got %+v", hist)
	}
}

func TestRelevantHistoryPrefersOverlap(t *testing.T) {
	hist := &HistoricalContext{
		PreviousSessionSummaries: []summarize.SessionSummary{
			{SessionID: "s-new", Brief: "Drafted slides for the quarterly review", AppsUsed: []string{"PowerPoint"}},
			{SessionID: "s-mid", Brief: "Answered emails and scheduled meetings", AppsUsed: []string{"Outlook"}},
			{SessionID: "s-old", Brief: "Reconciled supplier invoices in Excel against SAP exports", AppsUsed: []string{"Excel", "SAP"}},
		},
	}

	got := RelevantHistory(hist, "reconciling supplier invoices", "Excel", 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].SessionID != "s-old" {
		t.Errorf("top result = %s, want the invoice session despite being oldest", got[0].SessionID)
	}
}

func TestRelevantHistoryFallsBackToRecency(t *testing.T) {
	hist := &HistoricalContext{
		PreviousSessionSummaries: []summarize.SessionSummary{
			{SessionID: "s-new", Brief: "alpha"},
			{SessionID: "s-old", Brief: "beta"},
		},
	}

	got := RelevantHistory(hist, "", "", 1)
	if len(got) != 1 || got[0].SessionID != "s-new" {
		t.Errorf("with no overlap signal the newest summary wins, got %v", got)
	}
}

func TestRelevantHistoryDeterministic(t *testing.T) {
	hist := &HistoricalContext{
		PreviousSessionSummaries: []summarize.SessionSummary{
			{SessionID: "a", Brief: "invoice work in Excel"},
			{SessionID: "b", Brief: "invoice work in Excel"},
			{SessionID: "c", Brief: "invoice work in Excel"},
		},
	}

	first := RelevantHistory(hist, "invoice", "Excel", 3)
	for i := 0; i < 5; i++ {
		again := RelevantHistory(hist, "invoice", "Excel", 3)
		for j := range first {
			if first[j].SessionID != again[j].SessionID {
				t.Fatalf("run %d: order changed at %d", i, j)
			}
		}
	}
}

func TestRelevantHistoryNilAndBounds(t *testing.T) {
	if got := RelevantHistory(nil, "x", "y", 3); got != nil {
		t.Errorf("nil history should yield nil, got %v", got)
	}
	hist := &HistoricalContext{PreviousSessionSummaries: []summarize.SessionSummary{{SessionID: "a"}}}
	if got := RelevantHistory(hist, "", "", 0); got != nil {
		t.Errorf("zero maxItems should yield nil, got %v", got)
	}
	if got := RelevantHistory(hist, "", "", 10); len(got) != 1 {
		t.Errorf("maxItems beyond length should clamp, got %d", len(got))
	}
}
