package session

import (
	"context"
	"testing"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/db"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func closedTask(id, app string, start time.Time, dur time.Duration) *task.Task {
	return &task.Task{
		ID:        id,
		SessionID: "sess-1",
		Status:    task.StatusCompleted,
		StartedAt: start,
		EndedAt:   start.Add(dur),
		Segments: []task.AppSegment{
			{App: app, StartedAt: start, EndedAt: start.Add(dur)},
		},
	}
}

func TestOnTaskBoundaryTracksTasks(t *testing.T) {
	c := New("sess-1", base)

	a := closedTask("t1", "Excel", base, 2*time.Minute)
	b := closedTask("t2", "Excel", base.Add(2*time.Minute), time.Minute)

	c.OnTaskBoundary(task.BoundaryEvent{Type: task.EventTaskStarted, Task: a, At: base})
	c.OnTaskBoundary(task.BoundaryEvent{Type: task.EventTaskStarted, Task: b, At: b.StartedAt})
	if len(c.Tasks()) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(c.Tasks()))
	}

	// Merging b into a drops the discarded id.
	c.OnTaskBoundary(task.BoundaryEvent{Type: task.EventTaskMerged, Task: a, MergedID: "t2", At: b.EndedAt})
	tasks := c.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("expected only t1 after merge, got %d tasks", len(tasks))
	}
}

func TestAppTimeAccumulatorMatchesSegments(t *testing.T) {
	c := New("sess-1", base)

	a := closedTask("t1", "Excel", base, 90*time.Second)
	b := closedTask("t2", "SAP", base.Add(2*time.Minute), 60*time.Second)
	b.Segments = append(b.Segments, task.AppSegment{
		App:       "Excel",
		StartedAt: b.EndedAt,
		EndedAt:   b.EndedAt.Add(30 * time.Second),
	})
	b.EndedAt = b.EndedAt.Add(30 * time.Second)

	c.OnTaskBoundary(task.BoundaryEvent{Type: task.EventTaskStarted, Task: a, At: base})
	c.OnTaskBoundary(task.BoundaryEvent{Type: task.EventTaskStarted, Task: b, At: b.StartedAt})

	// Mirror the segments into the accumulator the way the pipeline does.
	for _, tk := range []*task.Task{a, b} {
		for app, d := range tk.AppTime() {
			c.OnAppTime(app, d)
		}
	}

	recomputed := c.SegmentAppTime()
	accumulated := c.AppTime()
	if len(recomputed) != len(accumulated) {
		t.Fatalf("app sets differ: %v vs %v", accumulated, recomputed)
	}
	for app, want := range recomputed {
		got := accumulated[app]
		if diff := got - want; diff < -time.Millisecond || diff > time.Millisecond {
			t.Errorf("%s: accumulator %v != segments %v", app, got, want)
		}
	}
	if accumulated["Excel"] != 120*time.Second {
		t.Errorf("Excel: got %v", accumulated["Excel"])
	}
}

func TestQuestionsAskedOnlyGrows(t *testing.T) {
	c := New("sess-1", base)

	c.RecordQuestionAsked("What are you doing in SAP?")
	c.RecordQuestionAsked("Is this part of the month-end close?")

	if !c.WasAsked("what are you  doing in sap?") {
		t.Error("normalized lookup should match")
	}
	if c.WasAsked("Something entirely different?") {
		t.Error("unasked question reported as asked")
	}
	if len(c.QuestionsAsked()) != 2 {
		t.Errorf("expected 2 questions, got %d", len(c.QuestionsAsked()))
	}

	// Re-recording the same text does not shrink or duplicate.
	c.RecordQuestionAsked("What are you doing in SAP?")
	if len(c.QuestionsAsked()) != 2 {
		t.Errorf("expected 2 questions after repeat, got %d", len(c.QuestionsAsked()))
	}
}

func TestTaskTheoryOverwrites(t *testing.T) {
	c := New("sess-1", base)
	c.SetTaskTheory("reconciling invoices")
	c.SetTaskTheory("preparing a quarterly report")
	if c.TaskTheory() != "preparing a quarterly report" {
		t.Errorf("theory: got %q", c.TaskTheory())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	store := NewStore(database)
	ctx := context.Background()

	if err := store.Create(ctx, "sess-1", base); err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := New("sess-1", base)
	c.SetTaskTheory("invoice entry")
	c.OnAppTime("Excel", 90*time.Second)
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.End(ctx, "sess-1", base.Add(time.Hour)); err != nil {
		t.Fatalf("End: %v", err)
	}

	rec, err := store.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec == nil {
		t.Fatal("expected session record")
	}
	if rec.TaskTheory != "invoice entry" {
		t.Errorf("task theory: got %q", rec.TaskTheory)
	}
	if rec.EndedAt.IsZero() {
		t.Error("expected ended_at to be set")
	}
}
