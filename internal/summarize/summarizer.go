package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/reason"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// DefaultInterval is the summarization cadence.
const DefaultInterval = 5 * time.Minute

// Summarizer folds session state into SessionSummary records.
type Summarizer struct {
	reasoner *reason.Reasoner
	store    *Store
	interval time.Duration
}

// New creates a Summarizer. A non-positive interval uses the default.
func New(reasoner *reason.Reasoner, store *Store, interval time.Duration) *Summarizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Summarizer{reasoner: reasoner, store: store, interval: interval}
}

// ShouldSummarize reports whether a summary is due: the cadence elapsed or
// a task boundary just closed a task.
func (s *Summarizer) ShouldSummarize(sess *session.Context, taskJustClosed bool, now time.Time) bool {
	if taskJustClosed {
		return true
	}
	last := sess.LastSummaryUpdate()
	if last.IsZero() {
		last = sess.StartTime
	}
	return now.Sub(last) >= s.interval
}

// Summarize compresses the session into a summary record and persists it.
// Failure is non-fatal to the session: nothing is marked summarized, so
// the next trigger retries with the accumulated state.
func (s *Summarizer) Summarize(ctx context.Context, sess *session.Context, questionsAnswered int, now time.Time) (*SessionSummary, error) {
	tasks := sess.Tasks()
	appTime := sess.AppTime()

	brief, err := s.reasoner.SummarizeSession(ctx, buildFacts(sess, tasks, appTime, questionsAnswered, now))
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, t := range tasks {
		if t.Status == task.StatusCompleted {
			completed++
		}
	}

	apps := make([]string, 0, len(appTime))
	for app := range appTime {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	sum := SessionSummary{
		SessionID:         sess.SessionID,
		Date:              now.Format("2006-01-02"),
		Duration:          now.Sub(sess.StartTime),
		TasksCompleted:    completed,
		AppsUsed:          apps,
		QuestionsAnswered: questionsAnswered,
		Brief:             brief,
		CreatedAt:         now.UTC(),
	}

	created, err := s.store.Create(ctx, sum)
	if err != nil {
		return nil, fmt.Errorf("persisting summary: %w", err)
	}

	sess.MarkSummarized(now)
	return created, nil
}

func buildFacts(sess *session.Context, tasks []*task.Task, appTime map[string]time.Duration, questionsAnswered int, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Session\nStarted %s, running %s.\n",
		sess.StartTime.Format("15:04"), now.Sub(sess.StartTime).Round(time.Minute))

	b.WriteString("\n## Tasks\n")
	if len(tasks) == 0 {
		b.WriteString("(none detected yet)\n")
	}
	for _, t := range tasks {
		name := t.Name
		if name == "" {
			name = "unnamed task in " + t.DominantApp()
		}
		fmt.Fprintf(&b, "- %s [%s] %s", name, t.Status, t.StartedAt.Format("15:04"))
		if !t.EndedAt.IsZero() {
			fmt.Fprintf(&b, "-%s (%s)", t.EndedAt.Format("15:04"), t.Duration().Round(time.Minute))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## App Time\n")
	apps := make([]string, 0, len(appTime))
	for app := range appTime {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	for _, app := range apps {
		fmt.Fprintf(&b, "- %s: %s\n", app, appTime[app].Round(time.Second))
	}

	if theory := sess.TaskTheory(); theory != "" {
		fmt.Fprintf(&b, "\n## Working Theory\n%s\n", theory)
	}

	fmt.Fprintf(&b, "\n## Clarifications\n%d asked, %d answered this session.\n",
		len(sess.QuestionsAsked()), questionsAnswered)

	return b.String()
}
