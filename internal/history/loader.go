package history

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
)

// DefaultSummaryLimit bounds how many prior summaries are loaded at
// session start.
const DefaultSummaryLimit = 20

// HistoricalContext is the read-only composite loaded once at session
// start. Later mutations happen to the underlying stores, never here.
type HistoricalContext struct {
	InterviewSummary         string
	Role                     string
	KnownTasks               []string
	PreviousSessionSummaries []summarize.SessionSummary
	RelevantQA               []question.QA
}

// Loader shapes what the stores hold into a HistoricalContext.
type Loader struct {
	facts     *FactStore
	summaries *summarize.Store
	questions *question.Store
}

func NewLoader(facts *FactStore, summaries *summarize.Store, questions *question.Store) *Loader {
	return &Loader{facts: facts, summaries: summaries, questions: questions}
}

// Load assembles the historical tier. Answered Q&A is pulled from the
// sessions behind the most recent summaries so stale clarifications age
// out together with their sessions.
func (l *Loader) Load(ctx context.Context) (*HistoricalContext, error) {
	interview, err := l.facts.Get(ctx, FactInterviewSummary)
	if err != nil {
		return nil, err
	}
	role, err := l.facts.Get(ctx, FactRole)
	if err != nil {
		return nil, err
	}
	known, err := l.facts.KnownTasks(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := l.summaries.ListRecent(ctx, DefaultSummaryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading prior summaries: %w", err)
	}

	var qa []question.QA
	seen := make(map[string]bool)
	for _, sum := range summaries {
		if seen[sum.SessionID] {
			continue
		}
		seen[sum.SessionID] = true
		pairs, err := l.questions.AnsweredPairs(ctx, sum.SessionID)
		if err != nil {
			return nil, fmt.Errorf("loading answered questions: %w", err)
		}
		qa = append(qa, pairs...)
	}

	return &HistoricalContext{
		InterviewSummary:         interview,
		Role:                     role,
		KnownTasks:               known,
		PreviousSessionSummaries: summaries,
		RelevantQA:               qa,
	}, nil
}

// RelevantHistory ranks the loaded summaries against the current task
// theory and app, returning at most maxItems. Recency breaks ties and
// contributes to the score so yesterday's overlapping work beats last
// month's. The selection is a bounded greedy pass, deterministic for
// identical inputs.
func RelevantHistory(h *HistoricalContext, taskTheory, currentApp string, maxItems int) []summarize.SessionSummary {
	if h == nil || maxItems <= 0 {
		return nil
	}
	probe := tokenize(taskTheory + " " + currentApp)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(h.PreviousSessionSummaries))
	for i, sum := range h.PreviousSessionSummaries {
		// Summaries arrive newest first; recency decays linearly.
		recency := 1.0 - float64(i)/float64(len(h.PreviousSessionSummaries)+1)
		overlap := overlapScore(probe, tokenize(sum.Brief+" "+strings.Join(sum.AppsUsed, " ")))
		ranked = append(ranked, scored{index: i, score: recency + 2*overlap})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	if maxItems > len(ranked) {
		maxItems = len(ranked)
	}
	out := make([]summarize.SessionSummary, 0, maxItems)
	for _, r := range ranked[:maxItems] {
		out = append(out, h.PreviousSessionSummaries[r.index])
	}
	return out
}

func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?\"'()")
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func overlapScore(probe, target map[string]bool) float64 {
	if len(probe) == 0 || len(target) == 0 {
		return 0
	}
	shared := 0
	for w := range probe {
		if target[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(probe))
}
