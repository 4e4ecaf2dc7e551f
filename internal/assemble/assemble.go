// Package assemble merges the four context tiers into one bounded bundle
// per reasoning call. Text is budgeted in rough token units; images from
// the immediate tier are passed through as-is.
package assemble

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mabouzeid04/workflow-daddy/internal/history"
	"github.com/mabouzeid04/workflow-daddy/internal/observe"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
)

// Budget holds the per-tier unit allowances. The immediate tier is never
// truncated; it is already capped by the buffer size.
type Budget struct {
	Session    int
	Historical int
	Baseline   int
}

// DefaultBudget mirrors the configuration defaults.
var DefaultBudget = Budget{Session: 500, Historical: 1000, Baseline: 500}

// AssembledContext is the bundle handed to one reasoning call.
type AssembledContext struct {
	Immediate  string
	Session    string
	Historical string
	Baseline   string
	ImageURLs  []string
}

// Prompt renders the bundle as a single prompt body. Empty tiers are
// omitted.
func (a AssembledContext) Prompt() string {
	var b strings.Builder
	write := func(header, body string) {
		if body == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## " + header + "\n")
		b.WriteString(body)
	}
	write("Right now", a.Immediate)
	write("This session", a.Session)
	write("Recent history", a.Historical)
	write("Background", a.Baseline)
	return b.String()
}

// Assembler builds assembled contexts under a fixed budget. Given the
// same tier inputs it always produces the same output.
type Assembler struct {
	budget Budget
}

func New(budget Budget) *Assembler {
	return &Assembler{budget: budget}
}

// Assemble merges the tiers. Any tier may be nil; missing tiers produce
// empty sections rather than errors.
func (a *Assembler) Assemble(imm *observe.ImmediateContext, sess *session.Context, hist *history.HistoricalContext) AssembledContext {
	out := AssembledContext{}
	if imm != nil {
		out.Immediate = immediateSection(imm)
		for _, obs := range imm.Buffer {
			if obs.ImageRef != "" {
				out.ImageURLs = append(out.ImageURLs, obs.ImageRef)
			}
		}
	}
	if sess != nil {
		out.Session = truncate(sessionSection(sess), a.budget.Session)
	}
	if hist != nil {
		theory, app := "", ""
		if sess != nil {
			theory = sess.TaskTheory()
		}
		if imm != nil {
			app = imm.CurrentApp
		}
		out.Historical = historicalSection(hist, theory, app, a.budget.Historical)
		out.Baseline = truncate(baselineSection(hist), a.budget.Baseline)
	}
	return out
}

func immediateSection(imm *observe.ImmediateContext) string {
	var lines []string
	for _, obs := range imm.Buffer {
		line := fmt.Sprintf("%s: %s", obs.Timestamp.Format("15:04:05"), obs.ActiveApp)
		if obs.WindowTitle != "" {
			line += fmt.Sprintf(" (%q)", obs.WindowTitle)
		}
		lines = append(lines, line)
	}
	if imm.LastChangeDescription != "" {
		lines = append(lines, "Last change: "+imm.LastChangeDescription)
	}
	return strings.Join(lines, "\n")
}

func sessionSection(sess *session.Context) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Session started %s.", sess.StartTime.Format("15:04")))

	if theory := sess.TaskTheory(); theory != "" {
		lines = append(lines, "Working theory: "+theory)
	}

	tasks := sess.Tasks()
	if len(tasks) > 0 {
		lines = append(lines, "Tasks so far:")
		for _, t := range tasks {
			name := t.Name
			if name == "" {
				name = "unnamed task in " + t.DominantApp()
			}
			lines = append(lines, fmt.Sprintf("- %s (%s, %s)", name, t.Status, t.Duration().Round(time.Second)))
		}
	}

	appTime := sess.AppTime()
	if len(appTime) > 0 {
		apps := make([]string, 0, len(appTime))
		for app := range appTime {
			apps = append(apps, app)
		}
		sort.Slice(apps, func(i, j int) bool {
			if appTime[apps[i]] != appTime[apps[j]] {
				return appTime[apps[i]] > appTime[apps[j]]
			}
			return apps[i] < apps[j]
		})
		parts := make([]string, 0, len(apps))
		for _, app := range apps {
			parts = append(parts, fmt.Sprintf("%s %s", app, appTime[app].Round(time.Second)))
		}
		lines = append(lines, "App time: "+strings.Join(parts, ", "))
	}

	if asked := sess.QuestionsAsked(); len(asked) > 0 {
		lines = append(lines, "Already asked: "+strings.Join(asked, " | "))
	}
	return strings.Join(lines, "\n")
}

func historicalSection(hist *history.HistoricalContext, theory, currentApp string, budget int) string {
	var lines []string
	used := 0
	add := func(line string) bool {
		cost := units(line) + 1
		if used+cost > budget {
			return false
		}
		lines = append(lines, line)
		used += cost
		return true
	}

	for _, sum := range history.RelevantHistory(hist, theory, currentApp, len(hist.PreviousSessionSummaries)) {
		line := fmt.Sprintf("%s: %s", sum.Date, sum.Brief)
		if !add(line) {
			break
		}
	}
	for _, qa := range hist.RelevantQA {
		if !add(fmt.Sprintf("Q: %s A: %s", qa.Question, qa.Answer)) {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func baselineSection(hist *history.HistoricalContext) string {
	var lines []string
	if hist.Role != "" {
		lines = append(lines, "Role: "+hist.Role)
	}
	if hist.InterviewSummary != "" {
		lines = append(lines, hist.InterviewSummary)
	}
	if len(hist.KnownTasks) > 0 {
		lines = append(lines, "Recurring tasks: "+strings.Join(hist.KnownTasks, ", "))
	}
	return strings.Join(lines, "\n")
}

// units approximates token cost as one unit per four characters.
func units(s string) int {
	return (len(s) + 3) / 4
}

// truncate trims text to a unit budget at a line boundary where possible.
func truncate(text string, budget int) string {
	if units(text) <= budget {
		return text
	}
	limit := budget * 4
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
