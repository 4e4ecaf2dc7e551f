package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mabouzeid04/workflow-daddy/internal/history"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading session failed: %v", err)), nil
	}
	if rec == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no session %q", sessionID)), nil
	}

	tasks, err := s.tasks.ListBySession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tasks failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s started %s", rec.ID, rec.StartedAt.Format("2006-01-02 15:04"))
	if !rec.EndedAt.IsZero() {
		fmt.Fprintf(&b, ", ended %s", rec.EndedAt.Format("15:04"))
	}
	b.WriteString(".\n")
	if rec.TaskTheory != "" {
		fmt.Fprintf(&b, "Working theory: %s\n", rec.TaskTheory)
	}
	b.WriteString(formatTasks(tasks))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	tasks, err := s.tasks.ListBySession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tasks failed: %v", err)), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks detected in this session."), nil
	}
	return mcp.NewToolResultText(formatTasks(tasks)), nil
}

func (s *Server) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	summaries, err := s.summaries.ListRecent(ctx, history.DefaultSummaryLimit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading summaries failed: %v", err)), nil
	}
	if len(summaries) == 0 {
		return mcp.NewToolResultText("No session history recorded yet."), nil
	}

	ranked := history.RelevantHistory(&history.HistoricalContext{
		PreviousSessionSummaries: summaries,
	}, query, "", limit)

	var b strings.Builder
	for _, sum := range ranked {
		fmt.Fprintf(&b, "%s (%s, %d tasks): %s\n", sum.Date, sum.Duration.Round(time.Minute), sum.TasksCompleted, sum.Brief)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handlePendingQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	pending, err := s.questions.List(ctx, sessionID, question.StatusPending)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading questions failed: %v", err)), nil
	}
	if len(pending) == 0 {
		return mcp.NewToolResultText("No pending questions."), nil
	}

	var b strings.Builder
	for _, q := range pending {
		fmt.Fprintf(&b, "- [%s] %s\n", q.RaisedAt.Format("15:04"), q.Question)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetBaseline(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	interview, err := s.facts.Get(ctx, history.FactInterviewSummary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading baseline failed: %v", err)), nil
	}
	role, err := s.facts.Get(ctx, history.FactRole)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading baseline failed: %v", err)), nil
	}
	known, err := s.facts.KnownTasks(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading known tasks failed: %v", err)), nil
	}

	if interview == "" && role == "" && len(known) == 0 {
		return mcp.NewToolResultText("No baseline recorded yet. Run `workflowd init` to set one up."), nil
	}

	var b strings.Builder
	if role != "" {
		b.WriteString("Role: " + role + "\n")
	}
	if interview != "" {
		b.WriteString(interview + "\n")
	}
	if len(known) > 0 {
		b.WriteString("Recurring tasks: " + strings.Join(known, ", ") + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatTasks(tasks []*task.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		name := t.Name
		if name == "" {
			name = "unnamed task in " + t.DominantApp()
		}
		fmt.Fprintf(&b, "- %s [%s] %s", name, t.Status, t.StartedAt.Format("15:04"))
		if !t.EndedAt.IsZero() {
			fmt.Fprintf(&b, "-%s (%s)", t.EndedAt.Format("15:04"), t.Duration().Round(time.Second))
		}
		apps := make([]string, 0, len(t.Segments))
		seen := make(map[string]bool)
		for _, seg := range t.Segments {
			if !seen[seg.App] {
				seen[seg.App] = true
				apps = append(apps, seg.App)
			}
		}
		if len(apps) > 0 {
			fmt.Fprintf(&b, " apps: %s", strings.Join(apps, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
