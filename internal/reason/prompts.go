package reason

import (
	"fmt"
	"strings"
)

const confusionSystemPrompt = `You are a workflow observation engine watching a professional work on their computer. You receive layered context (immediate activity, session history, prior sessions, role baseline) and recent screenshots.

You MUST respond with valid JSON matching one of these two shapes:

If you can confidently explain the current activity:
{
  "confused": false,
  "understanding": "one sentence describing what the user is doing and why"
}

If you genuinely cannot explain it:
{
  "confused": true,
  "type": "unfamiliar_app|unclear_purpose|repeated_action|multi_system|pattern_deviation|manual_entry|error_state",
  "confidence": 0.0-1.0,
  "context": "what you observed that confused you",
  "question": "one short, specific question to ask the user"
}

Rules:
- Default to confused:false. Only report confusion you could not resolve from the provided context.
- The question must be answerable in one sentence and must not repeat anything under "Questions already asked".
- Never invent applications or activity not present in the context.`

const contextChangeSystemPrompt = `You judge whether recent computer activity still belongs to the user's current task.

You MUST respond with valid JSON:
{
  "same_task": true|false,
  "confidence": 0.0-1.0,
  "reasoning": "one sentence"
}

Rules:
- Bias strongly toward same_task:true. Brief reference lookups, messaging dips, and window changes within one goal are the SAME task.
- Only report same_task:false when the activity clearly serves a different goal.`

const summarySystemPrompt = `You compress a work session into a short factual brief for future reference. Write 2-4 plain sentences covering what was worked on, roughly how long, and anything notable. No speculation, no advice.`

const namingSystemPrompt = `You label units of work. Given the applications and window titles a task touched, reply with ONLY a short label of 2-6 words, such as "Monthly invoice reconciliation" or "Drafting project proposal". No quotes, no punctuation at the end, no explanation.`

func buildContextChangePrompt(taskTheory, recentActivity string) string {
	var b strings.Builder
	b.WriteString("## Current Task Theory\n")
	if taskTheory != "" {
		b.WriteString(taskTheory + "\n")
	} else {
		b.WriteString("(no theory yet)\n")
	}
	fmt.Fprintf(&b, "\n## Recent Activity\n%s\n", recentActivity)
	b.WriteString("\nDoes the recent activity still belong to the current task?")
	return b.String()
}

func buildNamingPrompt(apps, windowTitles []string, baseline string) string {
	var b strings.Builder
	if baseline != "" {
		fmt.Fprintf(&b, "## Role\n%s\n\n", baseline)
	}
	fmt.Fprintf(&b, "## Applications\n%s\n", strings.Join(apps, ", "))
	if len(windowTitles) > 0 {
		b.WriteString("\n## Window Titles\n")
		for _, title := range windowTitles {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}
	b.WriteString("\nLabel this task.")
	return b.String()
}
