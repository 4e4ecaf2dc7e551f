package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/mabouzeid04/workflow-daddy/internal/llm"
)

// Reasoner issues the three reasoning call shapes against an LLM provider.
// All methods degrade to conservative values; the returned error exists
// for logging only and never carries partial results.
type Reasoner struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

// New creates a Reasoner over the given provider.
func New(provider llm.Provider, model string, maxTokens int) *Reasoner {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Reasoner{provider: provider, model: model, maxTokens: maxTokens}
}

// EvaluateConfusion asks whether the assembled context can be confidently
// explained. On any failure it returns NoConfusion.
func (r *Reasoner) EvaluateConfusion(ctx context.Context, assembled string, imageURLs []string) (ConfusionResult, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: confusionSystemPrompt},
			{Role: llm.RoleUser, Content: assembled, ImageURLs: imageURLs},
		},
		MaxTokens:   r.maxTokens,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return NoConfusion(), fmt.Errorf("confusion evaluation: %w", err)
	}

	result, err := DecodeConfusion(resp.Content)
	if err != nil {
		return NoConfusion(), fmt.Errorf("confusion evaluation: %w", err)
	}
	return result, nil
}

// EvaluateContextChange asks whether recent activity still belongs to the
// current task. On any failure it returns SameTask.
func (r *Reasoner) EvaluateContextChange(ctx context.Context, taskTheory, recentActivity string) (ContextChangeResult, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: contextChangeSystemPrompt},
			{Role: llm.RoleUser, Content: buildContextChangePrompt(taskTheory, recentActivity)},
		},
		MaxTokens:   r.maxTokens,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return SameTask(), fmt.Errorf("context-change evaluation: %w", err)
	}

	result, err := DecodeContextChange(resp.Content)
	if err != nil {
		return SameTask(), fmt.Errorf("context-change evaluation: %w", err)
	}
	return result, nil
}

// SummarizeSession compresses structured session facts into a short brief.
// On failure it returns an empty string; the caller retries at the next
// natural trigger.
func (r *Reasoner) SummarizeSession(ctx context.Context, facts string) (string, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: summarySystemPrompt},
			{Role: llm.RoleUser, Content: facts},
		},
		MaxTokens:   r.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("session summarization: %w", err)
	}

	brief := strings.TrimSpace(resp.Content)
	if brief == "" {
		return "", fmt.Errorf("session summarization: empty reply")
	}
	return brief, nil
}

// NameTask produces a short label for a closed task from the apps and
// window titles it touched. On failure it returns an empty string and the
// caller falls back to a label derived from the dominant app.
func (r *Reasoner) NameTask(ctx context.Context, apps, windowTitles []string, baseline string) (string, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: namingSystemPrompt},
			{Role: llm.RoleUser, Content: buildNamingPrompt(apps, windowTitles, baseline)},
		},
		MaxTokens:   64,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("task naming: %w", err)
	}

	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Content), `"`))
	if name == "" {
		return "", fmt.Errorf("task naming: empty reply")
	}
	// Guard against a chatty reply; a label is a few words.
	if len(name) > 80 {
		name = name[:80]
	}
	return name, nil
}
