package reason

import (
	"context"
	"fmt"
	"testing"

	"github.com/mabouzeid04/workflow-daddy/internal/llm"
)

// cannedProvider returns a fixed reply, or an error.
type cannedProvider struct {
	content string
	err     error
	calls   int
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

func TestDecodeConfusionValid(t *testing.T) {
	raw := `{"confused": true, "type": "unfamiliar_app", "confidence": 0.85, "context": "unknown SAP screen", "question": "What do you use SAP for here?"}`

	result, err := DecodeConfusion(raw)
	if err != nil {
		t.Fatalf("DecodeConfusion: %v", err)
	}
	if !result.Confused {
		t.Fatal("expected confused result")
	}
	if result.Type != ConfusionUnfamiliarApp {
		t.Errorf("type: got %s", result.Type)
	}
	if result.Confidence != 0.85 {
		t.Errorf("confidence: got %f", result.Confidence)
	}
	if result.Question != "What do you use SAP for here?" {
		t.Errorf("question: got %q", result.Question)
	}
}

func TestDecodeConfusionNotConfused(t *testing.T) {
	raw := `{"confused": false, "understanding": "entering invoices into the ledger"}`

	result, err := DecodeConfusion(raw)
	if err != nil {
		t.Fatalf("DecodeConfusion: %v", err)
	}
	if result.Confused {
		t.Fatal("expected not-confused result")
	}
	if result.Understanding != "entering invoices into the ledger" {
		t.Errorf("understanding: got %q", result.Understanding)
	}
}

func TestDecodeConfusionFencedJSON(t *testing.T) {
	raw := "```json\n{\"confused\": false, \"understanding\": \"writing email\"}\n```"
	result, err := DecodeConfusion(raw)
	if err != nil {
		t.Fatalf("DecodeConfusion: %v", err)
	}
	if result.Confused {
		t.Error("expected not-confused result")
	}
}

func TestDecodeConfusionInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think the user might be confused about something."},
		{"missing confused field", `{"type": "error_state", "confidence": 0.9, "question": "?"}`},
		{"unknown type", `{"confused": true, "type": "existential_dread", "confidence": 0.9, "question": "?"}`},
		{"confidence out of range", `{"confused": true, "type": "error_state", "confidence": 1.7, "question": "?"}`},
		{"missing confidence", `{"confused": true, "type": "error_state", "question": "?"}`},
		{"empty question", `{"confused": true, "type": "error_state", "confidence": 0.9, "question": "  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeConfusion(tt.raw); err == nil {
				t.Error("expected decode error, got nil")
			}
		})
	}
}

func TestDecodeContextChange(t *testing.T) {
	result, err := DecodeContextChange(`{"same_task": false, "confidence": 0.8, "reasoning": "switched to expense reports"}`)
	if err != nil {
		t.Fatalf("DecodeContextChange: %v", err)
	}
	if result.SameTask {
		t.Error("expected same_task false")
	}
	if result.Confidence != 0.8 {
		t.Errorf("confidence: got %f", result.Confidence)
	}

	if _, err := DecodeContextChange(`{"confidence": 0.8}`); err == nil {
		t.Error("missing same_task should be invalid")
	}
	if _, err := DecodeContextChange("same task, probably"); err == nil {
		t.Error("prose should be invalid")
	}
}

// Unparseable confusion replies yield silence, not an error branch a
// caller could mistake for a signal.
func TestEvaluateConfusionFailsClosed(t *testing.T) {
	provider := &cannedProvider{content: "Well, it is hard to say what is happening here."}
	r := New(provider, "test-model", 512)

	result, err := r.EvaluateConfusion(context.Background(), "assembled context", nil)
	if err == nil {
		t.Error("expected a loggable error for the malformed reply")
	}
	if result.Confused {
		t.Error("malformed reply must decode as not confused")
	}
	if result.Understanding != "" {
		t.Error("malformed reply must not carry an understanding")
	}
}

func TestEvaluateConfusionProviderError(t *testing.T) {
	provider := &cannedProvider{err: fmt.Errorf("upstream timeout")}
	r := New(provider, "test-model", 512)

	result, err := r.EvaluateConfusion(context.Background(), "assembled context", nil)
	if err == nil {
		t.Error("expected a loggable error")
	}
	if result.Confused {
		t.Error("provider failure must decode as not confused")
	}
}

func TestEvaluateContextChangeFailsToSameTask(t *testing.T) {
	provider := &cannedProvider{content: "{broken json"}
	r := New(provider, "test-model", 512)

	result, err := r.EvaluateContextChange(context.Background(), "theory", "activity")
	if err == nil {
		t.Error("expected a loggable error")
	}
	if !result.SameTask {
		t.Error("malformed reply must decode as same task")
	}
}

func TestNameTaskTrimsAndBounds(t *testing.T) {
	provider := &cannedProvider{content: "  \"Monthly invoice reconciliation\" \n"}
	r := New(provider, "test-model", 512)

	name, err := r.NameTask(context.Background(), []string{"Excel"}, []string{"Book1"}, "accountant")
	if err != nil {
		t.Fatalf("NameTask: %v", err)
	}
	if name != "Monthly invoice reconciliation" {
		t.Errorf("name: got %q", name)
	}

	provider.content = ""
	if _, err := r.NameTask(context.Background(), []string{"Excel"}, nil, ""); err == nil {
		t.Error("empty reply should error so the caller falls back")
	}
}

func TestSummarizeSessionEmptyReplyErrors(t *testing.T) {
	provider := &cannedProvider{content: "   "}
	r := New(provider, "test-model", 512)

	if _, err := r.SummarizeSession(context.Background(), "facts"); err == nil {
		t.Error("expected error on empty brief")
	}
}
