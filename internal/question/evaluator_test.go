package question

import (
	"testing"

	"github.com/mabouzeid04/workflow-daddy/internal/reason"
)

func TestEvaluatorPassesConfidentSignal(t *testing.T) {
	e := NewEvaluator(0.7)
	sig := e.Evaluate(reason.ConfusionResult{
		Confused:   true,
		Type:       reason.ConfusionUnfamiliarApp,
		Confidence: 0.85,
		Context:    "user opened SAP for the first time",
		Question:   "What are you doing in SAP?",
	})
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Type != reason.ConfusionUnfamiliarApp {
		t.Errorf("type = %q, want unfamiliar_app", sig.Type)
	}
	if sig.SuggestedQuestion != "What are you doing in SAP?" {
		t.Errorf("question = %q", sig.SuggestedQuestion)
	}
}

func TestEvaluatorDropsBelowThreshold(t *testing.T) {
	e := NewEvaluator(0.7)
	sig := e.Evaluate(reason.ConfusionResult{
		Confused:   true,
		Type:       reason.ConfusionUnclearPurpose,
		Confidence: 0.69,
		Question:   "Why are you copying these numbers?",
	})
	if sig != nil {
		t.Fatalf("expected nil for confidence below threshold, got %+v", sig)
	}
}

func TestEvaluatorDropsNotConfused(t *testing.T) {
	e := NewEvaluator(0.7)
	sig := e.Evaluate(reason.ConfusionResult{
		Confused:      false,
		Understanding: "user is reconciling invoices in Excel",
	})
	if sig != nil {
		t.Fatalf("expected nil for a not-confused result, got %+v", sig)
	}
}

func TestEvaluatorDropsEmptyQuestion(t *testing.T) {
	e := NewEvaluator(0.7)
	sig := e.Evaluate(reason.ConfusionResult{
		Confused:   true,
		Type:       reason.ConfusionErrorState,
		Confidence: 0.9,
	})
	if sig != nil {
		t.Fatalf("expected nil when no question text is present, got %+v", sig)
	}
}
