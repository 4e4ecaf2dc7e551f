package question

import "github.com/mabouzeid04/workflow-daddy/internal/reason"

// Evaluator decides whether a decoded confusion result constitutes a
// genuine signal. Anything below the configured confidence threshold is
// silence.
type Evaluator struct {
	threshold float64
}

// NewEvaluator creates an evaluator with the given confidence threshold.
func NewEvaluator(threshold float64) *Evaluator {
	return &Evaluator{threshold: threshold}
}

// Evaluate returns a Signal, or nil when the result carries no confusion
// worth surfacing. Callers apply the result's Understanding to the task
// theory separately; a nil return never implies the theory changed.
func (e *Evaluator) Evaluate(result reason.ConfusionResult) *Signal {
	if !result.Confused {
		return nil
	}
	if result.Confidence < e.threshold {
		return nil
	}
	if result.Question == "" {
		return nil
	}
	return &Signal{
		Type:              result.Type,
		Confidence:        result.Confidence,
		TriggerContext:    result.Context,
		SuggestedQuestion: result.Question,
	}
}
