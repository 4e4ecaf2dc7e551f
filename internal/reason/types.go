// Package reason wraps the reasoning collaborator behind three typed call
// shapes. Every response goes through a schema-validating decode that
// yields a typed result or an explicit invalid error; callers always fall
// back to the most conservative value (no confusion, same task, unnamed).
package reason

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfusionType enumerates why the reasoning collaborator is confused.
type ConfusionType string

const (
	ConfusionUnfamiliarApp    ConfusionType = "unfamiliar_app"
	ConfusionUnclearPurpose   ConfusionType = "unclear_purpose"
	ConfusionRepeatedAction   ConfusionType = "repeated_action"
	ConfusionMultiSystem      ConfusionType = "multi_system"
	ConfusionPatternDeviation ConfusionType = "pattern_deviation"
	ConfusionManualEntry      ConfusionType = "manual_entry"
	ConfusionErrorState       ConfusionType = "error_state"
)

var validConfusionTypes = map[ConfusionType]bool{
	ConfusionUnfamiliarApp:    true,
	ConfusionUnclearPurpose:   true,
	ConfusionRepeatedAction:   true,
	ConfusionMultiSystem:      true,
	ConfusionPatternDeviation: true,
	ConfusionManualEntry:      true,
	ConfusionErrorState:       true,
}

// ConfusionResult is the decoded confusion-evaluation response.
type ConfusionResult struct {
	Confused      bool          `json:"confused"`
	Type          ConfusionType `json:"type,omitempty"`
	Confidence    float64       `json:"confidence,omitempty"`
	Context       string        `json:"context,omitempty"`
	Question      string        `json:"question,omitempty"`
	Understanding string        `json:"understanding,omitempty"`
}

// ContextChangeResult is the decoded context-change evaluation response.
type ContextChangeResult struct {
	SameTask   bool    `json:"same_task"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// NoConfusion is the conservative confusion result: silence.
func NoConfusion() ConfusionResult {
	return ConfusionResult{Confused: false}
}

// SameTask is the conservative context-change result: no boundary.
func SameTask() ContextChangeResult {
	return ContextChangeResult{SameTask: true, Confidence: 1}
}

// DecodeConfusion validates a raw reply against the confusion schema.
// A reply claiming confusion must carry a known type, a confidence in
// [0,1], and a non-empty question; anything else is invalid.
func DecodeConfusion(raw string) (ConfusionResult, error) {
	var probe struct {
		Confused      *bool    `json:"confused"`
		Type          string   `json:"type"`
		Confidence    *float64 `json:"confidence"`
		Context       string   `json:"context"`
		Question      string   `json:"question"`
		Understanding string   `json:"understanding"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &probe); err != nil {
		return ConfusionResult{}, fmt.Errorf("confusion reply is not valid JSON: %w", err)
	}
	if probe.Confused == nil {
		return ConfusionResult{}, fmt.Errorf("confusion reply missing 'confused' field")
	}

	if !*probe.Confused {
		return ConfusionResult{Confused: false, Understanding: probe.Understanding}, nil
	}

	typ := ConfusionType(probe.Type)
	if !validConfusionTypes[typ] {
		return ConfusionResult{}, fmt.Errorf("unknown confusion type %q", probe.Type)
	}
	if probe.Confidence == nil || *probe.Confidence < 0 || *probe.Confidence > 1 {
		return ConfusionResult{}, fmt.Errorf("confusion confidence missing or out of range")
	}
	if strings.TrimSpace(probe.Question) == "" {
		return ConfusionResult{}, fmt.Errorf("confused reply carries no question")
	}

	return ConfusionResult{
		Confused:   true,
		Type:       typ,
		Confidence: *probe.Confidence,
		Context:    probe.Context,
		Question:   strings.TrimSpace(probe.Question),
	}, nil
}

// DecodeContextChange validates a raw reply against the context-change
// schema.
func DecodeContextChange(raw string) (ContextChangeResult, error) {
	var probe struct {
		SameTask   *bool    `json:"same_task"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &probe); err != nil {
		return ContextChangeResult{}, fmt.Errorf("context-change reply is not valid JSON: %w", err)
	}
	if probe.SameTask == nil {
		return ContextChangeResult{}, fmt.Errorf("context-change reply missing 'same_task' field")
	}
	if probe.Confidence == nil || *probe.Confidence < 0 || *probe.Confidence > 1 {
		return ContextChangeResult{}, fmt.Errorf("context-change confidence missing or out of range")
	}
	return ContextChangeResult{
		SameTask:   *probe.SameTask,
		Confidence: *probe.Confidence,
		Reasoning:  probe.Reasoning,
	}, nil
}

// extractJSON strips common fencing around a JSON object so a reply
// wrapped in ```json blocks still decodes.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
