// Package observe holds the observation stream types and the rolling
// short-term context window built from them.
package observe

import "time"

// Observation is one timestamped screen snapshot delivered by the capture
// collaborator. It is immutable once created; downstream components hold
// references, never copies of the image.
type Observation struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveApp   string    `json:"active_app"`
	WindowTitle string    `json:"window_title"`
	ImageRef    string    `json:"image_ref,omitempty"`
}

// ImmediateContext is the rolling short-term window over the last few
// observations.
type ImmediateContext struct {
	Buffer                []*Observation
	CurrentApp            string
	CurrentWindowTitle    string
	LastAppSwitchTime     time.Time
	LastChangeDescription string
}

// Head returns the most recent observation, or nil if none have been seen.
func (ic *ImmediateContext) Head() *Observation {
	if len(ic.Buffer) == 0 {
		return nil
	}
	return ic.Buffer[len(ic.Buffer)-1]
}
