package task

import (
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mabouzeid04/workflow-daddy/internal/config"
)

// Policy holds the boundary detector's tunable thresholds and exception
// tables. It is plain data so tests and operators can swap it without
// touching the state machine.
type Policy struct {
	Debounce        time.Duration
	IdleThreshold   time.Duration
	MinTaskDuration time.Duration
	// MergeGap bounds both backward merging of short tasks and resuming
	// an interrupted task in the same app.
	MergeGap time.Duration

	SameTaskPairs []config.AppPair
	NewTaskApps   []string

	// boundaryTimes are minutes-past-midnight marks that bias an idle gap
	// toward completing the task.
	boundaryTimes []int
}

// PolicyFromConfig builds a Policy from the configuration surface.
func PolicyFromConfig(cfg *config.Config) *Policy {
	p := &Policy{
		Debounce:        time.Duration(cfg.AppSwitchDebounceSeconds) * time.Second,
		IdleThreshold:   time.Duration(cfg.IdleThresholdSeconds) * time.Second,
		MinTaskDuration: time.Duration(cfg.MinTaskDurationSeconds) * time.Second,
		MergeGap:        2 * time.Duration(cfg.MinTaskDurationSeconds) * time.Second,
		SameTaskPairs:   cfg.Boundary.SameTaskPairs,
		NewTaskApps:     cfg.Boundary.NewTaskApps,
	}
	for _, s := range cfg.Boundary.BoundaryTimes {
		if parsed, err := time.Parse("15:04", s); err == nil {
			p.boundaryTimes = append(p.boundaryTimes, parsed.Hour()*60+parsed.Minute())
		}
	}
	return p
}

func matchApp(pattern, app string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(app))
	return err == nil && ok
}

// SameTaskException reports whether switching from one app to another is
// covered by the same-task pair table, and the dwell override after which
// the exception stops holding (zero means unbounded). The table is
// directional: only the configured from→to direction is exempt.
func (p *Policy) SameTaskException(from, to string) (bool, time.Duration) {
	for _, pair := range p.SameTaskPairs {
		if matchApp(pair.From, from) && matchApp(pair.To, to) {
			return true, time.Duration(pair.MaxDwellSeconds) * time.Second
		}
	}
	return false, 0
}

// IsNewTaskApp reports whether the app unconditionally opens a new task.
func (p *Policy) IsNewTaskApp(app string) bool {
	for _, pattern := range p.NewTaskApps {
		if matchApp(pattern, app) {
			return true
		}
	}
	return false
}

// CrossesBoundaryTime reports whether the interval (a, b] spans one of the
// configured times of day, such as a lunch or end-of-day mark.
func (p *Policy) CrossesBoundaryTime(a, b time.Time) bool {
	if len(p.boundaryTimes) == 0 || !b.After(a) {
		return false
	}
	// A gap of a full day or more spans every mark.
	if b.Sub(a) >= 24*time.Hour {
		return true
	}
	aMin := a.Hour()*60 + a.Minute()
	bMin := b.Hour()*60 + b.Minute()
	for _, mark := range p.boundaryTimes {
		if aMin <= bMin {
			if mark > aMin && mark <= bMin {
				return true
			}
		} else {
			// The gap wraps past midnight.
			if mark > aMin || mark <= bMin {
				return true
			}
		}
	}
	return false
}
