// Package types defines all data structures shared across the harness.
package types

import "time"

// Status is the lifecycle state of a notebook within one run.
// Per notebook: pending -> patched -> running -> terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPatched  Status = "patched"
	StatusRunning  Status = "running"
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusSkipped  Status = "skipped"
)

// Terminal reports whether the status is a terminal state. There is no
// retry transition back to pending within a single invocation.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusTimedOut, StatusSkipped:
		return true
	}
	return false
}

type (
	// Result is the per-notebook outcome of one execution.
	Result struct {
		Path     string        `json:"path"`
		Status   Status        `json:"status"`
		Cell     int           `json:"cell"` // failing code-cell index, -1 if none
		Error    string        `json:"error,omitempty"`
		Reason   string        `json:"reason,omitempty"` // skip reason, if skipped
		Duration time.Duration `json:"-"`
	}

	// Summary aggregates execution results for a whole run.
	Summary struct {
		Total    int `json:"total"`
		Passed   int `json:"passed"`
		Failed   int `json:"failed"`
		TimedOut int `json:"timedOut"`
		Skipped  int `json:"skipped"`
		ExitCode int `json:"exitCode"`
	}
)
