// Package report turns execution results into status lines and an exit code.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/taigrr/nbcheck/internal/types"
)

// FailureExitCode is the fixed sentinel returned when any non-skipped
// notebook did not pass. The failure count is reported in the summary
// text, never in the exit code.
const FailureExitCode = 1

// Reporter prints per-notebook status lines and a run summary.
type Reporter struct {
	w io.Writer
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Write prints one status line per result, a summary of failures, and
// returns the aggregated tally. Skipped notebooks are visible in the
// output but excluded from the pass/fail tally.
func (r *Reporter) Write(results []types.Result) types.Summary {
	summary := types.Summary{Total: len(results)}

	for _, res := range results {
		switch res.Status {
		case types.StatusPassed:
			summary.Passed++
			fmt.Fprintf(r.w, "PASS  %s (%s)\n", res.Path, res.Duration.Round(time.Millisecond))
		case types.StatusFailed:
			summary.Failed++
			fmt.Fprintf(r.w, "FAIL  %s: %s\n", res.Path, res.Error)
		case types.StatusTimedOut:
			summary.TimedOut++
			fmt.Fprintf(r.w, "TIMEOUT  %s: %s\n", res.Path, res.Error)
		case types.StatusSkipped:
			summary.Skipped++
			reason := res.Reason
			if reason == "" {
				reason = string(types.ReasonBroken)
			}
			fmt.Fprintf(r.w, "SKIP  %s (reason: %s)\n", res.Path, reason)
		default:
			// A non-terminal status here is a harness bug; surface it as a failure.
			summary.Failed++
			fmt.Fprintf(r.w, "FAIL  %s: finished in non-terminal state %q\n", res.Path, res.Status)
		}
	}

	fmt.Fprintf(r.w, "\n%d passed, %d failed, %d timed out, %d skipped\n",
		summary.Passed, summary.Failed, summary.TimedOut, summary.Skipped)

	if summary.Failed > 0 || summary.TimedOut > 0 {
		fmt.Fprintf(r.w, "\nFailing notebooks:\n")
		for _, res := range results {
			if res.Status == types.StatusFailed || res.Status == types.StatusTimedOut {
				fmt.Fprintf(r.w, "  %s\n    %s\n", res.Path, res.Error)
			}
		}
		summary.ExitCode = FailureExitCode
	}

	return summary
}
