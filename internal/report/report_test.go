package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taigrr/nbcheck/internal/notebook"
	"github.com/taigrr/nbcheck/internal/runner"
	"github.com/taigrr/nbcheck/internal/types"
)

func TestWrite_AllPassed(t *testing.T) {
	var sb strings.Builder
	summary := New(&sb).Write([]types.Result{
		{Path: "a.ipynb", Status: types.StatusPassed, Cell: -1, Duration: time.Second},
		{Path: "b.ipynb", Status: types.StatusPassed, Cell: -1, Duration: 2 * time.Second},
	})

	if summary.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", summary.ExitCode)
	}
	if summary.Passed != 2 {
		t.Errorf("Passed = %d, want 2", summary.Passed)
	}
	if !strings.Contains(sb.String(), "PASS  a.ipynb") {
		t.Errorf("output missing pass line:\n%s", sb.String())
	}
}

func TestWrite_FailureProducesSentinelExitCode(t *testing.T) {
	var sb strings.Builder
	summary := New(&sb).Write([]types.Result{
		{Path: "a.ipynb", Status: types.StatusFailed, Cell: 2, Error: "a.ipynb: cell 2: boom"},
		{Path: "b.ipynb", Status: types.StatusFailed, Cell: 1, Error: "b.ipynb: cell 1: bang"},
		{Path: "c.ipynb", Status: types.StatusTimedOut, Cell: 0, Error: "c.ipynb: exceeded 5m0s timeout"},
	})

	// Fixed sentinel, never the failure count.
	if summary.ExitCode != FailureExitCode {
		t.Errorf("ExitCode = %d, want %d", summary.ExitCode, FailureExitCode)
	}

	out := sb.String()
	if !strings.Contains(out, "Failing notebooks:") {
		t.Errorf("output missing failure summary:\n%s", out)
	}
	if !strings.Contains(out, "TIMEOUT  c.ipynb") {
		t.Errorf("output missing timeout line:\n%s", out)
	}
}

func TestWrite_SkippedExcludedFromTally(t *testing.T) {
	var sb strings.Builder
	summary := New(&sb).Write([]types.Result{
		{Path: "a.ipynb", Status: types.StatusPassed, Cell: -1},
		{Path: "b.ipynb", Status: types.StatusSkipped, Cell: -1, Reason: "hardware"},
	})

	if summary.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 when only skips and passes", summary.ExitCode)
	}
	if summary.Passed != 1 || summary.Failed != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 passed / 0 failed / 1 skipped", summary)
	}
	if !strings.Contains(sb.String(), "SKIP  b.ipynb (reason: hardware)") {
		t.Errorf("output missing reason-coded skip line:\n%s", sb.String())
	}
}

func writeNotebook(t *testing.T, dir, name, source string) string {
	t.Helper()

	nb := &notebook.Notebook{
		Cells: []notebook.Cell{
			{Type: notebook.CellCode, Source: notebook.SourceText(source)},
		},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
	path := filepath.Join(dir, name+".ipynb")
	if err := nb.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return path
}

// End-to-end: one passing, one raising, one ignored notebook yield two
// executed status lines, one skip line, and the failure exit code.
func TestEndToEnd_MixedBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeNotebook(t, dir, "prints-ok", "import \"fmt\"\nfmt.Println(\"OK\")"),
		writeNotebook(t, dir, "raises", "definitelyNotDefined()"),
		writeNotebook(t, dir, "needs-gpu", "x := 1"),
	}

	var ignore types.IgnoreList
	ignore.Add("needs-gpu", types.ReasonHardware)

	r := runner.New(runner.Options{Timeout: time.Minute})
	results := r.RunBatch(context.Background(), paths, ignore)

	var sb strings.Builder
	summary := New(&sb).Write(results)

	if summary.ExitCode != FailureExitCode {
		t.Errorf("ExitCode = %d, want %d", summary.ExitCode, FailureExitCode)
	}
	if summary.Passed != 1 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1/1/1 passed/failed/skipped", summary)
	}

	out := sb.String()
	for _, want := range []string{"PASS  ", "FAIL  ", "SKIP  ", "(reason: hardware)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
