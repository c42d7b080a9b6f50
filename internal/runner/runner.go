// Package runner executes notebooks and collects per-notebook results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/taigrr/nbcheck/internal/cache"
	"github.com/taigrr/nbcheck/internal/kernel"
	"github.com/taigrr/nbcheck/internal/notebook"
	"github.com/taigrr/nbcheck/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExecutionError reports an exception that escaped a cell.
type ExecutionError struct {
	Path string
	Cell int
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: cell %d: %v", e.Path, e.Cell, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports a notebook that exceeded its wall-clock budget.
type TimeoutError struct {
	Path   string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: exceeded %s timeout", e.Path, e.Budget)
}

// Options configures a Runner.
type Options struct {
	// Timeout bounds each notebook's total execution time.
	Timeout time.Duration
	// Jobs is the number of notebooks executed concurrently. Cells
	// within a notebook always run sequentially.
	Jobs int
	// Artifacts is the shared download cache handle, may be nil.
	Artifacts *cache.Cache
	Logger    *zap.Logger
}

// Runner executes notebooks with failure isolation: one notebook's
// failure never aborts the batch.
type Runner struct {
	timeout   time.Duration
	jobs      int
	artifacts *cache.Cache
	log       *zap.Logger
}

// New creates a Runner with defaults filled in.
func New(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		timeout:   opts.Timeout,
		jobs:      opts.Jobs,
		artifacts: opts.Artifacts,
		log:       opts.Logger,
	}
}

// RunNotebook executes every code cell of one notebook in order inside
// a fresh session and returns its terminal result. Errors are folded
// into the result; only the caller's context error escapes this layer.
func (r *Runner) RunNotebook(ctx context.Context, path string) types.Result {
	start := time.Now()
	result := types.Result{Path: path, Status: types.StatusRunning, Cell: -1}

	nb, err := notebook.Load(path)
	if err != nil {
		r.log.Warn("notebook failed to parse", zap.String("path", path), zap.Error(err))
		result.Status = types.StatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	session, err := kernel.NewSession(filepath.Dir(path), r.artifacts)
	if err != nil {
		result.Status = types.StatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	nbCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, idx := range nb.CodeCells() {
		r.log.Debug("executing cell", zap.String("path", path), zap.Int("cell", idx))

		_, err := session.ExecCell(nbCtx, string(nb.Cells[idx].Source))
		if err == nil {
			continue
		}

		result.Duration = time.Since(start)
		if errors.Is(err, context.DeadlineExceeded) {
			// No partial credit for cells that ran before the budget expired.
			te := &TimeoutError{Path: path, Budget: r.timeout}
			r.log.Warn("notebook timed out", zap.String("path", path), zap.Duration("budget", r.timeout))
			result.Status = types.StatusTimedOut
			result.Cell = idx
			result.Error = te.Error()
			return result
		}

		ee := &ExecutionError{Path: path, Cell: idx, Err: err}
		r.log.Warn("notebook failed", zap.String("path", path), zap.Int("cell", idx), zap.Error(err))
		result.Status = types.StatusFailed
		result.Cell = idx
		result.Error = ee.Error()
		return result
	}

	result.Status = types.StatusPassed
	result.Duration = time.Since(start)
	r.log.Info("notebook passed", zap.String("path", path), zap.Duration("took", result.Duration))
	return result
}

// RunBatch executes notebooks, honoring the ignore list and the Jobs
// limit. Notebooks are mutually independent, so they may run in
// parallel; results come back in stable input order.
func (r *Runner) RunBatch(ctx context.Context, paths []string, ignore types.IgnoreList) []types.Result {
	results := make([]types.Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for i, path := range paths {
		if entry, ok := ignore.Lookup(notebook.Stem(path)); ok {
			results[i] = types.Result{
				Path:   path,
				Status: types.StatusSkipped,
				Cell:   -1,
				Reason: string(entry.Reason),
			}
			continue
		}

		g.Go(func() error {
			results[i] = r.RunNotebook(gctx, path)
			return nil
		})
	}

	// Workers never return errors; failures live in the results.
	_ = g.Wait()
	return results
}
